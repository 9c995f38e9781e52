package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var assignedRoles = []Role{
	RoleMerlin, RolePercival, RoleLoyalServant,
	RoleSpy, RoleAssassin, RoleMorgana, RoleMordred, RoleOberon,
}

func TestPerceive(t *testing.T) {
	withMorgana := NewRoleSet(RoleMerlin, RolePercival, RoleAssassin, RoleMorgana, RoleMordred, RoleOberon)
	withoutMorgana := NewRoleSet(RoleMerlin, RolePercival, RoleAssassin, RoleMordred, RoleOberon)

	for _, enabled := range []RoleSet{withMorgana, withoutMorgana} {
		for _, viewer := range assignedRoles {
			for _, target := range assignedRoles {
				got := Perceive(viewer, target, enabled)
				want := expectedPerception(viewer, target, enabled)
				assert.Equal(t, want, got, "%s looking at %s (morgana=%v)", viewer, target, enabled.Has(RoleMorgana))
			}
		}
	}
}

// expectedPerception spells the rules out branch by branch.
func expectedPerception(viewer, target Role, enabled RoleSet) Perception {
	switch {
	case viewer.IsEvil() && viewer != RoleOberon && target.IsEvil() && target != RoleOberon:
		return PerceiveSpy
	case viewer == RoleMerlin && target.IsEvil() && target != RoleMordred:
		return PerceiveSpy
	case viewer == RolePercival && (target == RoleMerlin || target == RoleMorgana):
		if enabled.Has(RoleMorgana) {
			return PerceivePossibleMerlin
		}
		return PerceiveMerlin
	default:
		return PerceiveNothing
	}
}

func TestPerceiveSpotChecks(t *testing.T) {
	all := NewRoleSet(RoleMerlin, RolePercival, RoleAssassin, RoleMorgana, RoleMordred, RoleOberon)

	assert.Equal(t, PerceiveNothing, Perceive(RoleMerlin, RoleMordred, all), "mordred hides from merlin")
	assert.Equal(t, PerceiveSpy, Perceive(RoleMerlin, RoleOberon, all), "merlin sees oberon")
	assert.Equal(t, PerceiveNothing, Perceive(RoleOberon, RoleAssassin, all), "oberon sees no one")
	assert.Equal(t, PerceiveNothing, Perceive(RoleAssassin, RoleOberon, all), "no one evil sees oberon")
	assert.Equal(t, PerceiveSpy, Perceive(RoleMordred, RoleMorgana, all))
	assert.Equal(t, PerceiveNothing, Perceive(RoleLoyalServant, RoleSpy, all))
	assert.Equal(t, PerceivePossibleMerlin, Perceive(RolePercival, RoleMorgana, all))
	assert.Equal(t, PerceiveMerlin, Perceive(RolePercival, RoleMerlin, NewRoleSet(RoleMerlin, RolePercival)))
	assert.Equal(t, PerceiveNothing, Perceive(RolePercival, RoleSpy, all))
}
