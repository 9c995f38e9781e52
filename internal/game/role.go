package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Faction int

const (
	FactionNone Faction = iota
	FactionGood
	FactionEvil
)

func (f Faction) String() string {
	switch f {
	case FactionGood:
		return "good"
	case FactionEvil:
		return "evil"
	default:
		return "none"
	}
}

func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Faction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "good":
		*f = FactionGood
	case "evil":
		*f = FactionEvil
	case "none", "":
		*f = FactionNone
	default:
		return fmt.Errorf("unknown faction %q", b)
	}
	return nil
}

type Role int

const (
	RoleUnassigned Role = iota
	RoleMerlin
	RolePercival
	RoleLoyalServant
	RoleSpy
	RoleAssassin
	RoleMorgana
	RoleMordred
	RoleOberon
)

// roleTrait is the static description of a role that visibility and
// assignment are computed from.
type roleTrait struct {
	name     string
	faction  Faction
	optional bool
	requires []Role

	// member of the evil channel: sees and is seen by other evil players
	knowsEvil bool
	// seen as evil by Merlin
	seenByMerlin bool
	// shows up in Percival's Merlin candidates
	looksLikeMerlin bool
	// Merlin: sees everyone with seenByMerlin
	detectsEvil bool
	// Percival: sees everyone with looksLikeMerlin
	detectsMerlin bool
}

var roleTraits = map[Role]roleTrait{
	RoleUnassigned:   {name: "unassigned"},
	RoleMerlin:       {name: "merlin", faction: FactionGood, optional: true, looksLikeMerlin: true, detectsEvil: true},
	RolePercival:     {name: "percival", faction: FactionGood, optional: true, requires: []Role{RoleMerlin}, detectsMerlin: true},
	RoleLoyalServant: {name: "loyal_servant", faction: FactionGood},
	RoleSpy:          {name: "spy", faction: FactionEvil, knowsEvil: true, seenByMerlin: true},
	RoleAssassin:     {name: "assassin", faction: FactionEvil, optional: true, requires: []Role{RoleMerlin}, knowsEvil: true, seenByMerlin: true},
	RoleMorgana:      {name: "morgana", faction: FactionEvil, optional: true, requires: []Role{RoleMerlin, RolePercival}, knowsEvil: true, seenByMerlin: true, looksLikeMerlin: true},
	RoleMordred:      {name: "mordred", faction: FactionEvil, optional: true, requires: []Role{RoleMerlin}, knowsEvil: true},
	RoleOberon:       {name: "oberon", faction: FactionEvil, optional: true, seenByMerlin: true},
}

// OptionalRoles lists the roles a game may enable, in the order they are
// placed into the deck: evil specials first, then good specials.
var OptionalRoles = []Role{RoleAssassin, RoleMorgana, RoleMordred, RoleOberon, RoleMerlin, RolePercival}

func (r Role) String() string {
	if t, ok := roleTraits[r]; ok {
		return t.name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func (r Role) Faction() Faction {
	return roleTraits[r].faction
}

func (r Role) IsEvil() bool { return r.Faction() == FactionEvil }

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, t := range roleTraits {
		if t.name == s {
			return r, nil
		}
	}
	return RoleUnassigned, fmt.Errorf("%w: unknown role %q", ErrRoleConfiguration, s)
}

// RoleSet is the set of optional roles enabled for a game.
type RoleSet uint16

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

func (s RoleSet) Has(r Role) bool { return s&(1<<uint(r)) != 0 }

func (s RoleSet) With(r Role) RoleSet { return s | 1<<uint(r) }

// Roles returns the enabled roles in deck order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range OptionalRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	// non-optional members only get here through a bad config, keep them visible
	for r := RoleMerlin; r <= RoleOberon; r++ {
		if s.Has(r) && !roleTraits[r].optional {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0)
	for _, r := range s.Roles() {
		names = append(names, r.String())
	}
	return json.Marshal(names)
}

func (s *RoleSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var out RoleSet
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return err
		}
		if r == RoleUnassigned {
			return fmt.Errorf("%w: unknown role %q", ErrRoleConfiguration, n)
		}
		out = out.With(r)
	}
	*s = out
	return nil
}

// NumSpies returns how many evil players a game of n players has.
func NumSpies(n int) int {
	return (n + 2) / 3
}

// Validate checks the role set against a player count. It never touches
// randomness, so a bad configuration is reported before anything is dealt.
func (s RoleSet) Validate(n int) error {
	if n < MinPlayers {
		return fmt.Errorf("%w: need at least %d, have %d", ErrTooFewPlayers, MinPlayers, n)
	}
	if n > MaxPlayers {
		return fmt.Errorf("%w: at most %d, have %d", ErrTooManyPlayers, MaxPlayers, n)
	}

	evil := 0
	for _, r := range s.Roles() {
		t := roleTraits[r]
		if !t.optional {
			return fmt.Errorf("%w: %s cannot be enabled", ErrRoleConfiguration, r)
		}
		for _, dep := range t.requires {
			if !s.Has(dep) {
				return fmt.Errorf("%w: %s requires %s", ErrRoleConfiguration, r, dep)
			}
		}
		if t.faction == FactionEvil {
			evil++
		}
	}

	if spies := NumSpies(n); evil > spies {
		return fmt.Errorf("%w: %d evil roles requested but only %d spies in a %d player game",
			ErrRoleConfiguration, evil, spies, n)
	}
	return nil
}
