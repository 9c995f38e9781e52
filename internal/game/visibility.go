package game

type Perception int

const (
	PerceiveNothing Perception = iota
	PerceiveSpy
	PerceiveMerlin
	PerceivePossibleMerlin
)

func (p Perception) String() string {
	switch p {
	case PerceiveSpy:
		return "spy"
	case PerceiveMerlin:
		return "merlin"
	case PerceivePossibleMerlin:
		return "possible_merlin"
	default:
		return ""
	}
}

func (p Perception) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// visibilityRule yields a perception when it applies to the pair, and
// PerceiveNothing otherwise. Rules are tried in order; first hit wins.
type visibilityRule func(viewer, target roleTrait, enabled RoleSet) Perception

var visibilityRules = []visibilityRule{
	// evil channel
	func(viewer, target roleTrait, _ RoleSet) Perception {
		if viewer.knowsEvil && target.knowsEvil {
			return PerceiveSpy
		}
		return PerceiveNothing
	},
	// Merlin
	func(viewer, target roleTrait, _ RoleSet) Perception {
		if viewer.detectsEvil && target.seenByMerlin {
			return PerceiveSpy
		}
		return PerceiveNothing
	},
	// Percival
	func(viewer, target roleTrait, enabled RoleSet) Perception {
		if !viewer.detectsMerlin || !target.looksLikeMerlin {
			return PerceiveNothing
		}
		if enabled.Has(RoleMorgana) {
			return PerceivePossibleMerlin
		}
		return PerceiveMerlin
	},
}

// Perceive returns what a player holding viewer sees when looking at a
// player holding target. It depends only on the two roles and which
// optional roles are enabled.
func Perceive(viewer, target Role, enabled RoleSet) Perception {
	v, t := roleTraits[viewer], roleTraits[target]
	for _, rule := range visibilityRules {
		if p := rule(v, t, enabled); p != PerceiveNothing {
			return p
		}
	}
	return PerceiveNothing
}
