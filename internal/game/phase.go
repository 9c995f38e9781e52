package game

import "fmt"

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseRoleReveal
	PhaseTeamBuilding
	PhaseVoting
	PhaseMission
	PhaseAssassination
	PhaseEnd
)

var phaseNames = [...]string{
	PhaseLobby:         "lobby",
	PhaseRoleReveal:    "role_reveal",
	PhaseTeamBuilding:  "team_building",
	PhaseVoting:        "voting",
	PhaseMission:       "mission",
	PhaseAssassination: "assassination",
	PhaseEnd:           "end",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Started reports whether roles have been dealt.
func (p Phase) Started() bool { return p != PhaseLobby }
