package game

import "fmt"

type MissionResult int

const (
	ResultUnset MissionResult = iota
	ResultSuccess
	ResultFail
)

func (r MissionResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFail:
		return "fail"
	default:
		return ""
	}
}

func (r MissionResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *MissionResult) UnmarshalText(b []byte) error {
	switch string(b) {
	case "success":
		*r = ResultSuccess
	case "fail":
		*r = ResultFail
	case "":
		*r = ResultUnset
	default:
		return fmt.Errorf("unknown mission result %q", b)
	}
	return nil
}

// Winner is the faction that takes the round.
func (r MissionResult) Winner() Faction {
	switch r {
	case ResultSuccess:
		return FactionGood
	case ResultFail:
		return FactionEvil
	default:
		return FactionNone
	}
}

// WinnerString is the scoreboard label for a round.
func (r MissionResult) WinnerString() string {
	switch r.Winner() {
	case FactionGood:
		return "Resistance"
	case FactionEvil:
		return "Spies"
	default:
		return ""
	}
}

type Proposal struct {
	Num      int             `json:"num"`
	Proposer string          `json:"proposer"`
	Team     []string        `json:"team"`
	Votes    map[string]bool `json:"votes"`
	// Submitted is set once the team is locked in and voting has opened.
	Submitted bool `json:"submitted"`
	Resolved  bool `json:"resolved"`
	Approved  bool `json:"approved"`
	Forced    bool `json:"forced"`
}

func (p *Proposal) onTeam(playerID string) bool {
	for _, id := range p.Team {
		if id == playerID {
			return true
		}
	}
	return false
}

func (p *Proposal) tally() (approves, rejects int) {
	for _, v := range p.Votes {
		if v {
			approves++
		} else {
			rejects++
		}
	}
	return approves, rejects
}

type MissionAttempt struct {
	Team          []string        `json:"team"`
	Submissions   map[string]bool `json:"submissions"`
	RequiredFails int             `json:"required_fails"`
}

func (m *MissionAttempt) onTeam(playerID string) bool {
	for _, id := range m.Team {
		if id == playerID {
			return true
		}
	}
	return false
}

func (m *MissionAttempt) fails() int {
	n := 0
	for _, ok := range m.Submissions {
		if !ok {
			n++
		}
	}
	return n
}

type GameRound struct {
	Num       int             `json:"num"`
	Proposals []*Proposal     `json:"proposals"`
	Mission   *MissionAttempt `json:"mission,omitempty"`
	Result    MissionResult   `json:"result"`
}

func (r *GameRound) current() *Proposal {
	if len(r.Proposals) == 0 {
		return nil
	}
	return r.Proposals[len(r.Proposals)-1]
}

// ResolveVote decides a completed vote. Strict majority approves; ties
// reject. The last allowed proposal of a round is approved regardless.
func ResolveVote(approves, rejects, proposalNum int) (approved, forced bool) {
	if proposalNum >= MaxProposals {
		return true, approves <= rejects
	}
	return approves > rejects, false
}

// ResolveMission decides a completed mission.
func ResolveMission(fails, requiredFails int) MissionResult {
	if fails >= requiredFails {
		return ResultFail
	}
	return ResultSuccess
}
