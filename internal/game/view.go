package game

import (
	"cmp"
	"slices"
	"strings"
)

type PlayerView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Order      int        `json:"order"`
	Ready      bool       `json:"ready"`
	IsYou      bool       `json:"is_you"`
	Perception Perception `json:"perception,omitempty"`
	// only revealed once the game is over
	Role Role `json:"role,omitempty"`
}

type YouView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       Role    `json:"role,omitempty"`
	Faction    Faction `json:"faction,omitempty"`
	Ready      bool    `json:"ready"`
	IsProposer bool    `json:"is_proposer"`
	OnMission  bool    `json:"on_mission"`
}

type RoundScore struct {
	Num         int    `json:"num"`
	MissionSize string `json:"mission_size"`
	Winner      string `json:"winner"`
}

type ProposalView struct {
	Num      int             `json:"num"`
	Proposer string          `json:"proposer"`
	Team     []string        `json:"team"`
	Voted    []string        `json:"voted,omitempty"`
	Votes    map[string]bool `json:"votes,omitempty"`
	Resolved bool            `json:"resolved"`
	Approved bool            `json:"approved"`
	Forced   bool            `json:"forced"`
}

type MissionView struct {
	Team          []string      `json:"team"`
	RequiredFails int           `json:"required_fails"`
	Submitted     int           `json:"submitted"`
	YouSubmitted  bool          `json:"you_submitted"`
	Fails         int           `json:"fails"`
	Result        MissionResult `json:"result,omitempty"`
}

type RoundHistory struct {
	Num       int            `json:"num"`
	Proposals []ProposalView `json:"proposals"`
	Mission   *MissionView   `json:"mission,omitempty"`
}

// GameView is one player's picture of the game. Hidden information is
// filtered through Perceive.
type GameView struct {
	AccessCode          string         `json:"access_code"`
	Phase               Phase          `json:"phase"`
	Version             uint64         `json:"version"`
	DisplayHistory      bool           `json:"display_history"`
	EnabledRoles        RoleSet        `json:"enabled_roles"`
	PlayerCount         int            `json:"player_count"`
	RoundNum            int            `json:"round_num"`
	ProposalNum         int            `json:"proposal_num"`
	TeamSize            int            `json:"team_size,omitempty"`
	You                 YouView        `json:"you"`
	Players             []PlayerView   `json:"players"`
	VisibleSpies        []string       `json:"visible_spies"`
	PossibleMerlins     []string       `json:"possible_merlins"`
	PossibleMerlinsText string         `json:"possible_merlins_text"`
	HasMordred          bool           `json:"game_has_mordred"`
	Rounds              []RoundScore   `json:"rounds"`
	Proposal            *ProposalView  `json:"proposal,omitempty"`
	LastVote            *ProposalView  `json:"last_vote,omitempty"`
	Mission             *MissionView   `json:"mission,omitempty"`
	History             []RoundHistory `json:"history,omitempty"`
	Outcome             *Outcome       `json:"outcome,omitempty"`
}

// View renders the game for the holder of secret. Only the caller's
// activity timestamp changes, so repeated calls return equal views.
func (g *Game) View(secret string) (GameView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return GameView{}, ErrNotFound
	}
	me := g.bySecret(secret)
	if me == nil {
		return GameView{}, ErrUnauthorized
	}
	me.touch(g.now())

	n := len(g.players)
	v := GameView{
		AccessCode:      g.code,
		Phase:           g.phase,
		Version:         g.version,
		DisplayHistory:  g.displayHistory,
		EnabledRoles:    g.enabled,
		PlayerCount:     n,
		HasMordred:      g.enabled.Has(RoleMordred),
		Players:         make([]PlayerView, 0, n),
		VisibleSpies:    []string{},
		PossibleMerlins: []string{},
		Rounds:          []RoundScore{},
		You: YouView{
			ID:      me.ID,
			Name:    me.Name,
			Role:    me.Role,
			Faction: me.Role.Faction(),
			Ready:   me.Ready,
		},
	}

	seated := slices.Clone(g.players)
	if g.phase.Started() {
		slices.SortFunc(seated, func(a, b *Player) int { return cmp.Compare(a.Order, b.Order) })
	}

	for _, p := range seated {
		pv := PlayerView{ID: p.ID, Name: p.Name, Order: p.Order, Ready: p.Ready, IsYou: p == me}
		if g.phase.Started() && p != me {
			pv.Perception = Perceive(me.Role, p.Role, g.enabled)
			switch pv.Perception {
			case PerceiveSpy:
				v.VisibleSpies = append(v.VisibleSpies, p.Name)
			case PerceiveMerlin, PerceivePossibleMerlin:
				v.PossibleMerlins = append(v.PossibleMerlins, p.Name)
			}
		}
		if g.phase == PhaseEnd {
			pv.Role = p.Role
		}
		v.Players = append(v.Players, pv)
	}
	v.PossibleMerlinsText = strings.Join(v.PossibleMerlins, " or ")

	if ValidPlayerCount(n) {
		for num := 1; num <= NumRounds; num++ {
			score := RoundScore{Num: num, MissionSize: MissionSizeString(n, num)}
			if num <= len(g.rounds) {
				score.Winner = g.rounds[num-1].Result.WinnerString()
			}
			v.Rounds = append(v.Rounds, score)
		}
	}

	if r := g.currentRound(); r != nil {
		v.RoundNum = r.Num
		prop := r.current()
		v.ProposalNum = prop.Num
		v.TeamSize = TeamSize(n, r.Num)
		v.You.IsProposer = prop.Proposer == me.ID && g.phase == PhaseTeamBuilding

		if g.phase == PhaseTeamBuilding || g.phase == PhaseVoting {
			pv := proposalView(prop, false)
			v.Proposal = &pv
		}
		if r.Mission != nil {
			mv := missionView(r.Mission, r.Result, me.ID)
			v.Mission = &mv
			v.You.OnMission = r.Mission.onTeam(me.ID)
		}
		if last := g.lastResolved(); last != nil {
			lv := proposalView(last, true)
			v.LastVote = &lv
		}
	}

	if g.displayHistory {
		for _, r := range g.rounds {
			h := RoundHistory{Num: r.Num, Proposals: []ProposalView{}}
			for _, prop := range r.Proposals {
				if prop.Resolved {
					h.Proposals = append(h.Proposals, proposalView(prop, true))
				}
			}
			if r.Mission != nil && r.Result != ResultUnset {
				mv := missionView(r.Mission, r.Result, me.ID)
				h.Mission = &mv
			}
			v.History = append(v.History, h)
		}
	}

	if g.outcome != nil {
		out := *g.outcome
		v.Outcome = &out
	}
	return v, nil
}

func (g *Game) lastResolved() *Proposal {
	for i := len(g.rounds) - 1; i >= 0; i-- {
		props := g.rounds[i].Proposals
		for j := len(props) - 1; j >= 0; j-- {
			if props[j].Resolved {
				return props[j]
			}
		}
	}
	return nil
}

func proposalView(p *Proposal, reveal bool) ProposalView {
	pv := ProposalView{
		Num:      p.Num,
		Proposer: p.Proposer,
		Team:     slices.Clone(p.Team),
		Resolved: p.Resolved,
		Approved: p.Approved,
		Forced:   p.Forced,
	}
	if reveal && p.Resolved {
		pv.Votes = make(map[string]bool, len(p.Votes))
		for id, vote := range p.Votes {
			pv.Votes[id] = vote
		}
		return pv
	}
	for id := range p.Votes {
		pv.Voted = append(pv.Voted, id)
	}
	slices.Sort(pv.Voted)
	return pv
}

func missionView(m *MissionAttempt, result MissionResult, viewerID string) MissionView {
	_, submitted := m.Submissions[viewerID]
	mv := MissionView{
		Team:          slices.Clone(m.Team),
		RequiredFails: m.RequiredFails,
		Submitted:     len(m.Submissions),
		YouSubmitted:  submitted,
		Result:        result,
	}
	if result != ResultUnset {
		mv.Fails = m.fails()
	}
	return mv
}
