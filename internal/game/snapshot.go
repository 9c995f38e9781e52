package game

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var ErrInvalidSnapshot = errors.New("invalid game snapshot")

type PlayerSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Secret     string    `json:"secret"`
	Role       Role      `json:"role"`
	Order      int       `json:"order"`
	Ready      bool      `json:"ready"`
	LastActive time.Time `json:"last_active"`
}

// Snapshot is a self-contained copy of a game's state, suitable for
// persisting and restoring.
type Snapshot struct {
	AccessCode     string           `json:"access_code"`
	Version        uint64           `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	Phase          Phase            `json:"phase"`
	DisplayHistory bool             `json:"display_history"`
	Roles          RoleSet          `json:"roles"`
	Players        []PlayerSnapshot `json:"players"`
	Rounds         []*GameRound     `json:"rounds"`
	RoundStart     int              `json:"round_start"`
	Outcome        *Outcome         `json:"outcome,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		AccessCode:     g.code,
		Version:        g.version,
		CreatedAt:      g.createdAt,
		Phase:          g.phase,
		DisplayHistory: g.displayHistory,
		Roles:          g.enabled,
		Players:        make([]PlayerSnapshot, 0, len(g.players)),
		Rounds:         make([]*GameRound, 0, len(g.rounds)),
		RoundStart:     g.roundStart,
	}
	for _, p := range g.players {
		s.Players = append(s.Players, PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Secret:     p.Secret,
			Role:       p.Role,
			Order:      p.Order,
			Ready:      p.Ready,
			LastActive: p.LastActive(),
		})
	}
	for _, r := range g.rounds {
		s.Rounds = append(s.Rounds, cloneRound(r))
	}
	if g.outcome != nil {
		out := *g.outcome
		s.Outcome = &out
	}
	return s
}

func cloneRound(r *GameRound) *GameRound {
	c := &GameRound{Num: r.Num, Result: r.Result, Proposals: make([]*Proposal, 0, len(r.Proposals))}
	for _, p := range r.Proposals {
		cp := *p
		cp.Team = slices.Clone(p.Team)
		cp.Votes = maps.Clone(p.Votes)
		if cp.Votes == nil {
			cp.Votes = make(map[string]bool)
		}
		c.Proposals = append(c.Proposals, &cp)
	}
	if r.Mission != nil {
		m := *r.Mission
		m.Team = slices.Clone(r.Mission.Team)
		m.Submissions = maps.Clone(r.Mission.Submissions)
		if m.Submissions == nil {
			m.Submissions = make(map[string]bool)
		}
		c.Mission = &m
	}
	return c
}

// Restore rebuilds a game from a snapshot.
func Restore(s Snapshot, opts Options) (*Game, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	g := newGame(s.AccessCode, opts)
	g.version = s.Version
	g.createdAt = s.CreatedAt
	g.phase = s.Phase
	g.displayHistory = s.DisplayHistory
	g.enabled = s.Roles
	g.roundStart = s.RoundStart
	for _, ps := range s.Players {
		p := &Player{ID: ps.ID, Name: ps.Name, Secret: ps.Secret, Role: ps.Role, Order: ps.Order, Ready: ps.Ready}
		p.touch(ps.LastActive)
		g.players = append(g.players, p)
	}
	for _, r := range s.Rounds {
		g.rounds = append(g.rounds, cloneRound(r))
	}
	if s.Outcome != nil {
		out := *s.Outcome
		g.outcome = &out
	}
	return g, nil
}

func (s Snapshot) validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
	}

	if len(s.AccessCode) != AccessCodeLength {
		return bad("access code %q", s.AccessCode)
	}
	if s.Phase < PhaseLobby || s.Phase > PhaseEnd {
		return bad("phase %d", s.Phase)
	}
	if !s.Phase.Started() {
		return nil
	}

	n := len(s.Players)
	if !ValidPlayerCount(n) {
		return bad("%d players in a started game", n)
	}
	orders := make(map[int]bool, n)
	for _, p := range s.Players {
		if p.Role == RoleUnassigned || p.Order < 0 || p.Order >= n || orders[p.Order] {
			return bad("player %s has role %s order %d", p.ID, p.Role, p.Order)
		}
		orders[p.Order] = true
	}

	switch s.Phase {
	case PhaseTeamBuilding, PhaseVoting, PhaseMission:
		if len(s.Rounds) == 0 || len(s.Rounds) > NumRounds {
			return bad("%d rounds in phase %s", len(s.Rounds), s.Phase)
		}
		last := s.Rounds[len(s.Rounds)-1]
		if len(last.Proposals) == 0 {
			return bad("round %d has no proposal", last.Num)
		}
		if s.Phase == PhaseMission && last.Mission == nil {
			return bad("round %d has no mission", last.Num)
		}
	case PhaseEnd:
		if s.Outcome == nil {
			return bad("finished game without outcome")
		}
	}
	return nil
}
