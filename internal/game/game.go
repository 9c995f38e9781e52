package game

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	ReasonMissions      = "missions"
	ReasonAssassination = "assassination"
)

// Options carries the injectable collaborators of a game.
type Options struct {
	Shuffler   Shuffler
	Tokens     TokenSource
	Clock      func() time.Time
	NewID      func() string
	IdleExpiry time.Duration
}

func (o Options) withDefaults() Options {
	if o.Shuffler == nil {
		o.Shuffler = DefaultShuffler
	}
	if o.Tokens == nil {
		o.Tokens = CryptoTokens
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.IdleExpiry <= 0 {
		o.IdleExpiry = 30 * time.Second
	}
	return o
}

type StartConfig struct {
	Roles          RoleSet `json:"roles"`
	DisplayHistory bool    `json:"display_history"`
}

type Outcome struct {
	Winner         Faction `json:"winner"`
	Reason         string  `json:"reason"`
	AssassinTarget string  `json:"assassin_target,omitempty"`
}

type VoteOutcome struct {
	Resolved bool `json:"resolved"`
	Approved bool `json:"approved"`
	Forced   bool `json:"forced"`
	Approves int  `json:"approves"`
	Rejects  int  `json:"rejects"`
}

type MissionOutcome struct {
	Resolved bool          `json:"resolved"`
	Result   MissionResult `json:"result,omitempty"`
	Fails    int           `json:"fails"`
}

// ForcedOutcome holds whichever of the two resolutions ForceResolve ran.
type ForcedOutcome struct {
	Vote    *VoteOutcome    `json:"vote,omitempty"`
	Mission *MissionOutcome `json:"mission,omitempty"`
}

// Game is one session. Mutating methods hold the write lock for their whole
// duration and validate before changing anything, so a returned error
// always means the state is untouched.
type Game struct {
	mu   sync.RWMutex
	code string
	opts Options

	createdAt      time.Time
	phase          Phase
	displayHistory bool
	enabled        RoleSet
	players        []*Player
	rounds         []*GameRound
	roundStart     int
	outcome        *Outcome
	version        uint64
	closed         bool

	archived atomic.Bool
}

func newGame(code string, opts Options) *Game {
	opts = opts.withDefaults()
	return &Game{
		code:      code,
		opts:      opts,
		createdAt: opts.Clock(),
		phase:     PhaseLobby,
	}
}

func (g *Game) Code() string { return g.code }

func (g *Game) Phase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

func (g *Game) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// ClaimArchive returns true exactly once for a finished game.
func (g *Game) ClaimArchive() bool {
	if g.Phase() != PhaseEnd {
		return false
	}
	return g.archived.CompareAndSwap(false, true)
}

func (g *Game) now() time.Time { return g.opts.Clock() }

func (g *Game) changed() { g.version++ }

func (g *Game) bySecret(secret string) *Player {
	if secret == "" {
		return nil
	}
	for _, p := range g.players {
		if p.Secret == secret {
			return p
		}
	}
	return nil
}

func (g *Game) byID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) byName(name string) *Player {
	for _, p := range g.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (g *Game) byOrder(order int) *Player {
	for _, p := range g.players {
		if p.Order == order {
			return p
		}
	}
	return nil
}

// auth resolves the secret and refreshes the player's activity.
func (g *Game) auth(secret string) (*Player, error) {
	if g.closed {
		return nil, ErrNotFound
	}
	p := g.bySecret(secret)
	if p == nil {
		return nil, ErrUnauthorized
	}
	p.touch(g.now())
	return p, nil
}

func (g *Game) newSecret() string {
	for {
		s := g.opts.Tokens.Token(SecretLength)
		if g.bySecret(s) == nil {
			return s
		}
	}
}

func (g *Game) currentRound() *GameRound {
	if len(g.rounds) == 0 {
		return nil
	}
	return g.rounds[len(g.rounds)-1]
}

func (g *Game) teamSize() int {
	return TeamSize(len(g.players), g.currentRound().Num)
}

// Authenticate checks a secret and refreshes the player's activity.
func (g *Game) Authenticate(secret string) (Credentials, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return Credentials{}, err
	}
	return g.credentials(p), nil
}

func (g *Game) credentials(p *Player) Credentials {
	return Credentials{AccessCode: g.code, PlayerID: p.ID, Name: p.Name, Secret: p.Secret}
}

// Join seats a new player or lets a returning player reclaim an idle seat
// under a fresh secret.
func (g *Game) Join(name string) (Credentials, error) {
	return g.JoinWith(name, nil)
}

// JoinWith is Join with a hook that sees the credentials before the seat is
// committed. If issue fails the game is left untouched and its error is
// returned.
func (g *Game) JoinWith(name string, issue func(Credentials) error) (Credentials, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Credentials{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return Credentials{}, ErrNotFound
	}

	now := g.now()
	if p := g.byName(name); p != nil {
		if !p.idle(now, g.opts.IdleExpiry) {
			return Credentials{}, fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
		creds := Credentials{AccessCode: g.code, PlayerID: p.ID, Name: p.Name, Secret: g.newSecret()}
		if issue != nil {
			if err := issue(creds); err != nil {
				return Credentials{}, err
			}
		}
		p.Secret = creds.Secret
		p.touch(now)
		g.changed()
		return creds, nil
	}

	if g.phase.Started() {
		return Credentials{}, ErrGameAlreadyStarted
	}

	p := &Player{ID: g.opts.NewID(), Name: name, Secret: g.newSecret(), Order: len(g.players)}
	creds := g.credentials(p)
	if issue != nil {
		if err := issue(creds); err != nil {
			return Credentials{}, err
		}
	}
	p.touch(now)
	g.players = append(g.players, p)
	g.changed()
	return creds, nil
}

// Leave removes a player from the lobby and returns how many remain.
func (g *Game) Leave(secret string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return 0, err
	}
	if g.phase != PhaseLobby {
		return 0, fmt.Errorf("%w: players can only leave the lobby", ErrWrongPhase)
	}

	kept := g.players[:0]
	for _, other := range g.players {
		if other != p {
			kept = append(kept, other)
		}
	}
	g.players = kept
	for i, other := range g.players {
		other.Order = i
	}
	g.changed()
	return len(g.players), nil
}

// Start deals roles and moves the game to role reveal.
func (g *Game) Start(secret string, cfg StartConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.auth(secret); err != nil {
		return err
	}
	if g.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}

	deal, err := AssignRoles(len(g.players), cfg.Roles, g.opts.Shuffler)
	if err != nil {
		return err
	}

	for i, p := range g.players {
		p.Role = deal.Roles[i]
		p.Order = deal.Orders[i]
		p.Ready = false
	}
	g.enabled = cfg.Roles
	g.displayHistory = cfg.DisplayHistory
	g.phase = PhaseRoleReveal
	g.changed()
	return nil
}

// MarkReady acknowledges the role reveal. It reports whether this was the
// last player, which opens round one.
func (g *Game) MarkReady(secret string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return false, err
	}
	if g.phase != PhaseRoleReveal {
		return false, ErrWrongPhase
	}
	if p.Ready {
		return false, nil
	}

	p.Ready = true
	g.changed()

	for _, other := range g.players {
		if !other.Ready {
			return false, nil
		}
	}
	g.beginRound(1, 0)
	return true, nil
}

func (g *Game) beginRound(num, start int) {
	g.roundStart = start
	g.rounds = append(g.rounds, &GameRound{Num: num})
	g.openProposal(1)
}

func (g *Game) openProposal(num int) {
	round := g.currentRound()
	proposer := g.byOrder((g.roundStart + num - 1) % len(g.players))
	round.Proposals = append(round.Proposals, &Proposal{
		Num:      num,
		Proposer: proposer.ID,
		Team:     []string{},
		Votes:    make(map[string]bool),
	})
	g.phase = PhaseTeamBuilding
}

// proposerTurn authenticates the caller as the proposer of the given
// round and proposal during team building.
func (g *Game) proposerTurn(secret string, round, proposal int) (*Proposal, error) {
	p, err := g.auth(secret)
	if err != nil {
		return nil, err
	}
	if g.phase != PhaseTeamBuilding {
		return nil, ErrWrongPhase
	}
	r := g.currentRound()
	prop := r.current()
	if r.Num != round || prop.Num != proposal {
		return nil, fmt.Errorf("%w: current is round %d proposal %d", ErrStaleAction, r.Num, prop.Num)
	}
	if prop.Proposer != p.ID {
		return nil, ErrNotYourTurn
	}
	return prop, nil
}

// ChooseMember adds a player to the team being built.
func (g *Game) ChooseMember(secret string, round, proposal int, playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prop, err := g.proposerTurn(secret, round, proposal)
	if err != nil {
		return err
	}
	if g.byID(playerID) == nil {
		return ErrUnknownPlayer
	}
	if prop.onTeam(playerID) {
		return ErrDuplicateMember
	}
	if size := g.teamSize(); len(prop.Team) >= size {
		return fmt.Errorf("%w: team already has %d members", ErrWrongTeamSize, size)
	}

	prop.Team = append(prop.Team, playerID)
	g.changed()
	return nil
}

// RemoveMember drops a player from the team being built.
func (g *Game) RemoveMember(secret string, round, proposal int, playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prop, err := g.proposerTurn(secret, round, proposal)
	if err != nil {
		return err
	}
	if !prop.onTeam(playerID) {
		return fmt.Errorf("%w: not on the team", ErrUnknownPlayer)
	}

	team := make([]string, 0, len(prop.Team)-1)
	for _, id := range prop.Team {
		if id != playerID {
			team = append(team, id)
		}
	}
	prop.Team = team
	g.changed()
	return nil
}

// SubmitTeam locks in the team built so far and opens the vote.
func (g *Game) SubmitTeam(secret string, round, proposal int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prop, err := g.proposerTurn(secret, round, proposal)
	if err != nil {
		return err
	}
	if size := g.teamSize(); len(prop.Team) != size {
		return fmt.Errorf("%w: need %d, have %d", ErrWrongTeamSize, size, len(prop.Team))
	}

	g.openVote(prop)
	return nil
}

// ProposeTeam replaces the team with members and opens the vote.
func (g *Game) ProposeTeam(secret string, round, proposal int, members []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prop, err := g.proposerTurn(secret, round, proposal)
	if err != nil {
		return err
	}
	if size := g.teamSize(); len(members) != size {
		return fmt.Errorf("%w: need %d, have %d", ErrWrongTeamSize, size, len(members))
	}
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if g.byID(id) == nil {
			return ErrUnknownPlayer
		}
		if seen[id] {
			return ErrDuplicateMember
		}
		seen[id] = true
	}

	prop.Team = append([]string(nil), members...)
	g.openVote(prop)
	return nil
}

func (g *Game) openVote(prop *Proposal) {
	prop.Submitted = true
	g.phase = PhaseVoting
	g.changed()
}

// CastVote records a vote on the current proposal. The vote that completes
// the tally resolves it.
func (g *Game) CastVote(secret string, round, proposal int, approve bool) (VoteOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return VoteOutcome{}, err
	}
	if g.phase != PhaseVoting {
		return VoteOutcome{}, ErrWrongPhase
	}
	r := g.currentRound()
	prop := r.current()
	if r.Num != round || prop.Num != proposal {
		return VoteOutcome{}, fmt.Errorf("%w: current is round %d proposal %d", ErrStaleAction, r.Num, prop.Num)
	}
	if _, ok := prop.Votes[p.ID]; ok {
		return VoteOutcome{}, ErrAlreadyVoted
	}

	prop.Votes[p.ID] = approve
	g.changed()

	if len(prop.Votes) < len(g.players) {
		return VoteOutcome{}, nil
	}
	approves, rejects := prop.tally()
	return g.resolveVote(prop, approves, rejects), nil
}

func (g *Game) resolveVote(prop *Proposal, approves, rejects int) VoteOutcome {
	approved, forced := ResolveVote(approves, rejects, prop.Num)
	prop.Resolved = true
	prop.Approved = approved
	prop.Forced = forced

	r := g.currentRound()
	if approved {
		r.Mission = &MissionAttempt{
			Team:          append([]string(nil), prop.Team...),
			Submissions:   make(map[string]bool),
			RequiredFails: RequiredFails(len(g.players), r.Num),
		}
		g.phase = PhaseMission
	} else {
		g.openProposal(prop.Num + 1)
	}
	g.changed()
	return VoteOutcome{Resolved: true, Approved: approved, Forced: forced, Approves: approves, Rejects: rejects}
}

// SubmitMission records a team member's mission card. The submission that
// completes the mission resolves it.
func (g *Game) SubmitMission(secret string, round int, success bool) (MissionOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return MissionOutcome{}, err
	}
	if g.phase != PhaseMission {
		return MissionOutcome{}, ErrWrongPhase
	}
	r := g.currentRound()
	if r.Num != round {
		return MissionOutcome{}, fmt.Errorf("%w: current is round %d", ErrStaleAction, r.Num)
	}
	m := r.Mission
	if !m.onTeam(p.ID) {
		return MissionOutcome{}, ErrNotOnMission
	}
	if _, ok := m.Submissions[p.ID]; ok {
		return MissionOutcome{}, ErrAlreadySubmitted
	}
	if !success && !p.Role.IsEvil() {
		return MissionOutcome{}, ErrGoodMustSucceed
	}

	m.Submissions[p.ID] = success
	g.changed()

	if len(m.Submissions) < len(m.Team) {
		return MissionOutcome{}, nil
	}
	return g.resolveMission(r), nil
}

func (g *Game) resolveMission(r *GameRound) MissionOutcome {
	fails := r.Mission.fails()
	r.Result = ResolveMission(fails, r.Mission.RequiredFails)
	g.changed()

	good, evil := g.score()
	switch {
	case evil >= WinsNeeded:
		g.finish(FactionEvil, ReasonMissions, "")
	case good >= WinsNeeded && g.seated(RoleAssassin):
		g.phase = PhaseAssassination
	case good >= WinsNeeded:
		g.finish(FactionGood, ReasonMissions, "")
	default:
		g.beginRound(r.Num+1, (g.roundStart+1)%len(g.players))
	}
	return MissionOutcome{Resolved: true, Result: r.Result, Fails: fails}
}

func (g *Game) score() (good, evil int) {
	for _, r := range g.rounds {
		switch r.Result {
		case ResultSuccess:
			good++
		case ResultFail:
			evil++
		}
	}
	return good, evil
}

func (g *Game) seated(role Role) bool {
	for _, p := range g.players {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (g *Game) finish(winner Faction, reason, target string) {
	g.outcome = &Outcome{Winner: winner, Reason: reason, AssassinTarget: target}
	g.phase = PhaseEnd
	g.changed()
}

// Assassinate lets the Assassin name Merlin after good has won three
// missions.
func (g *Game) Assassinate(secret, targetID string) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.auth(secret)
	if err != nil {
		return Outcome{}, err
	}
	if g.phase != PhaseAssassination {
		return Outcome{}, ErrWrongPhase
	}
	if p.Role != RoleAssassin {
		return Outcome{}, ErrNotAssassin
	}
	target := g.byID(targetID)
	if target == nil {
		return Outcome{}, ErrUnknownPlayer
	}
	// only partners the assassin can already see are refused
	if target == p || Perceive(p.Role, target.Role, g.enabled) == PerceiveSpy {
		return Outcome{}, ErrInvalidTarget
	}

	if target.Role == RoleMerlin {
		g.finish(FactionEvil, ReasonAssassination, target.ID)
	} else {
		g.finish(FactionGood, ReasonAssassination, target.ID)
	}
	return *g.outcome, nil
}

// ForceResolve closes the current vote or mission without waiting for
// the remaining players. Missing votes count as rejections and missing
// mission cards as successes. Nothing in this package calls it.
func (g *Game) ForceResolve() (ForcedOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ForcedOutcome{}, ErrNotFound
	}

	switch g.phase {
	case PhaseVoting:
		prop := g.currentRound().current()
		approves, rejects := prop.tally()
		rejects += len(g.players) - len(prop.Votes)
		vote := g.resolveVote(prop, approves, rejects)
		return ForcedOutcome{Vote: &vote}, nil
	case PhaseMission:
		mission := g.resolveMission(g.currentRound())
		return ForcedOutcome{Mission: &mission}, nil
	default:
		return ForcedOutcome{}, ErrWrongPhase
	}
}
