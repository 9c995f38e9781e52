package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"avalon_webapp/internal/domain"
	"avalon_webapp/internal/game"
	"avalon_webapp/internal/logger"
	"avalon_webapp/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GameStore persists snapshots of live games.
type GameStore interface {
	Save(ctx context.Context, g *domain.GameRecord) (bool, error)
	ListActive(ctx context.Context, since time.Time) ([]*domain.GameRecord, error)
	Delete(ctx context.Context, accessCode string) error
}

type EventStore interface {
	Create(ctx context.Context, e *domain.GameEvent) error
}

type HistoryStore interface {
	Create(ctx context.Context, gh *domain.GameHistory) error
}

// Notifier is told about every accepted change so connected clients can
// refresh their views.
type Notifier interface {
	GameChanged(accessCode string)
	GameClosed(accessCode string)
}

// Stores groups the optional persistence backends. A nil field disables
// that concern.
type Stores struct {
	Games   GameStore
	Events  EventStore
	History HistoryStore
}

// JoinResult is what a player needs to act in a game afterwards.
type JoinResult struct {
	AccessCode string `json:"access_code"`
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Secret     string `json:"secret"`
	Session    string `json:"session"`
}

// GameService runs player actions against the in-memory directory and
// mirrors accepted changes to storage and live clients. Memory is the
// source of truth: storage failures are logged and never fail an action.
type GameService struct {
	dir      *game.Directory
	stores   Stores
	notifier Notifier
	timeout  time.Duration
}

func NewGameService(dir *game.Directory, stores Stores, persistTimeout time.Duration) *GameService {
	if persistTimeout <= 0 {
		persistTimeout = 5 * time.Second
	}
	return &GameService{dir: dir, stores: stores, timeout: persistTimeout}
}

// NewGameServiceWithDB wires the Postgres repositories when db is set and
// runs memory-only otherwise.
func NewGameServiceWithDB(dir *game.Directory, db *pgxpool.Pool, persistTimeout time.Duration) *GameService {
	var stores Stores
	if db != nil {
		stores = Stores{
			Games:   repository.NewGameRepository(db),
			Events:  repository.NewGameEventRepository(db),
			History: repository.NewGameHistoryRepository(db),
		}
	}
	return NewGameService(dir, stores, persistTimeout)
}

// SetNotifier must be called before the service handles traffic.
func (s *GameService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *GameService) Directory() *game.Directory { return s.dir }

func (s *GameService) ActiveGames() int { return s.dir.Len() }

func (s *GameService) CreateGame(ctx context.Context, creatorName string) (JoinResult, error) {
	g, err := s.dir.Create()
	if err != nil {
		return JoinResult{}, s.observe(domain.EventCreate, err)
	}

	res, creds, err := seat(g, creatorName)
	if err != nil {
		s.dir.Remove(g.Code())
		return JoinResult{}, s.observe(domain.EventCreate, err)
	}

	GamesCreated.Inc()
	GamesActive.Set(float64(s.dir.Len()))
	logger.Info("game created", "code", g.Code(), "player_id", creds.PlayerID)
	s.after(ctx, g, domain.EventCreate, creds.PlayerID, map[string]any{"name": creds.Name})
	return res, s.observe(domain.EventCreate, nil)
}

// JoinGame seats a new player, or hands a returning player their seat back
// when the name is already seated and the holder has gone idle.
func (s *GameService) JoinGame(ctx context.Context, code, name string) (JoinResult, error) {
	g, err := s.dir.Get(code)
	if err != nil {
		return JoinResult{}, s.observe(domain.EventJoin, err)
	}

	res, creds, err := seat(g, name)
	if err != nil {
		return JoinResult{}, s.observe(domain.EventJoin, err)
	}

	s.after(ctx, g, domain.EventJoin, creds.PlayerID, map[string]any{"name": creds.Name})
	return res, s.observe(domain.EventJoin, nil)
}

func (s *GameService) Authenticate(code, secret string) (game.Credentials, error) {
	g, err := s.dir.Get(code)
	if err != nil {
		return game.Credentials{}, err
	}
	return g.Authenticate(secret)
}

func (s *GameService) LeaveGame(ctx context.Context, code, secret string) error {
	g, err := s.dir.Get(code)
	if err != nil {
		return s.observe(domain.EventLeave, err)
	}
	playerID := playerIDOf(g, secret)

	remaining, err := g.Leave(secret)
	if err != nil {
		return s.observe(domain.EventLeave, err)
	}

	if remaining == 0 && s.dir.RemoveIfEmpty(g.Code()) {
		s.closed(ctx, g.Code(), playerID)
		return s.observe(domain.EventLeave, nil)
	}

	s.after(ctx, g, domain.EventLeave, playerID, nil)
	return s.observe(domain.EventLeave, nil)
}

func (s *GameService) StartGame(ctx context.Context, code, secret string, cfg game.StartConfig) error {
	return s.act(ctx, code, secret, domain.EventStart,
		map[string]any{"roles": cfg.Roles, "display_history": cfg.DisplayHistory},
		func(g *game.Game) error { return g.Start(secret, cfg) })
}

// MarkReady reports whether the first round has begun.
func (s *GameService) MarkReady(ctx context.Context, code, secret string) (bool, error) {
	var begun bool
	err := s.act(ctx, code, secret, domain.EventReady, nil, func(g *game.Game) error {
		var err error
		begun, err = g.MarkReady(secret)
		return err
	})
	return begun, err
}

func (s *GameService) ChooseMember(ctx context.Context, code, secret string, round, proposal int, playerID string) error {
	return s.act(ctx, code, secret, domain.EventChoose,
		map[string]any{"round": round, "proposal": proposal, "member": playerID},
		func(g *game.Game) error { return g.ChooseMember(secret, round, proposal, playerID) })
}

func (s *GameService) RemoveMember(ctx context.Context, code, secret string, round, proposal int, playerID string) error {
	return s.act(ctx, code, secret, domain.EventRemove,
		map[string]any{"round": round, "proposal": proposal, "member": playerID},
		func(g *game.Game) error { return g.RemoveMember(secret, round, proposal, playerID) })
}

func (s *GameService) SubmitTeam(ctx context.Context, code, secret string, round, proposal int) error {
	return s.act(ctx, code, secret, domain.EventSubmitTeam,
		map[string]any{"round": round, "proposal": proposal},
		func(g *game.Game) error { return g.SubmitTeam(secret, round, proposal) })
}

func (s *GameService) ProposeTeam(ctx context.Context, code, secret string, round, proposal int, members []string) error {
	return s.act(ctx, code, secret, domain.EventPropose,
		map[string]any{"round": round, "proposal": proposal, "members": members},
		func(g *game.Game) error { return g.ProposeTeam(secret, round, proposal, members) })
}

func (s *GameService) CastVote(ctx context.Context, code, secret string, round, proposal int, approve bool) (game.VoteOutcome, error) {
	var out game.VoteOutcome
	err := s.act(ctx, code, secret, domain.EventVote,
		map[string]any{"round": round, "proposal": proposal},
		func(g *game.Game) error {
			var err error
			out, err = g.CastVote(secret, round, proposal, approve)
			return err
		})
	return out, err
}

// SubmitMission records a card. The card itself stays out of the event log.
func (s *GameService) SubmitMission(ctx context.Context, code, secret string, round int, success bool) (game.MissionOutcome, error) {
	var out game.MissionOutcome
	err := s.act(ctx, code, secret, domain.EventMission,
		map[string]any{"round": round},
		func(g *game.Game) error {
			var err error
			out, err = g.SubmitMission(secret, round, success)
			return err
		})
	return out, err
}

func (s *GameService) Assassinate(ctx context.Context, code, secret, targetID string) (game.Outcome, error) {
	var out game.Outcome
	err := s.act(ctx, code, secret, domain.EventAssassinate,
		map[string]any{"target": targetID},
		func(g *game.Game) error {
			var err error
			out, err = g.Assassinate(secret, targetID)
			return err
		})
	return out, err
}

// ForceResolve is an operator action and carries no player secret.
func (s *GameService) ForceResolve(ctx context.Context, code string) (game.ForcedOutcome, error) {
	g, err := s.dir.Get(code)
	if err != nil {
		return game.ForcedOutcome{}, s.observe(domain.EventForceResolve, err)
	}

	out, err := g.ForceResolve()
	if err != nil {
		return game.ForcedOutcome{}, s.observe(domain.EventForceResolve, err)
	}

	logger.Warn("game force-resolved", "code", g.Code())
	s.after(ctx, g, domain.EventForceResolve, "", nil)
	return out, s.observe(domain.EventForceResolve, nil)
}

func (s *GameService) GetGameView(_ context.Context, code, secret string) (game.GameView, error) {
	g, err := s.dir.Get(code)
	if err != nil {
		return game.GameView{}, err
	}
	return g.View(secret)
}

// Restore loads unfinished games touched after since. Snapshots that fail
// validation are skipped. It returns how many games were registered.
func (s *GameService) Restore(ctx context.Context, since time.Time) (int, error) {
	if s.stores.Games == nil {
		return 0, nil
	}

	records, err := s.stores.Games.ListActive(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list active games: %w", err)
	}

	restored := 0
	for _, rec := range records {
		var snap game.Snapshot
		if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
			logger.Warn("skipping unreadable snapshot", "code", rec.AccessCode, "error", err)
			continue
		}
		g, err := game.Restore(snap, s.dir.Options())
		if err != nil {
			logger.Warn("skipping invalid snapshot", "code", rec.AccessCode, "error", err)
			continue
		}
		if s.dir.Put(g) {
			restored++
		}
	}

	GamesActive.Set(float64(s.dir.Len()))
	logger.Info("games restored", "count", restored, "candidates", len(records))
	return restored, nil
}

func (s *GameService) act(ctx context.Context, code, secret, action string, details map[string]any, fn func(*game.Game) error) error {
	g, err := s.dir.Get(code)
	if err != nil {
		return s.observe(action, err)
	}
	if err := fn(g); err != nil {
		return s.observe(action, err)
	}
	s.after(ctx, g, action, playerIDOf(g, secret), details)
	return s.observe(action, nil)
}

func (s *GameService) observe(action string, err error) error {
	Actions.WithLabelValues(action, resultLabel(err)).Inc()
	if err != nil && !game.IsNotFound(err) && !game.IsValidation(err) {
		logger.Error("game action failed", "action", action, "error", err)
	}
	return err
}

// after mirrors an accepted change. The snapshot is taken after the action
// returned, so concurrent actions may both persist the later state; the
// version guard in storage drops whichever write arrives stale.
func (s *GameService) after(ctx context.Context, g *game.Game, action, playerID string, details map[string]any) {
	snap := g.Snapshot()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	s.persist(ctx, snap)
	s.record(ctx, snap.AccessCode, snap.Phase.String(), action, playerID, details)

	if snap.Phase == game.PhaseEnd && g.ClaimArchive() {
		s.archive(ctx, snap)
	}

	if s.notifier != nil {
		s.notifier.GameChanged(snap.AccessCode)
	}
}

func (s *GameService) closed(ctx context.Context, code, playerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	GamesActive.Set(float64(s.dir.Len()))
	logger.Info("game closed", "code", code)

	if s.stores.Games != nil {
		if err := s.stores.Games.Delete(ctx, code); err != nil {
			logger.Error("failed to delete game snapshot", "code", code, "error", err)
		}
	}
	s.record(ctx, code, game.PhaseLobby.String(), domain.EventLeave, playerID, nil)
	s.record(ctx, code, game.PhaseLobby.String(), domain.EventGameClosed, "", nil)

	if s.notifier != nil {
		s.notifier.GameClosed(code)
	}
}

func (s *GameService) persist(ctx context.Context, snap game.Snapshot) {
	if s.stores.Games == nil {
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		logger.Error("failed to encode snapshot", "code", snap.AccessCode, "error", err)
		return
	}

	written, err := s.stores.Games.Save(ctx, &domain.GameRecord{
		AccessCode: snap.AccessCode,
		Phase:      snap.Phase.String(),
		Version:    int64(snap.Version),
		Snapshot:   raw,
	})
	if err != nil {
		logger.Error("failed to persist game", "code", snap.AccessCode, "version", snap.Version, "error", err)
		return
	}
	if !written {
		logger.Debug("stale snapshot dropped", "code", snap.AccessCode, "version", snap.Version)
	}
}

func (s *GameService) record(ctx context.Context, code, phase, action, playerID string, details map[string]any) {
	if s.stores.Events == nil {
		return
	}
	e := &domain.GameEvent{
		AccessCode: code,
		PlayerID:   playerID,
		Action:     action,
		Phase:      phase,
		Details:    details,
	}
	if err := s.stores.Events.Create(ctx, e); err != nil {
		logger.Error("failed to record game event", "code", code, "action", action, "error", err)
	}
}

func (s *GameService) archive(ctx context.Context, snap game.Snapshot) {
	var winner, reason string
	if snap.Outcome != nil {
		winner, reason = snap.Outcome.Winner.String(), snap.Outcome.Reason
	}
	GamesFinished.WithLabelValues(winner, reason).Inc()
	logger.Info("game finished", "code", snap.AccessCode, "winner", winner, "reason", reason)

	if s.stores.History == nil {
		return
	}
	if err := s.stores.History.Create(ctx, historyOf(snap)); err != nil {
		logger.Error("failed to archive game", "code", snap.AccessCode, "error", err)
	}
}

func historyOf(snap game.Snapshot) *domain.GameHistory {
	gh := &domain.GameHistory{
		AccessCode:  snap.AccessCode,
		PlayerCount: len(snap.Players),
		Roster:      make([]domain.RosterEntry, 0, len(snap.Players)),
		Rounds:      make([]domain.RoundRecord, 0, len(snap.Rounds)),
	}
	if snap.Outcome != nil {
		gh.Winner = snap.Outcome.Winner.String()
		gh.Reason = snap.Outcome.Reason
	}
	for _, p := range snap.Players {
		gh.Roster = append(gh.Roster, domain.RosterEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Role:     p.Role.String(),
			Faction:  p.Role.Faction().String(),
		})
	}
	for _, r := range snap.Rounds {
		if r.Result == game.ResultUnset {
			continue
		}
		rec := domain.RoundRecord{Num: r.Num, Result: r.Result.String(), Proposals: len(r.Proposals)}
		if r.Mission != nil {
			for _, ok := range r.Mission.Submissions {
				if !ok {
					rec.Fails++
				}
			}
		}
		gh.Rounds = append(gh.Rounds, rec)
	}
	return gh
}

// seat joins name to g, signing the session before the seat is taken so a
// signing failure leaves the game as it was.
func seat(g *game.Game, name string) (JoinResult, game.Credentials, error) {
	var res JoinResult
	creds, err := g.JoinWith(name, func(c game.Credentials) error {
		var err error
		res, err = joinResult(c)
		return err
	})
	return res, creds, err
}

func joinResult(creds game.Credentials) (JoinResult, error) {
	session, err := GenerateSessionJWT(creds.AccessCode, creds.Secret)
	if err != nil {
		return JoinResult{}, fmt.Errorf("sign session: %w", err)
	}
	return JoinResult{
		AccessCode: creds.AccessCode,
		PlayerID:   creds.PlayerID,
		Name:       creds.Name,
		Secret:     creds.Secret,
		Session:    session,
	}, nil
}

func playerIDOf(g *game.Game, secret string) string {
	creds, err := g.Authenticate(secret)
	if err != nil {
		return ""
	}
	return creds.PlayerID
}
