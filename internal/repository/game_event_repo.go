package repository

import (
	"context"
	"encoding/json"

	"avalon_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEventRepository stores the audit trail of player actions
type GameEventRepository struct {
	db *pgxpool.Pool
}

func NewGameEventRepository(db *pgxpool.Pool) *GameEventRepository {
	return &GameEventRepository{db: db}
}

// Create inserts a new event
func (r *GameEventRepository) Create(ctx context.Context, e *domain.GameEvent) error {
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO game_events (access_code, player_id, action, phase, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.AccessCode, e.PlayerID, e.Action, e.Phase, detailsJSON).Scan(&e.ID, &e.CreatedAt)
}

// ByAccessCode returns a game's events oldest first
func (r *GameEventRepository) ByAccessCode(ctx context.Context, accessCode string, limit int) ([]*domain.GameEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, access_code, player_id, action, phase, details, created_at
		FROM game_events
		WHERE access_code = $1
		ORDER BY id ASC
		LIMIT $2
	`, accessCode, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGameEvents(rows)
}

// ByAction returns the most recent events of one kind
func (r *GameEventRepository) ByAction(ctx context.Context, action string, limit int) ([]*domain.GameEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, access_code, player_id, action, phase, details, created_at
		FROM game_events
		WHERE action = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGameEvents(rows)
}

func scanGameEvents(rows pgx.Rows) ([]*domain.GameEvent, error) {
	var events []*domain.GameEvent
	for rows.Next() {
		var e domain.GameEvent
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &e.AccessCode, &e.PlayerID, &e.Action, &e.Phase, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
			e.Details = make(map[string]any)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
