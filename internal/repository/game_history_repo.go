package repository

import (
	"context"
	"encoding/json"

	"avalon_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameHistoryRepository struct {
	db *pgxpool.Pool
}

func NewGameHistoryRepository(db *pgxpool.Pool) *GameHistoryRepository {
	return &GameHistoryRepository{db: db}
}

// Create stores a finished game
func (r *GameHistoryRepository) Create(ctx context.Context, gh *domain.GameHistory) error {
	roundsJSON, err := json.Marshal(gh.Rounds)
	if err != nil {
		return err
	}
	rosterJSON, err := json.Marshal(gh.Roster)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO game_history (access_code, player_count, winner, reason, rounds, roster)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, finished_at`,
		gh.AccessCode,
		gh.PlayerCount,
		gh.Winner,
		gh.Reason,
		roundsJSON,
		rosterJSON,
	).Scan(&gh.ID, &gh.FinishedAt)
}

// Recent returns the latest finished games
func (r *GameHistoryRepository) Recent(ctx context.Context, limit int) ([]*domain.GameHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, access_code, player_count, winner, reason, rounds, roster, finished_at
		 FROM game_history
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

// ByAccessCode returns every finished game played under a code
func (r *GameHistoryRepository) ByAccessCode(ctx context.Context, accessCode string) ([]*domain.GameHistory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, access_code, player_count, winner, reason, rounds, roster, finished_at
		 FROM game_history
		 WHERE access_code = $1
		 ORDER BY finished_at DESC`,
		accessCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]*domain.GameHistory, error) {
	var res []*domain.GameHistory
	for rows.Next() {
		var gh domain.GameHistory
		var roundsJSON, rosterJSON []byte
		if err := rows.Scan(&gh.ID, &gh.AccessCode, &gh.PlayerCount, &gh.Winner, &gh.Reason, &roundsJSON, &rosterJSON, &gh.FinishedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(roundsJSON, &gh.Rounds)
		_ = json.Unmarshal(rosterJSON, &gh.Roster)
		res = append(res, &gh)
	}
	return res, rows.Err()
}
