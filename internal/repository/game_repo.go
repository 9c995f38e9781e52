package repository

import (
	"context"
	"errors"
	"time"

	"avalon_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// Save upserts a snapshot. Writes carrying an older version than the stored
// row are ignored; the return value reports whether the row was written.
func (r *GameRepository) Save(ctx context.Context, g *domain.GameRecord) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO games (access_code, phase, version, snapshot)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (access_code) DO UPDATE
		 SET phase = EXCLUDED.phase,
		     version = EXCLUDED.version,
		     snapshot = EXCLUDED.snapshot,
		     updated_at = now()
		 WHERE games.version < EXCLUDED.version`,
		g.AccessCode,
		g.Phase,
		g.Version,
		[]byte(g.Snapshot),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *GameRepository) Get(ctx context.Context, accessCode string) (*domain.GameRecord, error) {
	var g domain.GameRecord
	var snapshot []byte
	err := r.db.QueryRow(ctx,
		`SELECT access_code, phase, version, snapshot, created_at, updated_at
		 FROM games
		 WHERE access_code = $1`,
		accessCode,
	).Scan(&g.AccessCode, &g.Phase, &g.Version, &snapshot, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Snapshot = snapshot
	return &g, nil
}

// ListActive returns games that are not finished and were touched after since.
func (r *GameRepository) ListActive(ctx context.Context, since time.Time) ([]*domain.GameRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT access_code, phase, version, snapshot, created_at, updated_at
		 FROM games
		 WHERE phase <> 'end' AND updated_at >= $1
		 ORDER BY updated_at DESC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.GameRecord
	for rows.Next() {
		var g domain.GameRecord
		var snapshot []byte
		if err := rows.Scan(&g.AccessCode, &g.Phase, &g.Version, &snapshot, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.Snapshot = snapshot
		res = append(res, &g)
	}
	return res, rows.Err()
}

func (r *GameRepository) Delete(ctx context.Context, accessCode string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM games WHERE access_code = $1`, accessCode)
	return err
}
