package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"avalon_webapp/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

func open(pgurl string) (*sql.DB, error) {
	db, err := sql.Open("pgx", pgurl)
	if err != nil {
		return nil, fmt.Errorf("open db for migrations: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration.
func Migrate(pgurl string) error {
	db, err := open(pgurl)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run up migrations: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}

// Status prints the applied state of each migration.
func Status(pgurl string) error {
	db, err := open(pgurl)
	if err != nil {
		return err
	}
	defer db.Close()

	return goose.Status(db, ".")
}
