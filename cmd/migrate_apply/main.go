package main

import (
	"flag"
	"os"

	"avalon_webapp/internal/logger"
	"avalon_webapp/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply pending migrations")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	defer logger.Sync()

	if *apply {
		if err := migrations.Migrate(dsn); err != nil {
			logger.Fatal("migrate failed", "error", err)
		}
	}
	if err := migrations.Status(dsn); err != nil {
		logger.Fatal("migration status failed", "error", err)
	}
}
