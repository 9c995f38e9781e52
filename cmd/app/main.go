package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avalon_webapp/internal/config"
	"avalon_webapp/internal/db"
	"avalon_webapp/internal/game"
	httpServer "avalon_webapp/internal/http"
	"avalon_webapp/internal/http/middleware"
	"avalon_webapp/internal/logger"
	"avalon_webapp/internal/migrations"
	"avalon_webapp/internal/service"
	"avalon_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

var version = "dev"

// games untouched for longer than this are not brought back on boot
const restoreWindow = 24 * time.Hour

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	if cfg.LogJSON {
		gin.SetMode(gin.ReleaseMode)
	}

	service.SetJWTSecret(cfg.JWTSecret)
	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		if err := migrations.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		dbPool = db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, games live in memory only")
	}

	dir := game.NewDirectory(game.Options{IdleExpiry: cfg.IdleExpiry()})
	games := service.NewGameServiceWithDB(dir, dbPool, cfg.PersistTimeout())
	hub := ws.NewHub(games)
	games.SetNotifier(hub)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := games.Restore(ctx, time.Now().Add(-restoreWindow)); err != nil {
		logger.Error("restore failed, starting empty", "error", err)
	}
	cancel()

	r := httpServer.NewRouter(httpServer.Deps{
		Games:   games,
		Hub:     hub,
		DB:      dbPool,
		Config:  cfg,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
