package service

import (
	"avalon_webapp/internal/game"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	GamesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "avalon_games_created_total",
			Help: "Total games created",
		},
	)
	GamesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "avalon_games_active",
			Help: "Games currently held in memory",
		},
	)
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avalon_actions_total",
			Help: "Player actions by outcome",
		},
		[]string{"action", "result"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avalon_games_finished_total",
			Help: "Finished games by winning faction and reason",
		},
		[]string{"winner", "reason"},
	)
)

func init() {
	prometheus.MustRegister(GamesCreated)
	prometheus.MustRegister(GamesActive)
	prometheus.MustRegister(Actions)
	prometheus.MustRegister(GamesFinished)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case game.IsNotFound(err):
		return "not_found"
	case game.IsValidation(err):
		return "rejected"
	default:
		return "error"
	}
}
