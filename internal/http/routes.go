package http

import (
	"time"

	"avalon_webapp/internal/config"
	"avalon_webapp/internal/http/handlers"
	"avalon_webapp/internal/http/middleware"
	"avalon_webapp/internal/service"
	"avalon_webapp/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from. DB may be nil.
type Deps struct {
	Games   *service.GameService
	Hub     *ws.Hub
	DB      *pgxpool.Pool
	Config  *config.Config
	Version string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	h := handlers.NewHandler(d.Games, cfg.PublicBaseURL)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Games, d.Version)

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.IPRateLimit(cfg.APIRateLimit, cfg.APIRateWindow()))

	v1.POST("/games", h.CreateGame)
	v1.POST("/games/:code/join", h.JoinGame)
	v1.GET("/games/:code/qr", h.JoinQR)

	// Player routes: the session token must belong to :code
	player := v1.Group("/games/:code")
	player.Use(middleware.Session(d.Games))
	player.GET("", h.GetGame)
	player.GET("/ws", h.WS(d.Hub, ws.NewUpgrader(cfg.AllowedOrigins)))

	actions := player.Group("")
	actions.Use(middleware.PlayerRateLimit(cfg.ActionRateLimit, cfg.ActionRateWindow()))
	{
		actions.POST("/leave", h.LeaveGame)
		actions.POST("/start", h.StartGame)
		actions.POST("/ready", h.MarkReady)
		actions.POST("/choose", h.ChooseMember)
		actions.POST("/remove", h.RemoveMember)
		actions.POST("/submit-team", h.SubmitTeam)
		actions.POST("/propose", h.ProposeTeam)
		actions.POST("/vote", h.CastVote)
		actions.POST("/mission", h.SubmitMission)
		actions.POST("/assassinate", h.Assassinate)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	admin.POST("/games/:code/force-resolve", h.ForceResolve)
}
