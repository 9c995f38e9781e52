package config

import (
	"strings"
	"time"

	"avalon_webapp/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort       string `mapstructure:"app_port"`
	LogLevel      string `mapstructure:"log_level"`
	LogJSON       bool   `mapstructure:"log_json"`
	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminKey      string `mapstructure:"admin_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	AllowedOriginsRaw string   `mapstructure:"allowed_origins"`
	AllowedOrigins    []string `mapstructure:"-"`

	// Session directory
	IdleExpirySeconds     int `mapstructure:"idle_expiry_seconds"`
	PersistTimeoutSeconds int `mapstructure:"persist_timeout_seconds"`

	// Rate limits
	APIRateLimit         int `mapstructure:"api_rate_limit"`
	APIRateWindowSeconds int `mapstructure:"api_rate_window_seconds"`
	ActionRateLimit      int `mapstructure:"action_rate_limit"`
	ActionRateWindowSecs int `mapstructure:"action_rate_window_seconds"`
}

var defaults = map[string]any{
	"app_port":                   "8080",
	"log_level":                  "info",
	"log_json":                   false,
	"database_url":               "",
	"redis_addr":                 "",
	"redis_password":             "",
	"redis_db":                   0,
	"jwt_secret":                 "",
	"admin_key":                  "",
	"public_base_url":            "http://localhost:8080",
	"allowed_origins":            "",
	"idle_expiry_seconds":        30,
	"persist_timeout_seconds":    5,
	"api_rate_limit":             120,
	"api_rate_window_seconds":    60,
	"action_rate_limit":          60,
	"action_rate_window_seconds": 60,
}

// Load reads .env (if any) and the environment into Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := load(viper.New())
	if err != nil {
		logger.Fatal("failed to parse config", "error", err)
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
		// AutomaticEnv only resolves keys viper already knows about
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(cfg.AllowedOriginsRaw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.IdleExpirySeconds <= 0 {
		cfg.IdleExpirySeconds = 30
	}
	if cfg.PersistTimeoutSeconds <= 0 {
		cfg.PersistTimeoutSeconds = 5
	}
	if cfg.APIRateLimit <= 0 {
		cfg.APIRateLimit = 120
	}
	if cfg.APIRateWindowSeconds <= 0 {
		cfg.APIRateWindowSeconds = 60
	}
	if cfg.ActionRateLimit <= 0 {
		cfg.ActionRateLimit = 60
	}
	if cfg.ActionRateWindowSecs <= 0 {
		cfg.ActionRateWindowSecs = 60
	}
	return &cfg, nil
}

func (c *Config) IdleExpiry() time.Duration {
	return time.Duration(c.IdleExpirySeconds) * time.Second
}

func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.PersistTimeoutSeconds) * time.Second
}

func (c *Config) APIRateWindow() time.Duration {
	return time.Duration(c.APIRateWindowSeconds) * time.Second
}

func (c *Config) ActionRateWindow() time.Duration {
	return time.Duration(c.ActionRateWindowSecs) * time.Second
}
