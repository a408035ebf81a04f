package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is loaded once at startup and treated as immutable afterwards.
// JWTSecret must come from the environment; it is never logged.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	RefreshCookieName string `env:"REFRESH_COOKIE_NAME" envDefault:"refreshToken"`
	RefreshCookiePath string `env:"REFRESH_COOKIE_PATH" envDefault:"/api/auth/"`

	SweepInterval  time.Duration `env:"AUTH_SWEEP_INTERVAL" envDefault:"1h"`
	SweepBatchSize int           `env:"AUTH_SWEEP_BATCH_SIZE" envDefault:"500"`

	LoginRateLimitMax    int           `env:"LOGIN_RATE_LIMIT_MAX" envDefault:"10"`
	LoginRateLimitWindow time.Duration `env:"LOGIN_RATE_LIMIT_WINDOW" envDefault:"1m"`

	CronSecret string `env:"CRON_SECRET"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`

	RunMigrations bool `env:"RUN_MIGRATIONS_ON_STARTUP" envDefault:"true"`
}

// Load parses the environment into a Config. When loadDotEnv is set, a local
// .env file is read first; missing files are ignored.
func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be blank")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("token TTLs must be positive")
	}
	if !strings.HasPrefix(cfg.RefreshCookiePath, "/") {
		return Config{}, fmt.Errorf("refresh cookie path must be absolute")
	}

	return cfg, nil
}
