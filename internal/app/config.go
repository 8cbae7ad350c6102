package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/savioxavier/swe-group-7/internal/data/db"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/envutil"
	"github.com/savioxavier/swe-group-7/internal/scheduler"
	"github.com/savioxavier/swe-group-7/internal/temporalx"
)

type IdentityConfig struct {
	Mode      string // jwt | remote
	JWTSecret string
	URL       string
	APIKey    string
	CacheSize int
	CacheTTL  time.Duration
}

type SchedulerConfig struct {
	Enabled       bool
	DecayAt       string
	HarvestAt     string
	RatePerSecond float64
	LockTTL       time.Duration
}

type Config struct {
	Port        string
	LogMode     string
	CORSOrigins []string

	DB       db.Config
	Identity IdentityConfig

	RedisAddr    string
	RedisChannel string

	TimeZone    string
	BalanceFile string

	Scheduler SchedulerConfig
	Temporal  temporalx.Config
	Otel      observability.OtelConfig
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "")),
		DB: db.Config{
			Driver: envutil.String("DB_DRIVER", "postgres"),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost"),
				Port:     envutil.String("POSTGRES_PORT", "5432"),
				User:     envutil.String("POSTGRES_USER", "postgres"),
				Password: envutil.String("POSTGRES_PASSWORD", ""),
				Name:     envutil.String("POSTGRES_NAME", "garden"),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "garden.db"),
		},
		Identity: IdentityConfig{
			Mode:      strings.ToLower(envutil.String("IDENTITY_MODE", "jwt")),
			JWTSecret: envutil.String("JWT_SECRET", ""),
			URL:       envutil.String("IDENTITY_URL", ""),
			APIKey:    envutil.String("IDENTITY_API_KEY", ""),
			CacheSize: envutil.Int("IDENTITY_CACHE_SIZE", 4096),
			CacheTTL:  envutil.Duration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", "garden-events"),
		TimeZone:     envutil.String("GARDEN_TIMEZONE", "UTC"),
		BalanceFile:  envutil.String("GARDEN_BALANCE_FILE", ""),
		Scheduler: SchedulerConfig{
			Enabled:       envutil.Bool("SCHEDULER_ENABLED", true),
			DecayAt:       envutil.String("DECAY_AT", "00:01"),
			HarvestAt:     envutil.String("HARVEST_AT", "00:05"),
			RatePerSecond: envutil.Float("SWEEP_RATE_PER_SECOND", 0),
			LockTTL:       envutil.Duration("SCHEDULER_LOCK_TTL", 30*time.Minute),
		},
		Temporal: temporalx.LoadConfig(),
		Otel:     observability.OtelConfigFromEnv(),
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	switch c.Identity.Mode {
	case "jwt":
		if c.Identity.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when IDENTITY_MODE=jwt")
		}
	case "remote":
		if c.Identity.URL == "" {
			return fmt.Errorf("IDENTITY_URL is required when IDENTITY_MODE=remote")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_MODE %q", c.Identity.Mode)
	}

	dh, dm, err := scheduler.ParseClock(c.Scheduler.DecayAt)
	if err != nil {
		return fmt.Errorf("DECAY_AT: %w", err)
	}
	hh, hm, err := scheduler.ParseClock(c.Scheduler.HarvestAt)
	if err != nil {
		return fmt.Errorf("HARVEST_AT: %w", err)
	}
	c.Temporal.TimeZone = c.TimeZone
	c.Temporal.DecayCron = temporalx.CronFromClock(dh, dm)
	c.Temporal.HarvestCron = temporalx.CronFromClock(hh, hm)
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
