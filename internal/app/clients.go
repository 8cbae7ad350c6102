package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/savioxavier/swe-group-7/internal/identity"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

// newRedis returns nil when REDIS_ADDR is unset.
func newRedis(ctx context.Context, cfg Config, log *logger.Logger) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; events go to the log and run-locks stay in-process")
		return nil, nil
	}
	rdb, err := realtime.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	log.Info("Redis connected", "addr", cfg.RedisAddr)
	return rdb, nil
}

func newNotifier(rdb *goredis.Client, cfg Config, log *logger.Logger) realtime.Notifier {
	if rdb == nil {
		return realtime.NewLogNotifier(log)
	}
	return realtime.NewRedisNotifier(rdb, cfg.RedisChannel, log)
}

func newIdentity(cfg IdentityConfig, clk clock.Clock, log *logger.Logger) (identity.Provider, error) {
	var next identity.Provider
	switch cfg.Mode {
	case "remote":
		remote, err := identity.NewRemoteProvider(nil, cfg.URL, cfg.APIKey, log)
		if err != nil {
			return nil, err
		}
		next = remote
	default:
		next = identity.NewJWTProvider(cfg.JWTSecret, clk)
	}
	if cfg.CacheSize <= 0 {
		return next, nil
	}
	cached, err := identity.NewCachedProvider(next, cfg.CacheSize, cfg.CacheTTL, clk)
	if err != nil {
		return nil, fmt.Errorf("identity cache: %w", err)
	}
	return cached, nil
}
