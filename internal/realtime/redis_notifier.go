package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type redisNotifier struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisClient dials addr and pings it so a bad REDIS_ADDR fails at boot.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisNotifier(rdb goredis.UniversalClient, channel string, baseLog *logger.Logger) Notifier {
	if channel == "" {
		channel = "garden-events"
	}
	return &redisNotifier{
		log:     baseLog.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: channel,
	}
}

func (n *redisNotifier) Publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		n.log.Warn("marshal garden event", "type", ev.Type, "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("publish garden event", "type", ev.Type, "channel", n.channel, "error", err)
	}
}

func (n *redisNotifier) Close() error { return nil }

// Subscribe forwards decoded events to onEvent until ctx is done.
func Subscribe(ctx context.Context, rdb goredis.UniversalClient, channel string, log *logger.Logger, onEvent func(Event)) error {
	sub := rdb.Subscribe(ctx, channel)
	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn("bad garden event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}
