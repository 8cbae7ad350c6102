package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("redislock: lock held elsewhere")

// Compare-and-delete so a lock that already expired and was taken by another
// replica is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Client struct {
	rdb    goredis.UniversalClient
	prefix string
}

func New(rdb goredis.UniversalClient, prefix string) *Client {
	if prefix == "" {
		prefix = "garden:lock:"
	}
	return &Client{rdb: rdb, prefix: prefix}
}

type Lock struct {
	c     *Client
	key   string
	token string
}

// TryAcquire takes key for ttl using SET NX PX. It returns ErrNotAcquired when
// another holder has it.
func (c *Client) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redislock not initialized")
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	full := c.prefix + key
	ok, err := c.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", full, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{c: c, key: full, token: token}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, l.c.rdb, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
