package identity

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/savioxavier/swe-group-7/internal/platform/clock"
)

type cacheEntry struct {
	userID  uuid.UUID
	expires time.Time
}

// CachedProvider memoizes successful resolutions in a size-bounded LRU. Entries
// live for ttl or until the token's own expiry, whichever comes first. Failures
// are never cached.
type CachedProvider struct {
	next  Provider
	cache *lru.Cache[[32]byte, cacheEntry]
	ttl   time.Duration
	clk   clock.Clock
}

func NewCachedProvider(next Provider, size int, ttl time.Duration, clk clock.Clock) (*CachedProvider, error) {
	if size <= 0 {
		size = 1024
	}
	if clk == nil {
		clk = clock.Real{}
	}
	c, err := lru.New[[32]byte, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, clk: clk}, nil
}

func (p *CachedProvider) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	key := sha256.Sum256([]byte(token))
	now := p.clk.Now()
	if e, ok := p.cache.Get(key); ok {
		if now.Before(e.expires) {
			return e.userID, nil
		}
		p.cache.Remove(key)
	}

	userID, err := p.next.ResolveToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	expires := now.Add(p.ttl)
	if ex, ok := p.next.(Expirer); ok {
		if at, ok := ex.TokenExpiry(token); ok && at.Before(expires) {
			expires = at
		}
	}
	if expires.After(now) {
		p.cache.Add(key, cacheEntry{userID: userID, expires: expires})
	}
	return userID, nil
}

func (p *CachedProvider) Len() int { return p.cache.Len() }
