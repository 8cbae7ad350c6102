// Package identity resolves bearer tokens to stable user ids.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Provider interface {
	// ResolveToken returns the caller's user id or an Unauthenticated error.
	ResolveToken(ctx context.Context, token string) (uuid.UUID, error)
}

// Expirer is implemented by providers that can report when a token stops
// being valid without a round trip. The cache uses it to bound entry lifetime.
type Expirer interface {
	TokenExpiry(token string) (time.Time, bool)
}
