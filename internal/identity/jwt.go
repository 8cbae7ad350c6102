package identity

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
)

type Claims struct {
	jwt.RegisteredClaims
}

// JWTProvider verifies HS256 tokens signed with a shared secret whose subject
// is the user id.
type JWTProvider struct {
	secret []byte
	clk    clock.Clock
}

func NewJWTProvider(secret string, clk clock.Clock) *JWTProvider {
	if clk == nil {
		clk = clock.Real{}
	}
	return &JWTProvider{secret: []byte(secret), clk: clk}
}

func (p *JWTProvider) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.clk.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apierr.Unauthenticated("invalid_token", "invalid or expired token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthenticated("invalid_token", "invalid or expired token")
	}
	return claims, nil
}

func (p *JWTProvider) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, apierr.Unauthenticated("missing_token", "missing bearer token")
	}
	claims, err := p.parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, apierr.Unauthenticated("invalid_subject", "token subject is not a user id")
	}
	return userID, nil
}

func (p *JWTProvider) TokenExpiry(token string) (time.Time, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Sign issues a token for userID; used by the CLI and tests.
func (p *JWTProvider) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := p.clk.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
