package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

func TestJWTProviderRoundTrip(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	p := NewJWTProvider("s3cret", clk)
	user := uuid.New()

	token, err := p.Sign(user, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := p.ResolveToken(context.Background(), token)
	if err != nil || got != user {
		t.Fatalf("resolve: got=%s err=%v", got, err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := p.ResolveToken(context.Background(), token); !apierr.Is(err, apierr.KindUnauthenticated) {
		t.Fatalf("expired token: expected unauthenticated, got %v", err)
	}
}

func TestJWTProviderRejectsBadTokens(t *testing.T) {
	clk := clock.NewFake(time.Now())
	p := NewJWTProvider("s3cret", clk)
	other := NewJWTProvider("different", clk)

	forged, _ := other.Sign(uuid.New(), time.Hour)
	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}})
	badSub, _ := noSubject.SignedString([]byte("s3cret"))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	}}).SignedString([]byte("s3cret"))

	for name, tok := range map[string]string{
		"empty":      "",
		"garbage":    "abc.def.ghi",
		"forged":     forged,
		"bad_sub":    badSub,
		"no_expiry":  noExpiry,
		"whitespace": "   ",
	} {
		if _, err := p.ResolveToken(context.Background(), tok); !apierr.Is(err, apierr.KindUnauthenticated) {
			t.Fatalf("%s: expected unauthenticated, got %v", name, err)
		}
	}
}

func TestRemoteProvider(t *testing.T) {
	user := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id":"` + user.String() + `","email":"a@b.c"}`))
		case "Bearer down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	p, err := NewRemoteProvider(srv.Client(), srv.URL+"/", "anon", logger.Nop())
	if err != nil {
		t.Fatalf("NewRemoteProvider: %v", err)
	}
	got, err := p.ResolveToken(context.Background(), "good")
	if err != nil || got != user {
		t.Fatalf("good token: got=%s err=%v", got, err)
	}
	if _, err := p.ResolveToken(context.Background(), "bad"); !apierr.Is(err, apierr.KindUnauthenticated) {
		t.Fatalf("bad token: %v", err)
	}
	if _, err := p.ResolveToken(context.Background(), "down"); apierr.KindOf(err) != apierr.KindInternal {
		t.Fatalf("upstream failure should be internal, got %v", err)
	}
}

type countingProvider struct {
	calls  atomic.Int32
	user   uuid.UUID
	fail   bool
	expiry time.Time
}

func (c *countingProvider) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	c.calls.Add(1)
	if c.fail {
		return uuid.Nil, apierr.Unauthenticated("invalid_token", "nope")
	}
	return c.user, nil
}

func (c *countingProvider) TokenExpiry(string) (time.Time, bool) {
	return c.expiry, !c.expiry.IsZero()
}

func TestCachedProviderTTLAndFailures(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	next := &countingProvider{user: uuid.New()}
	c, err := NewCachedProvider(next, 2, time.Minute, clk)
	if err != nil {
		t.Fatalf("NewCachedProvider: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.ResolveToken(ctx, "tok"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}

	clk.Advance(61 * time.Second)
	_, _ = c.ResolveToken(ctx, "tok")
	if n := next.calls.Load(); n != 2 {
		t.Fatalf("expired entry should refetch, got %d calls", n)
	}

	next.fail = true
	for i := 0; i < 2; i++ {
		if _, err := c.ResolveToken(ctx, "other"); err == nil {
			t.Fatalf("failure should propagate")
		}
	}
	if n := next.calls.Load(); n != 4 {
		t.Fatalf("failures must not be cached, got %d calls", n)
	}
}

func TestCachedProviderHonoursTokenExpiryAndSize(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	next := &countingProvider{user: uuid.New(), expiry: start.Add(10 * time.Second)}
	c, _ := NewCachedProvider(next, 2, time.Hour, clk)
	ctx := context.Background()

	_, _ = c.ResolveToken(ctx, "a")
	clk.Advance(11 * time.Second)
	_, _ = c.ResolveToken(ctx, "a")
	if n := next.calls.Load(); n != 2 {
		t.Fatalf("token expiry should cap the ttl, got %d calls", n)
	}

	next.expiry = time.Time{}
	_, _ = c.ResolveToken(ctx, "b")
	_, _ = c.ResolveToken(ctx, "c")
	_, _ = c.ResolveToken(ctx, "d")
	if c.Len() > 2 {
		t.Fatalf("cache exceeded its size bound: %d", c.Len())
	}
}
