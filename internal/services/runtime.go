package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/keylock"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

// maxAttempts bounds the read-modify-write retries on a version conflict.
const maxAttempts = 3

// Runtime is what every garden service shares: the database, time, tunables,
// the per-key locks and the outbound event/metric sinks.
type Runtime struct {
	DB       *gorm.DB
	Clock    clock.Clock
	Calendar clock.Calendar
	Balance  garden.Balance
	Locks    *keylock.Locker
	Metrics  *observability.Metrics
	Notifier realtime.Notifier
}

func NewRuntime(db *gorm.DB, clk clock.Clock, cal clock.Calendar, balance garden.Balance, metrics *observability.Metrics, notifier realtime.Notifier) *Runtime {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Runtime{
		DB:       db,
		Clock:    clk,
		Calendar: cal,
		Balance:  balance,
		Locks:    keylock.New(),
		Metrics:  metrics,
		Notifier: notifier,
	}
}

func (rt *Runtime) now() (time.Time, time.Time) {
	now := rt.Clock.Now()
	return now, rt.Calendar.DayOf(now)
}

func plantKey(id uuid.UUID) string      { return "plant:" + id.String() }
func progressKey(user uuid.UUID) string { return "progress:" + user.String() }
func cellKey(user uuid.UUID, x, y int) string {
	return fmt.Sprintf("cell:%s:%d:%d", user, x, y)
}

// outbox collects side effects that must only happen after a commit.
type outbox struct {
	events []realtime.Event
	after  []func()
}

func (o *outbox) emit(ev realtime.Event) { o.events = append(o.events, ev) }

func (o *outbox) then(fn func()) { o.after = append(o.after, fn) }

// mutate holds the given keys, runs fn in one transaction and retries it when
// an optimistic version check fails. Keys are taken in order before the
// transaction opens; callers always order plant keys before progress keys.
func (rt *Runtime) mutate(dbc dbctx.Context, op string, keys []string, fn func(tx dbctx.Context, out *outbox) error) error {
	ctx, span := observability.Tracer().Start(ctxutil.Default(dbc.Ctx), "garden."+op)
	defer span.End()

	for _, k := range keys {
		unlock, err := rt.Locks.Lock(ctx, k)
		if err != nil {
			return fmt.Errorf("lock %s: %w", k, err)
		}
		defer unlock()
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out := &outbox{}
		err = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}.DB(rt.DB).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx}, out)
		})
		if err == nil {
			rt.flush(ctx, out)
			span.SetAttributes(attribute.Int("garden.attempts", attempt))
			return nil
		}
		if !isVersionConflict(err) {
			break
		}
		rt.Metrics.VersionConflict(op)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (rt *Runtime) flush(ctx context.Context, out *outbox) {
	for _, fn := range out.after {
		fn()
	}
	if rt.Notifier == nil {
		return
	}
	for _, ev := range out.events {
		rt.Notifier.Publish(ctx, ev)
	}
}

func isVersionConflict(err error) bool {
	return apierr.Is(err, apierr.KindConflict) && apierr.CodeOf(err) == "version_conflict"
}

func plantEvent(t realtime.EventType, p *garden.Plant, at time.Time, data map[string]any) realtime.Event {
	id := p.ID
	return realtime.Event{Type: t, UserID: p.UserID, PlantID: &id, At: at, Data: data}
}
