package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

func TestRedisNotifierRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis notifier test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := NewRedisClient(ctx, addr)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	channel := "garden-test-" + uuid.NewString()
	got := make(chan Event, 1)
	if err := Subscribe(ctx, rdb, channel, logger.Nop(), func(ev Event) { got <- ev }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	n := NewRedisNotifier(rdb, channel, logger.Nop())
	user := uuid.New()
	n.Publish(ctx, Event{Type: EventLevelUp, UserID: user, At: time.Now().UTC(), Data: map[string]any{"level": 3}})

	select {
	case ev := <-got:
		if ev.Type != EventLevelUp || ev.UserID != user {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("no event received")
	}
}

func TestRecorderFilters(t *testing.T) {
	r := &Recorder{}
	r.Publish(context.Background(), Event{Type: EventXPGained})
	r.Publish(context.Background(), Event{Type: EventPlantDied})
	if len(r.Of(EventPlantDied)) != 1 || len(r.Of(EventLevelUp)) != 0 {
		t.Fatalf("Recorder.Of mismatch: %+v", r.Events)
	}
}
