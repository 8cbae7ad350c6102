package realtime

import (
	"context"
	"sync"

	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier is used when no Redis is configured.
func NewLogNotifier(baseLog *logger.Logger) Notifier {
	return &logNotifier{log: baseLog.With("service", "LogNotifier")}
}

func (n *logNotifier) Publish(ctx context.Context, ev Event) {
	n.log.Debug("garden event", "type", ev.Type, "user_id", ev.UserID, "plant_id", ev.PlantID, "data", ev.Data)
}

func (n *logNotifier) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(ctx context.Context, ev Event) {
	r.mu.Lock()
	r.Events = append(r.Events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Of(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
