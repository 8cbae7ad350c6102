package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventXPGained       EventType = "xp.gained"
	EventLevelUp        EventType = "level.up"
	EventPlantCompleted EventType = "plant.completed"
	EventPlantHarvested EventType = "plant.harvested"
	EventPlantDied      EventType = "plant.died"
	EventPlantDecayed   EventType = "plant.decayed"
)

type Event struct {
	Type    EventType      `json:"type"`
	UserID  uuid.UUID      `json:"user_id"`
	PlantID *uuid.UUID     `json:"plant_id,omitempty"`
	At      time.Time      `json:"at"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier fans garden events out to whoever listens. Publish never fails the
// caller; delivery problems are logged by the implementation.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}
