package garden

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskTimeLog is appended on every work log.
type TaskTimeLog struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PlantID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"plant_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	StepID           *uuid.UUID `gorm:"type:uuid;column:step_id" json:"step_id,omitempty"`
	Hours            float64    `gorm:"column:hours;not null" json:"hours"`
	ExperienceGained int        `gorm:"column:experience_gained;not null" json:"experience_gained"`
	WorkDate         time.Time  `gorm:"column:work_date;not null;index" json:"work_date"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
}

func (TaskTimeLog) TableName() string { return "task_time_log" }

func (l *TaskTimeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type PlantCareLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlantID          uuid.UUID `gorm:"type:uuid;not null;index" json:"plant_id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CareType         CareType  `gorm:"column:care_type;not null" json:"care_type"`
	ExperienceGained int       `gorm:"column:experience_gained;not null" json:"experience_gained"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (PlantCareLog) TableName() string { return "plant_care_log" }

func (l *PlantCareLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SweepRun is the audit row of one decay or harvest sweep.
type SweepRun struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       SweepKind                   `gorm:"column:kind;not null;index" json:"kind"`
	Day        time.Time                   `gorm:"column:day;not null;index" json:"day"`
	Forced     bool                        `gorm:"column:forced;not null" json:"forced"`
	StartedAt  time.Time                   `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time                  `gorm:"column:finished_at" json:"finished_at,omitempty"`
	Processed  int                         `gorm:"column:processed;not null" json:"processed"`
	Changed    int                         `gorm:"column:changed;not null" json:"changed"`
	Failed     int                         `gorm:"column:failed;not null" json:"failed"`
	Errors     datatypes.JSONSlice[string] `gorm:"column:errors" json:"errors,omitempty"`
}

func (SweepRun) TableName() string { return "sweep_run" }

func (r *SweepRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false" json:"version"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	AppliedAt time.Time `gorm:"column:applied_at;not null" json:"applied_at"`
}

func (SchemaMigration) TableName() string { return "schema_migration" }
