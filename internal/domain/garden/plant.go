package garden

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStep is one milestone of a multi-step plant. Steps live inside the plant
// row as a JSON array, so step ids are only unique per plant.
type TaskStep struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	IsPartial   bool       `json:"is_partial"`
	WorkHours   float64    `json:"work_hours"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Plant is a task rendered as a plant on the user's grid.
//
// The composite partial unique index keeps at most one active plant per cell.
type Plant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_plant_active_cell,priority:1,where:is_active = true" json:"user_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Category    Category  `gorm:"column:category;not null;default:'work';index" json:"category"`
	PlantSprite string    `gorm:"column:plant_sprite" json:"plant_sprite,omitempty"`

	TaskStatus TaskStatus `gorm:"column:task_status;not null;index" json:"task_status"`
	PositionX  int        `gorm:"column:position_x;not null;uniqueIndex:idx_plant_active_cell,priority:2" json:"position_x"`
	PositionY  int        `gorm:"column:position_y;not null;uniqueIndex:idx_plant_active_cell,priority:3" json:"position_y"`

	GrowthLevel      int `gorm:"column:growth_level;not null;default:0" json:"growth_level"`
	ExperiencePoints int `gorm:"column:experience_points;not null;default:0" json:"experience_points"`
	TaskLevel        int `gorm:"column:task_level;not null;default:1" json:"task_level"`

	IsMultiStep    bool                         `gorm:"column:is_multi_step;not null;default:false" json:"is_multi_step"`
	TaskSteps      datatypes.JSONSlice[TaskStep] `gorm:"column:task_steps" json:"task_steps"`
	CompletedSteps int                          `gorm:"column:completed_steps;not null;default:0" json:"completed_steps"`
	TotalSteps     int                          `gorm:"column:total_steps;not null;default:0" json:"total_steps"`

	CurrentStreak   int         `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	DecayStatus     DecayStatus `gorm:"column:decay_status;not null;default:'healthy';index" json:"decay_status"`
	DaysWithoutCare int         `gorm:"column:days_without_care;not null;default:0" json:"days_without_care"`

	// Day values (midnight UTC of the garden calendar date).
	LastWorkedDate *time.Time `gorm:"column:last_worked_date" json:"last_worked_date,omitempty"`
	LastDecayDate  *time.Time `gorm:"column:last_decay_date" json:"last_decay_date,omitempty"`

	CompletionDate *time.Time `gorm:"column:completion_date;index" json:"completion_date,omitempty"`
	IsActive       bool       `gorm:"column:is_active;not null;index" json:"is_active"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Plant) TableName() string { return "plant" }

func (p *Plant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Plant) Stage() int {
	g := p.GrowthLevel
	if g < 0 {
		g = 0
	}
	if s := g / 20; s < 5 {
		return s
	}
	return 5
}

// RecountSteps refreshes the completed/total caches from TaskSteps.
func (p *Plant) RecountSteps() {
	done := 0
	for _, s := range p.TaskSteps {
		if s.IsCompleted {
			done++
		}
	}
	p.CompletedSteps = done
	p.TotalSteps = len(p.TaskSteps)
}

func (p *Plant) StepIndex(id uuid.UUID) int {
	for i := range p.TaskSteps {
		if p.TaskSteps[i].ID == id {
			return i
		}
	}
	return -1
}
