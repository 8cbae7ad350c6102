package garden

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProgress is created lazily on a user's first XP event.
type UserProgress struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	TotalExperience        int `gorm:"column:total_experience;not null;default:0" json:"total_experience"`
	Level                  int `gorm:"column:level;not null;default:0" json:"level"`
	CurrentLevelExperience int `gorm:"column:current_level_experience;not null;default:0" json:"current_level_experience"`
	ExperienceToNextLevel  int `gorm:"column:experience_to_next_level;not null;default:0" json:"experience_to_next_level"`

	CurrentStreak  int `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak  int `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	TasksCompleted int `gorm:"column:tasks_completed;not null;default:0" json:"tasks_completed"`
	PlantsGrown    int `gorm:"column:plants_grown;not null;default:0" json:"plants_grown"`

	LastActivityDate *time.Time `gorm:"column:last_activity_date;index" json:"last_activity_date,omitempty"`
	LastDecayDate    *time.Time `gorm:"column:last_decay_date" json:"last_decay_date,omitempty"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (u *UserProgress) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NewUserProgress is the state of a user who has never earned XP.
func NewUserProgress(userID uuid.UUID) *UserProgress {
	return &UserProgress{
		UserID:                userID,
		ExperienceToNextLevel: 100,
	}
}
