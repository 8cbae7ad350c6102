package garden

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type CareXP struct {
	Water        int `yaml:"water"`
	Fertilize    int `yaml:"fertilize"`
	TaskComplete int `yaml:"task_complete"`
}

func (c CareXP) For(t CareType) (int, bool) {
	switch t {
	case CareWater:
		return c.Water, true
	case CareFertilize:
		return c.Fertilize, true
	case CareTaskComplete:
		return c.TaskComplete, true
	default:
		return 0, false
	}
}

type StepXP struct {
	Intermediate int `yaml:"intermediate"`
	Final        int `yaml:"final"`
}

// Balance holds the gameplay tunables. The XP/level/decay formulas themselves
// are fixed in package progression.
type Balance struct {
	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`

	AutoHarvestDelay time.Duration `yaml:"auto_harvest_delay"`
	// HarvestUntrackedTrophies lets a forced harvest also take stage-5 plants
	// that were never explicitly completed.
	HarvestUntrackedTrophies bool `yaml:"harvest_untracked_trophies"`

	CareXP            CareXP  `yaml:"care_xp"`
	StepXP            StepXP  `yaml:"step_xp"`
	CompletionBonusXP int     `yaml:"completion_bonus_xp"`
	MaxHoursPerLog    float64 `yaml:"max_hours_per_log"`
}

func DefaultBalance() Balance {
	return Balance{
		GridWidth:        6,
		GridHeight:       5,
		AutoHarvestDelay: 6 * time.Hour,
		CareXP: CareXP{
			Water:        5,
			Fertilize:    10,
			TaskComplete: 15,
		},
		StepXP: StepXP{
			Intermediate: 25,
			Final:        50,
		},
		CompletionBonusXP: 20,
		MaxHoursPerLog:    24,
	}
}

// LoadBalance reads a YAML balance file over the defaults. An empty path
// returns the defaults.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("parse balance file %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

func (b Balance) Validate() error {
	switch {
	case b.GridWidth < 1 || b.GridHeight < 1:
		return fmt.Errorf("balance: grid must be at least 1x1, got %dx%d", b.GridWidth, b.GridHeight)
	case b.AutoHarvestDelay < 0:
		return fmt.Errorf("balance: auto_harvest_delay must not be negative")
	case b.CareXP.Water < 0 || b.CareXP.Fertilize < 0 || b.CareXP.TaskComplete < 0:
		return fmt.Errorf("balance: care_xp values must not be negative")
	case b.StepXP.Intermediate < 0 || b.StepXP.Final < 0:
		return fmt.Errorf("balance: step_xp values must not be negative")
	case b.CompletionBonusXP < 0:
		return fmt.Errorf("balance: completion_bonus_xp must not be negative")
	case b.MaxHoursPerLog <= 0 || b.MaxHoursPerLog > 24:
		return fmt.Errorf("balance: max_hours_per_log must be in (0, 24]")
	}
	return nil
}

func (b Balance) InGrid(x, y int) bool {
	return x >= 0 && x < b.GridWidth && y >= 0 && y < b.GridHeight
}
