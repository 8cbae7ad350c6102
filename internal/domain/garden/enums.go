package garden

import "strings"

type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusHarvested TaskStatus = "harvested"
)

type DecayStatus string

// Ordered by severity.
const (
	DecayHealthy        DecayStatus = "healthy"
	DecaySlightlyWilted DecayStatus = "slightly_wilted"
	DecayWilted         DecayStatus = "wilted"
	DecaySeverelyWilted DecayStatus = "severely_wilted"
	DecayDead           DecayStatus = "dead"
)

func (s DecayStatus) Severity() int {
	switch s {
	case DecaySlightlyWilted:
		return 1
	case DecayWilted:
		return 2
	case DecaySeverelyWilted:
		return 3
	case DecayDead:
		return 4
	default:
		return 0
	}
}

// Category is cosmetic classification only; it has no gameplay effect.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategoryExercise Category = "exercise"
	CategorySelfcare Category = "selfcare"
	CategoryCreative Category = "creative"
)

var categories = map[Category]struct{}{
	CategoryWork:     {},
	CategoryStudy:    {},
	CategoryExercise: {},
	CategorySelfcare: {},
	CategoryCreative: {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// ParseCategory normalizes user input and the legacy plant_type /
// productivity_category spellings ("self-care", "Self Care").
func ParseCategory(raw string) (Category, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	c := Category(s)
	return c, c.Valid()
}

type CareType string

const (
	CareWater        CareType = "water"
	CareFertilize    CareType = "fertilize"
	CareTaskComplete CareType = "task_complete"
)

type SweepKind string

const (
	SweepDecay   SweepKind = "decay"
	SweepHarvest SweepKind = "harvest"
)

// ActivityKind tells progress bookkeeping which counters an XP event touches.
type ActivityKind string

const (
	ActivityWork       ActivityKind = "work"
	ActivityCare       ActivityKind = "care"
	ActivityStep       ActivityKind = "step"
	ActivityCompletion ActivityKind = "completion"
	ActivityHarvest    ActivityKind = "harvest"
)
