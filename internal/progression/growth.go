package progression

import "github.com/savioxavier/swe-group-7/internal/domain/garden"

const (
	MaxGrowth      = 100
	GrowthPerStage = 20
	MaxStage       = 5
)

func ClampGrowth(g int) int {
	return min(MaxGrowth, max(0, g))
}

func StageFromGrowth(g int) int {
	return min(MaxStage, ClampGrowth(g)/GrowthPerStage)
}

// GrowthFromTaskLevel is the single-step growth curve.
func GrowthFromTaskLevel(taskLevel int) int {
	return ClampGrowth(taskLevel * GrowthPerStage)
}

// MilestoneGrowth is the multi-step growth curve: one stage per completed step.
func MilestoneGrowth(completedSteps int) int {
	return min(MaxStage, max(0, completedSteps)) * GrowthPerStage
}

// StepBonusXP is the user XP for completing a step.
func StepBonusXP(final bool, hours float64, xp garden.StepXP) int {
	bonus := xp.Intermediate
	if final {
		bonus = xp.Final
	}
	return bonus + HoursToXP(hours)
}

// SingleStepGrowth recomputes task level and growth from plant XP.
func SingleStepGrowth(xp int) (taskLevel, growth int) {
	taskLevel = TaskLevelFromXP(xp)
	return taskLevel, GrowthFromTaskLevel(taskLevel)
}
