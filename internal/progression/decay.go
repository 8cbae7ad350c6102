package progression

import (
	"time"

	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
)

func DecayStatusFor(daysWithoutCare int) garden.DecayStatus {
	switch {
	case daysWithoutCare <= 1:
		return garden.DecayHealthy
	case daysWithoutCare <= 3:
		return garden.DecaySlightlyWilted
	case daysWithoutCare <= 5:
		return garden.DecayWilted
	case daysWithoutCare <= 7:
		return garden.DecaySeverelyWilted
	default:
		return garden.DecayDead
	}
}

// VisualPenalty stacks the wilt penalty on top of a computed growth level.
func VisualPenalty(status garden.DecayStatus, growth int) int {
	switch status {
	case garden.DecayWilted:
		return max(0, growth-20)
	case garden.DecaySeverelyWilted:
		return max(0, growth-40)
	case garden.DecayDead:
		return 0
	default:
		return growth
	}
}

// PlantStreakProtection caps protection at the plant's task level.
func PlantStreakProtection(streak, taskLevel int) int {
	return max(0, min(streak, taskLevel)) * StreakDayValue
}

func PlantDailyDecay(taskLevel int) int {
	return StreakDayValue * taskLevel
}

type PlantDecayInput struct {
	ExperiencePoints int
	TaskLevel        int
	CurrentStreak    int
	DaysWithoutCare  int
	IsMultiStep      bool
	CompletedSteps   int

	// DaysSinceWork counts calendar days since last work (or creation).
	DaysSinceWork int
	// DaysAlreadyDecayed is the part of DaysSinceWork an earlier sweep charged.
	DaysAlreadyDecayed int
}

type PlantDecayResult struct {
	Changed bool

	ExperiencePoints int
	TaskLevel        int
	GrowthLevel      int
	CurrentStreak    int
	DaysWithoutCare  int
	DecayStatus      garden.DecayStatus
	Died             bool

	DaysCharged int
	XPLost      int
}

// PlantDecay ages a plant that was not worked today. Only days not yet charged
// are applied, so re-running it for the same day is a no-op.
func PlantDecay(in PlantDecayInput) PlantDecayResult {
	taskLevel := max(1, in.TaskLevel)
	if !in.IsMultiStep {
		taskLevel = TaskLevelFromXP(in.ExperiencePoints)
	}
	days := in.DaysSinceWork - max(0, in.DaysAlreadyDecayed)
	if in.DaysSinceWork <= 0 || days <= 0 {
		growth := MilestoneGrowth(in.CompletedSteps)
		if !in.IsMultiStep {
			growth = GrowthFromTaskLevel(taskLevel)
		}
		status := DecayStatusFor(in.DaysWithoutCare)
		return PlantDecayResult{
			ExperiencePoints: in.ExperiencePoints,
			TaskLevel:        taskLevel,
			GrowthLevel:      VisualPenalty(status, growth),
			CurrentStreak:    in.CurrentStreak,
			DaysWithoutCare:  in.DaysWithoutCare,
			DecayStatus:      status,
			Died:             status == garden.DecayDead,
		}
	}

	out := PlantDecayResult{Changed: true, DaysCharged: days, ExperiencePoints: in.ExperiencePoints}
	var growth int
	if in.IsMultiStep {
		out.TaskLevel = taskLevel
		growth = MilestoneGrowth(in.CompletedSteps)
	} else {
		perDay := max(0, PlantDailyDecay(taskLevel)-PlantStreakProtection(in.CurrentStreak, taskLevel))
		out.ExperiencePoints = max(0, in.ExperiencePoints-perDay*days)
		out.XPLost = in.ExperiencePoints - out.ExperiencePoints
		out.TaskLevel, growth = SingleStepGrowth(out.ExperiencePoints)
	}

	out.DaysWithoutCare = max(0, in.DaysWithoutCare) + days
	out.DecayStatus = DecayStatusFor(out.DaysWithoutCare)
	out.GrowthLevel = VisualPenalty(out.DecayStatus, growth)

	// One missed day is free; each further day erodes the streak by one.
	owed := max(0, in.DaysSinceWork-1) - max(0, in.DaysAlreadyDecayed-1)
	out.CurrentStreak = max(0, in.CurrentStreak-owed)

	out.Died = out.DecayStatus == garden.DecayDead
	return out
}

// NextPlantStreak is the per-plant streak after a work event today.
func NextPlantStreak(streak int, lastWorked *time.Time, today time.Time) int {
	if lastWorked == nil {
		return 1
	}
	switch d := clock.DaysBetween(*lastWorked, today); {
	case d <= 0:
		return max(1, streak)
	case d == 1:
		return streak + 1
	default:
		return 1
	}
}

type UserStreak struct {
	Current int
	Longest int
	// Gap is the day distance to the previous activity when the streak broke.
	Gap int
}

// NextUserStreak is the user streak after an XP-granting action today.
func NextUserStreak(streak, longest int, lastActivity *time.Time, today time.Time) UserStreak {
	if lastActivity == nil {
		return UserStreak{Current: 1, Longest: max(longest, 1)}
	}
	switch d := clock.DaysBetween(*lastActivity, today); {
	case d <= 0:
		return UserStreak{Current: streak, Longest: longest}
	case d == 1:
		return UserStreak{Current: streak + 1, Longest: max(longest, streak+1)}
	default:
		return UserStreak{Current: 1, Longest: max(longest, 1), Gap: d}
	}
}
