// Package progression holds the XP, level, growth and decay math. Nothing here
// does I/O or returns errors; out-of-range inputs are clamped.
package progression

import "math"

const (
	XPPerHour      = 100
	BaseLevelCost  = 100
	LevelCostStep  = 20
	LevelCap       = 1000
	StreakDayValue = 20

	userDecayBase = 20
	userDecayCap  = 100
)

// HoursToXP floors hours*100. The epsilon keeps values such as 0.29h from
// landing one point short through float rounding.
func HoursToXP(hours float64) int {
	if hours <= 0 {
		return 0
	}
	return int(math.Floor(hours*XPPerHour + 1e-9))
}

func LevelUpRequirement(level int) int {
	return BaseLevelCost + LevelCostStep*level
}

type Level struct {
	Level   int `json:"level"`
	Current int `json:"current_level_experience"`
	ToNext  int `json:"experience_to_next_level"`
}

// LevelFromXP consumes XP tier by tier starting at level 0.
func LevelFromXP(total int) Level {
	if total < 0 {
		return Level{Level: 0, Current: 0, ToNext: LevelUpRequirement(0)}
	}
	level, rest := consumeTiers(total, 0)
	return Level{Level: level, Current: rest, ToNext: LevelUpRequirement(level) - rest}
}

// TaskLevelFromXP runs the same tiering on a track that starts at level 1.
func TaskLevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level, _ := consumeTiers(xp, 1)
	return level
}

func consumeTiers(xp, start int) (level, rest int) {
	level, rest = start, xp
	for i := 0; i < LevelCap; i++ {
		cost := LevelUpRequirement(level)
		if rest < cost {
			break
		}
		rest -= cost
		level++
	}
	return level, rest
}

// ApplyXP adds delta to total, never going below zero.
func ApplyXP(total, delta int) int {
	if n := total + delta; n > 0 {
		return n
	}
	return 0
}

// DailyDecay is the user-level passive decay, capped at 100.
func DailyDecay(level int) int {
	return min(userDecayCap, userDecayBase+level)
}

func StreakProtection(streakDays int) int {
	if streakDays < 0 {
		return 0
	}
	return streakDays * StreakDayValue
}

func NetDecay(level, streak int) int {
	return max(0, DailyDecay(level)-StreakProtection(streak))
}

// GapPenalty is the XP a user loses for missedDays uncovered days, charging one
// NetDecay per day and re-deriving the level as XP falls.
func GapPenalty(totalXP, streak, missedDays int) int {
	xp := totalXP
	for d := 0; d < missedDays && xp > 0; d++ {
		xp = ApplyXP(xp, -NetDecay(LevelFromXP(xp).Level, streak))
	}
	return totalXP - xp
}
