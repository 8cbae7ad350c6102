package progression

import "testing"

func TestHoursToXP(t *testing.T) {
	cases := []struct {
		hours float64
		want  int
	}{
		{0.5, 50},
		{1, 100},
		{0.29, 29},
		{2.345, 234},
		{24, 2400},
		{0, 0},
		{-1, 0},
	}
	for _, tc := range cases {
		if got := HoursToXP(tc.hours); got != tc.want {
			t.Fatalf("HoursToXP(%v): got=%d want=%d", tc.hours, got, tc.want)
		}
	}
}

func TestLevelFromXPBoundaries(t *testing.T) {
	cases := []struct {
		xp   int
		want Level
	}{
		{-50, Level{0, 0, 100}},
		{0, Level{0, 0, 100}},
		{99, Level{0, 99, 1}},
		{100, Level{1, 0, 120}},
		{219, Level{1, 119, 1}},
		{220, Level{2, 0, 140}},
		{360, Level{3, 0, 160}},
	}
	for _, tc := range cases {
		if got := LevelFromXP(tc.xp); got != tc.want {
			t.Fatalf("LevelFromXP(%d): got=%+v want=%+v", tc.xp, got, tc.want)
		}
	}
}

func TestLevelMonotonicAndDecomposes(t *testing.T) {
	prev := LevelFromXP(0)
	for xp := 0; xp <= 50000; xp += 37 {
		lv := LevelFromXP(xp)
		if lv.Level < prev.Level {
			t.Fatalf("level dropped at xp=%d: %d < %d", xp, lv.Level, prev.Level)
		}
		if lv.Current < 0 || lv.Current+lv.ToNext != LevelUpRequirement(lv.Level) {
			t.Fatalf("decomposition broken at xp=%d: %+v", xp, lv)
		}
		consumed := 0
		for l := 0; l < lv.Level; l++ {
			consumed += LevelUpRequirement(l)
		}
		if consumed+lv.Current != xp {
			t.Fatalf("tiers do not sum to xp=%d: consumed=%d current=%d", xp, consumed, lv.Current)
		}
		prev = lv
	}
}

func TestLevelCapStopsRunawayLoop(t *testing.T) {
	lv := LevelFromXP(1 << 40)
	if lv.Level != LevelCap {
		t.Fatalf("expected cap %d, got %d", LevelCap, lv.Level)
	}
}

func TestTaskLevelStartsAtOne(t *testing.T) {
	cases := map[int]int{
		-10: 1,
		0:   1,
		119: 1,
		120: 2, // xp_needed(1) = 120
		259: 2,
		260: 3, // + xp_needed(2) = 140
	}
	for xp, want := range cases {
		if got := TaskLevelFromXP(xp); got != want {
			t.Fatalf("TaskLevelFromXP(%d): got=%d want=%d", xp, got, want)
		}
	}
}

func TestUserDecayFormulas(t *testing.T) {
	if DailyDecay(0) != 20 || DailyDecay(30) != 50 || DailyDecay(500) != 100 {
		t.Fatalf("DailyDecay cap wrong")
	}
	if NetDecay(10, 1) != 10 || NetDecay(10, 2) != 0 {
		t.Fatalf("NetDecay wrong: %d %d", NetDecay(10, 1), NetDecay(10, 2))
	}
	if ApplyXP(30, -50) != 0 {
		t.Fatalf("ApplyXP must clamp at zero")
	}
}

func TestGapPenaltyRederivesLevel(t *testing.T) {
	// Level 1 (xp 100..219) decays 21/day with no streak; dropping below 100
	// falls back to level 0 and 20/day.
	got := GapPenalty(110, 0, 2)
	// day 1: 110 -> 89 (level 1, 21); day 2: 89 -> 69 (level 0, 20)
	if got != 41 {
		t.Fatalf("GapPenalty: got=%d want=41", got)
	}
	if GapPenalty(10, 0, 5) != 10 {
		t.Fatalf("GapPenalty must not exceed total xp")
	}
	if GapPenalty(500, 10, 3) != 0 {
		t.Fatalf("full streak protection should waive the penalty")
	}
}
