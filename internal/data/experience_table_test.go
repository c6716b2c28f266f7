package data

import "testing"

func TestExperienceCurve_LevelForXP(t *testing.T) {
	c := NewExperienceCurve(0)

	tests := []struct {
		xp   int64
		want int32
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2}, // ровно порог
		{250, 3},
		{1_000_000_000_000, MaxSkillLevel}, // cap
	}

	for _, tt := range tests {
		if got := c.LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestExperienceCurve_XPForLevel(t *testing.T) {
	c := NewExperienceCurve(250)

	tests := []struct {
		level int32
		want  int64
	}{
		{0, 0},
		{1, 0},
		{2, 250},
		{10, 2250},
	}

	for _, tt := range tests {
		if got := c.XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
		if got := c.LevelForXP(c.XPForLevel(tt.level)); tt.level >= 1 && got != tt.level {
			t.Errorf("LevelForXP(XPForLevel(%d)) = %d", tt.level, got)
		}
	}
}
