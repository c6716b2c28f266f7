package data

import "math"

// DefaultXPPerLevel — опыт на один уровень навыка.
const DefaultXPPerLevel = 100

// MaxSkillLevel — потолок уровня навыка (защита от переполнения int32).
const MaxSkillLevel = math.MaxInt32

// ExperienceCurve — линейная кривая опыта навыков: level = 1 + xp / XPPerLevel.
type ExperienceCurve struct {
	XPPerLevel int64
}

// NewExperienceCurve создаёт кривую; xpPerLevel <= 0 → DefaultXPPerLevel.
func NewExperienceCurve(xpPerLevel int64) ExperienceCurve {
	if xpPerLevel <= 0 {
		xpPerLevel = DefaultXPPerLevel
	}
	return ExperienceCurve{XPPerLevel: xpPerLevel}
}

// LevelForXP возвращает уровень для накопленного опыта.
// Отрицательный опыт считается нулём; минимальный уровень 1.
func (c ExperienceCurve) LevelForXP(xp int64) int32 {
	per := c.XPPerLevel
	if per <= 0 {
		per = DefaultXPPerLevel
	}
	if xp < 0 {
		xp = 0
	}
	lvl := 1 + xp/per
	if lvl > MaxSkillLevel {
		return MaxSkillLevel
	}
	return int32(lvl)
}

// XPForLevel возвращает минимальный опыт для уровня.
func (c ExperienceCurve) XPForLevel(level int32) int64 {
	per := c.XPPerLevel
	if per <= 0 {
		per = DefaultXPPerLevel
	}
	if level <= 1 {
		return 0
	}
	return int64(level-1) * per
}
