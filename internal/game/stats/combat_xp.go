package stats

import (
	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// Опыт за урон.
const (
	StyleXPPerDamage   = 4 // Strength / Ranged / Magic
	AttackXPPerDamage  = 2
	DefenseXPPerDamage = 2
)

// TierXPMultiplier возвращает множитель опыта за тир врага.
func TierXPMultiplier(tier data.LootTier) float64 {
	switch tier {
	case data.LootTierElite:
		return 1.10
	case data.LootTierBoss:
		return 1.25
	default:
		return 1.0
	}
}

// DamageDealtXP считает опыт за нанесённый урон: Attack получает точность,
// style (Strength, Ranged или Magic) получает стиль. Множитель тира применяется
// после умножения на урон, дробная часть отбрасывается.
func DamageDealtXP(damage int32, style model.StatType, tier data.LootTier) (attackXP, styleXP int64) {
	if damage <= 0 {
		return 0, 0
	}
	mult := TierXPMultiplier(tier)
	attackXP = int64(float64(int64(damage)*AttackXPPerDamage) * mult)

	switch style {
	case model.StatStrength, model.StatRanged, model.StatMagic:
		styleXP = int64(float64(int64(damage)*StyleXPPerDamage) * mult)
	}
	return attackXP, styleXP
}

// DamageTakenXP считает опыт Defense за полученный урон.
func DamageTakenXP(damage int32) int64 {
	if damage <= 0 {
		return 0
	}
	return int64(damage) * DefenseXPPerDamage
}

// AwardDamageDealt начисляет опыт за урон в прогрессию.
func AwardDamageDealt(p *Progression, damage int32, style model.StatType, tier data.LootTier) {
	attackXP, styleXP := DamageDealtXP(damage, style, tier)
	p.AddXp(model.StatAttack, attackXP)
	p.AddXp(style, styleXP)
}
