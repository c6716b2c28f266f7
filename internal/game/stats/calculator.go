package stats

import (
	"math"

	"github.com/udisondev/lootforge/internal/model"
)

// Параметры формул derived stats.
const (
	// StrengthToMeleeDamage — бонус урона за каждое очко силы сверх первого.
	StrengthToMeleeDamage = 0.5

	BaseHitChance     = 0.60
	AttackToHitChance = 0.03
	MinHitChance      = 0.05
	MaxHitChance      = 0.95
)

// ComputeDerived считает итоговые боевые числа.
// Чистая функция: зависит только от аргументов.
//
// Формулы:
//
//	strengthBonus = floor((max(1, strength) - 1) * 0.5)
//	damageFinal   = max(1, baseDamage + equipDamage + strengthBonus)
//	maxHealth     = max(1, baseMaxHealth + equipMaxHealth)
//	drFlat        = max(0, equipDR)
func ComputeDerived(
	total model.PrimaryStats,
	baseDamage int32,
	baseMaxHealth int32,
	equipDamage int32,
	equipMaxHealth int32,
	equipDR int32,
) model.DerivedStats {
	strength := max(1, total.Strength)
	strengthBonus := int32(math.Floor(float64(strength-1) * StrengthToMeleeDamage))

	return model.DerivedStats{
		StrengthDamageBonus:     strengthBonus,
		DamageFinal:             max(1, saturatingSum(baseDamage, equipDamage, strengthBonus)),
		MaxHealth:               max(1, saturatingSum(baseMaxHealth, equipMaxHealth)),
		DamageReductionFlat:     max(0, equipDR),
		EquipmentDamageBonus:    equipDamage,
		EquipmentMaxHealthBonus: equipMaxHealth,
	}
}

// ComputeHitChance возвращает шанс попадания по цели с защитой enemyDefense.
// Обе стороны поднимаются минимум до 1, результат зажат в [0.05, 0.95].
func ComputeHitChance(attack, enemyDefense int32) float64 {
	attack = max(1, attack)
	enemyDefense = max(1, enemyDefense)

	hc := BaseHitChance + float64(int64(attack)-int64(enemyDefense))*AttackToHitChance
	return min(MaxHitChance, max(MinHitChance, hc))
}

func saturatingSum(vals ...int32) int32 {
	var sum int64
	for _, v := range vals {
		sum += int64(v)
	}
	switch {
	case sum > math.MaxInt32:
		return math.MaxInt32
	case sum < math.MinInt32:
		return math.MinInt32
	}
	return int32(sum)
}
