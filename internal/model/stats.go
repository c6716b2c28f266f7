package model

// PrimaryStats — значения прокачиваемых навыков (leveled, gear bonus или сумма).
type PrimaryStats struct {
	Attack      int32
	Strength    int32
	Defense     int32
	Ranged      int32
	Magic       int32
	Alchemy     int32
	Mining      int32
	Woodcutting int32
	Smithing    int32
	Fishing     int32
	Cooking     int32
}

// PrimaryStatTypes — порядок обхода primary stats.
var PrimaryStatTypes = [...]StatType{
	StatAttack, StatStrength, StatDefenseSkill, StatRanged, StatMagic,
	StatAlchemy, StatMining, StatWoodcutting, StatSmithing, StatFishing, StatCooking,
}

func (p *PrimaryStats) field(stat StatType) *int32 {
	switch stat {
	case StatAttack:
		return &p.Attack
	case StatStrength:
		return &p.Strength
	case StatDefenseSkill:
		return &p.Defense
	case StatRanged:
		return &p.Ranged
	case StatMagic:
		return &p.Magic
	case StatAlchemy:
		return &p.Alchemy
	case StatMining:
		return &p.Mining
	case StatWoodcutting:
		return &p.Woodcutting
	case StatSmithing:
		return &p.Smithing
	case StatFishing:
		return &p.Fishing
	case StatCooking:
		return &p.Cooking
	default:
		return nil
	}
}

// Get возвращает значение stat. Для не-primary stats всегда 0.
func (p PrimaryStats) Get(stat StatType) int32 {
	if f := p.field(stat); f != nil {
		return *f
	}
	return 0
}

// Add прибавляет v к stat. Не-primary stats игнорируются.
func (p *PrimaryStats) Add(stat StatType, v int32) {
	if f := p.field(stat); f != nil {
		*f += v
	}
}

// Set устанавливает значение stat. Не-primary stats игнорируются.
func (p *PrimaryStats) Set(stat StatType, v int32) {
	if f := p.field(stat); f != nil {
		*f = v
	}
}

// Plus возвращает покомпонентную сумму.
func (p PrimaryStats) Plus(o PrimaryStats) PrimaryStats {
	for _, st := range PrimaryStatTypes {
		p.Add(st, o.Get(st))
	}
	return p
}

// IsZero reports whether every component is zero.
func (p PrimaryStats) IsZero() bool {
	return p == PrimaryStats{}
}

// SkillProgress — уровень и накопленный опыт навыка.
type SkillProgress struct {
	Level int32
	XP    int64
}

// LeveledStats — прогрессия навыков персонажа.
// Level всегда выводится из XP, хранится как кеш.
type LeveledStats struct {
	skills [statCount]SkillProgress
}

// NewLeveledStats создаёт прогрессию, где все навыки на уровне 1 с нулевым опытом.
func NewLeveledStats() LeveledStats {
	var l LeveledStats
	for _, st := range PrimaryStatTypes {
		l.skills[st] = SkillProgress{Level: 1}
	}
	return l
}

// Skill возвращает прогресс навыка. Для не-primary stats — zero value.
func (l LeveledStats) Skill(stat StatType) SkillProgress {
	if !stat.IsPrimary() {
		return SkillProgress{}
	}
	return l.skills[stat]
}

// SetSkill перезаписывает прогресс навыка (используется прогрессией и загрузкой из БД).
func (l *LeveledStats) SetSkill(stat StatType, p SkillProgress) {
	if !stat.IsPrimary() {
		return
	}
	l.skills[stat] = p
}

// Levels возвращает уровни навыков в виде PrimaryStats.
func (l LeveledStats) Levels() PrimaryStats {
	var p PrimaryStats
	for _, st := range PrimaryStatTypes {
		p.Set(st, l.skills[st].Level)
	}
	return p
}

// DerivedStats — итоговые числа для боевой системы.
type DerivedStats struct {
	StrengthDamageBonus int32
	DamageFinal         int32
	MaxHealth           int32
	DamageReductionFlat int32

	// Equipment-only аккумуляторы, из которых посчитаны поля выше.
	EquipmentDamageBonus    int32
	EquipmentMaxHealthBonus int32
}
