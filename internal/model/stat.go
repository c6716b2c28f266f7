package model

import (
	"fmt"
	"strings"
)

// StatType — характеристика, на которую действует модификатор.
type StatType int32

const (
	StatNone StatType = iota

	// Боевые скаляры экипировки (не входят в PrimaryStats).
	StatMeleeDamage
	StatRangedDamage
	StatMagicDamage
	StatDefense // flat damage reduction
	StatMaxHealth
	StatAttackSpeed
	StatMoveSpeed

	// Primary stats (прокачиваемые навыки).
	StatAttack
	StatStrength
	StatDefenseSkill
	StatRanged
	StatMagic
	StatAlchemy
	StatMining
	StatWoodcutting
	StatSmithing
	StatFishing
	StatCooking

	statCount
)

var statNames = [statCount]string{
	StatNone:         "None",
	StatMeleeDamage:  "MeleeDamage",
	StatRangedDamage: "RangedDamage",
	StatMagicDamage:  "MagicDamage",
	StatDefense:      "Defense",
	StatMaxHealth:    "MaxHealth",
	StatAttackSpeed:  "AttackSpeed",
	StatMoveSpeed:    "MoveSpeed",
	StatAttack:       "Attack",
	StatStrength:     "Strength",
	StatDefenseSkill: "DefenseSkill",
	StatRanged:       "Ranged",
	StatMagic:        "Magic",
	StatAlchemy:      "Alchemy",
	StatMining:       "Mining",
	StatWoodcutting:  "Woodcutting",
	StatSmithing:     "Smithing",
	StatFishing:      "Fishing",
	StatCooking:      "Cooking",
}

// statAliases — альтернативные имена из старых data-файлов.
var statAliases = map[string]StatType{
	"meleeskill":  StatAttack,
	"rangedskill": StatRanged,
	"magicskill":  StatMagic,
	"forging":     StatSmithing,
	"dr":          StatDefense,
	"health":      StatMaxHealth,
}

func (s StatType) String() string {
	if s < 0 || s >= statCount {
		return fmt.Sprintf("StatType(%d)", int32(s))
	}
	return statNames[s]
}

// IsPrimary reports whether the stat is a leveled skill tracked in PrimaryStats.
func (s StatType) IsPrimary() bool {
	return s >= StatAttack && s < statCount
}

// IsDamage reports whether the stat is one of the hand-restricted damage scalars.
func (s StatType) IsDamage() bool {
	return s == StatMeleeDamage || s == StatRangedDamage || s == StatMagicDamage
}

// ParseStatType парсит имя характеристики (case-insensitive).
func ParseStatType(name string) (StatType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range statNames {
		if strings.ToLower(n) == key {
			return StatType(i), nil
		}
	}
	if s, ok := statAliases[key]; ok {
		return s, nil
	}
	return StatNone, fmt.Errorf("unknown stat type %q", name)
}

// UnmarshalText позволяет использовать StatType прямо в YAML.
func (s *StatType) UnmarshalText(text []byte) error {
	v, err := ParseStatType(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText возвращает каноническое имя.
func (s StatType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatModifier — один аддитивный или процентный эффект на характеристику.
type StatModifier struct {
	Stat    StatType `yaml:"stat"`
	Value   float64  `yaml:"value"`
	Percent bool     `yaml:"percent"`
}

// Scaled returns a copy with Value multiplied by k.
func (m StatModifier) Scaled(k float64) StatModifier {
	m.Value *= k
	return m
}
