package data

import (
	"slices"
	"strings"

	"github.com/udisondev/lootforge/internal/model"
)

// TagAny — wildcard affix tag, совпадает с любым другим тегом.
const TagAny = "any"

// ItemDef — статический шаблон предмета.
type ItemDef struct {
	ID            string                `yaml:"id"`
	Name          string                `yaml:"name"`
	Icon          string                `yaml:"icon"`
	Slot          model.EquipmentSlot   `yaml:"slot"`
	Handedness    model.Handedness      `yaml:"handedness"`
	OccupiesSlots []model.EquipmentSlot `yaml:"occupies_slots"`
	BaseStats     []model.StatModifier  `yaml:"base_stats"`
	AffixTags     []string              `yaml:"affix_tags"`
	SetID         string                `yaml:"set_id"`
	Stackable     bool                  `yaml:"stackable"`

	// Legacy-оценка для выбора защищённого предмета при смерти.
	BaseValue *int32 `yaml:"base_value"`
	Rarity    string `yaml:"rarity"`
}

// DisplayName возвращает Name или ID, если имя не задано.
func (d *ItemDef) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// IsTwoHanded reports whether the item takes both hands.
func (d *ItemDef) IsTwoHanded() bool {
	if d.Handedness == model.TwoHanded {
		return true
	}
	return slices.Contains(d.OccupiesSlots, model.SlotLeftHand) &&
		slices.Contains(d.OccupiesSlots, model.SlotRightHand)
}

// Equippable reports whether the item has any slot metadata.
func (d *ItemDef) Equippable() bool {
	return d.Slot.Valid() || d.Handedness != model.HandednessNone || len(d.OccupiesSlots) > 0
}

// AffixTier — диапазон roll для affix в заданном диапазоне item level.
type AffixTier struct {
	MinItemLevel int32   `yaml:"min_item_level"`
	MaxItemLevel int32   `yaml:"max_item_level"`
	MinRoll      float64 `yaml:"min_roll"`
	MaxRoll      float64 `yaml:"max_roll"`
}

// AffixDef — шаблон случайного свойства.
type AffixDef struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Tags         []string              `yaml:"tags"`
	AllowedSlots []model.EquipmentSlot `yaml:"allowed_slots"`
	Stat         model.StatType        `yaml:"stat"`
	MinRoll      float64               `yaml:"min_roll"`
	MaxRoll      float64               `yaml:"max_roll"`
	Percent      bool                  `yaml:"percent"`
	Weight       *float64              `yaml:"weight"`
	Tiers        []AffixTier           `yaml:"tiers"`
}

// EffectiveWeight возвращает вес для weighted sampling (1 если не задан).
// Affix с весом <= 0 никогда не выпадает.
func (a *AffixDef) EffectiveWeight() float64 {
	if a.Weight == nil {
		return 1
	}
	return *a.Weight
}

// AllowsSlot reports whether the affix may roll on an item in slot.
func (a *AffixDef) AllowsSlot(slot model.EquipmentSlot) bool {
	return len(a.AllowedSlots) == 0 || slices.Contains(a.AllowedSlots, slot)
}

// RollRange возвращает диапазон roll для item level.
//
// Из тиров, чей диапазон уровней содержит itemLevel, выбирается самый узкий;
// при равной ширине — с большим MinItemLevel. Без подходящего тира — базовый диапазон.
func (a *AffixDef) RollRange(itemLevel int32) (lo, hi float64) {
	lvl := max(1, itemLevel)

	found := false
	var best AffixTier
	var bestMin, bestWidth int32

	for _, t := range a.Tiers {
		minLvl := max(1, t.MinItemLevel)
		maxLvl := max(1, t.MaxItemLevel)
		if maxLvl < minLvl {
			minLvl, maxLvl = maxLvl, minLvl
		}
		if lvl < minLvl || lvl > maxLvl {
			continue
		}

		width := maxLvl - minLvl
		if !found || width < bestWidth || (width == bestWidth && minLvl > bestMin) {
			best, bestMin, bestWidth, found = t, minLvl, width, true
		}
	}

	if !found {
		return a.MinRoll, a.MaxRoll
	}
	return best.MinRoll, best.MaxRoll
}

// TagsMatch reports whether item tags and affix tags intersect.
// Пустой список с любой стороны или тег "Any" совпадают со всем.
func TagsMatch(itemTags, affixTags []string) bool {
	if len(itemTags) == 0 || len(affixTags) == 0 {
		return true
	}
	if slices.ContainsFunc(itemTags, isAnyTag) || slices.ContainsFunc(affixTags, isAnyTag) {
		return true
	}
	for _, it := range itemTags {
		for _, at := range affixTags {
			if strings.EqualFold(it, at) {
				return true
			}
		}
	}
	return false
}

func isAnyTag(tag string) bool {
	return strings.EqualFold(strings.TrimSpace(tag), TagAny)
}

// RarityDef — редкость: число affix и множитель базовых статов.
type RarityDef struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	SortOrder int32   `yaml:"sort_order"`
	AffixMin  int32   `yaml:"affix_min"`
	AffixMax  int32   `yaml:"affix_max"`
	ScalarMin float64 `yaml:"scalar_min"`
	ScalarMax float64 `yaml:"scalar_max"`
	Special   bool    `yaml:"special"`
}

// SetBonusTier — бонус, активный при RequiredPieces надетых частях.
type SetBonusTier struct {
	RequiredPieces int32                `yaml:"required_pieces"`
	Description    string               `yaml:"description"`
	Modifiers      []model.StatModifier `yaml:"modifiers"`
}

// SetDef — комплект предметов.
type SetDef struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Pieces  []string       `yaml:"pieces"`
	Bonuses []SetBonusTier `yaml:"bonuses"`
}

// ActiveTiers возвращает тиры, активные при equipped надетых частях.
// Тиры с RequiredPieces <= 0 никогда не активны.
func (s *SetDef) ActiveTiers(equipped int) []SetBonusTier {
	var active []SetBonusTier
	for _, t := range s.Bonuses {
		if t.RequiredPieces <= 0 || int(t.RequiredPieces) > equipped {
			continue
		}
		active = append(active, t)
	}
	return active
}

// WeightedID — запись взвешенного списка (предмет или редкость).
type WeightedID struct {
	ID     string  `yaml:"id"`
	Weight float64 `yaml:"weight"`
}

// LootTable — таблица дропа: взвешенные предметы, редкости и опциональный пул affix.
type LootTable struct {
	ID                string       `yaml:"id"`
	Items             []WeightedID `yaml:"items"`
	Rarities          []WeightedID `yaml:"rarities"`
	AffixPoolOverride []string     `yaml:"affix_pool_override"`
}

// LootTier — категория врага для zone tuning.
type LootTier string

const (
	LootTierTrash LootTier = "trash"
	LootTierElite LootTier = "elite"
	LootTierBoss  LootTier = "boss"
)

// ParseLootTier парсит тир (неизвестное значение → trash).
func ParseLootTier(s string) LootTier {
	switch LootTier(strings.ToLower(strings.TrimSpace(s))) {
	case LootTierElite:
		return LootTierElite
	case LootTierBoss:
		return LootTierBoss
	default:
		return LootTierTrash
	}
}

// ItemLevelRange — диапазон item level, из которого роллится уровень.
type ItemLevelRange struct {
	Min int32 `yaml:"min"`
	Max int32 `yaml:"max"`
}

// Bounds возвращает нормализованные границы: min >= 1, max >= min.
func (r ItemLevelRange) Bounds() (lo, hi int32) {
	lo = max(1, r.Min)
	hi = max(lo, r.Max)
	return lo, hi
}

// ZoneTierTuning — настройка дропа для одного тира врагов зоны.
//
// BonusRolls — дополнительные броски по той же таблице, каждый с шансом BonusRollChance (0..1).
type ZoneTierTuning struct {
	ItemLevel       ItemLevelRange     `yaml:"item_level"`
	RarityWeights   map[string]float64 `yaml:"rarity_weights"`
	BonusRolls      int32              `yaml:"bonus_rolls"`
	BonusRollChance float64            `yaml:"bonus_roll_chance"`
}

// RarityWeight возвращает вес редкости (case-insensitive, 0 если не задан).
func (z ZoneTierTuning) RarityWeight(rarityID string) float64 {
	for k, w := range z.RarityWeights {
		if strings.EqualFold(k, rarityID) {
			return w
		}
	}
	return 0
}

// ZoneTuning — настройки дропа зоны по тирам врагов.
type ZoneTuning struct {
	ID    string                      `yaml:"id"`
	Tiers map[LootTier]ZoneTierTuning `yaml:"tiers"`
}

// Tier возвращает настройку тира; отсутствующий тир → настройка trash.
func (z *ZoneTuning) Tier(tier LootTier) ZoneTierTuning {
	if t, ok := z.Tiers[tier]; ok {
		return t
	}
	return z.Tiers[LootTierTrash]
}

// SetDropTier — шанс (в процентах) и число частей сета для одного тира врагов.
type SetDropTier struct {
	ChancePercent float64 `yaml:"chance"`
	Pieces        int32   `yaml:"pieces"`
}

// BossPity гарантирует часть сета после ThresholdKills убийств босса без дропа сета.
// ThresholdKills <= 0 выключает pity.
type BossPity struct {
	ThresholdKills    int32 `yaml:"threshold_kills"`
	GuaranteeOnePiece bool  `yaml:"guarantee_one_piece"`
}

// SetDropConfig — дополнительный дроп частей сета с таблиц Tables.
type SetDropConfig struct {
	SetID    string                   `yaml:"set_id"`
	Tables   []string                 `yaml:"tables"`
	Tiers    map[LootTier]SetDropTier `yaml:"tiers"`
	BossPity BossPity                 `yaml:"boss_pity"`
}

// Tier возвращает настройку тира; отсутствующий тир — нулевой шанс.
func (s *SetDropConfig) Tier(tier LootTier) SetDropTier {
	return s.Tiers[tier]
}

// PiecesOnHit возвращает число частей за успешный бросок (не меньше 1).
func (s *SetDropConfig) PiecesOnHit(tier LootTier) int {
	return int(max(1, s.Tiers[tier].Pieces))
}

// PityEnabled reports whether boss kills are counted toward a guaranteed piece.
func (s *SetDropConfig) PityEnabled() bool {
	return s.BossPity.ThresholdKills > 0
}

// AppliesTo reports whether the config drops from the loot table tableID.
func (s *SetDropConfig) AppliesTo(tableID string) bool {
	return slices.Contains(s.Tables, NormalizeID(tableID))
}
