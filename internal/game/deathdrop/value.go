package deathdrop

import (
	"strings"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// DefaultTownScrollID — предмет, который всегда сохраняется при смерти.
const DefaultTownScrollID = "scroll_town"

// DefaultTownScrollValue — скромная ценность свитка, чтобы его не защищала одна только цена.
const DefaultTownScrollValue = 5

// ItemLookup резолвит ссылки для оценки ценности.
type ItemLookup interface {
	TryGetRolledInstance(ref model.ItemRef) (*model.ItemInstance, bool)
	TryGetItem(ref model.ItemRef) (*data.ItemDef, bool)
}

// ValueEvaluator оценивает ценность предмета для выбора защищённого предмета.
type ValueEvaluator struct {
	lookup          ItemLookup
	townScroll      model.ItemRef
	townScrollValue int
}

// NewValueEvaluator создаёт оценщик. Пустой townScrollID → DefaultTownScrollID.
func NewValueEvaluator(lookup ItemLookup, townScrollID string, townScrollValue int) *ValueEvaluator {
	if strings.TrimSpace(townScrollID) == "" {
		townScrollID = DefaultTownScrollID
	}
	return &ValueEvaluator{
		lookup:          lookup,
		townScroll:      model.StaticRef(townScrollID),
		townScrollValue: townScrollValue,
	}
}

// TownScroll возвращает ссылку на свиток города.
func (v *ValueEvaluator) TownScroll() model.ItemRef {
	return v.townScroll
}

// Evaluate возвращает ценность предмета.
//
// Формулы:
//   - свиток города: фиксированная ценность
//   - rolled instance: tier*1000 + max(1, itemLevel)*10 + affixCount*5
//   - static item с authored BaseValue: max(0, BaseValue) + tier*50
//   - всё остальное: 0
func (v *ValueEvaluator) Evaluate(ref model.ItemRef) int {
	if ref.IsZero() {
		return 0
	}
	if ref == v.townScroll {
		return v.townScrollValue
	}
	if v.lookup == nil {
		return 0
	}

	if ref.IsRolled() {
		inst, ok := v.lookup.TryGetRolledInstance(ref)
		if !ok {
			return 0
		}
		level := max(1, int(inst.ItemLevel))
		return RarityTierScore(inst.RarityID)*1000 + level*10 + len(inst.Affixes)*5
	}

	def, ok := v.lookup.TryGetItem(ref)
	if !ok || def.BaseValue == nil {
		return 0
	}
	return max(0, int(*def.BaseValue)) + RarityTierScore(def.Rarity)*50
}

// rarityTiers проверяются по порядку: "uncommon" содержит "common".
var rarityTiers = [...]struct {
	substr string
	score  int
}{
	{"legend", 5},
	{"epic", 4},
	{"rare", 3},
	{"uncommon", 2},
	{"common", 1},
}

// RarityTierScore возвращает порядковый номер редкости 0..5 по подстроке id.
func RarityTierScore(rarityID string) int {
	id := strings.ToLower(strings.TrimSpace(rarityID))
	if id == "" {
		return 0
	}
	for _, t := range rarityTiers {
		if strings.Contains(id, t.substr) {
			return t.score
		}
	}
	return 0
}
