package loot

import (
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// RollOptions — параметры одного roll.
type RollOptions struct {
	ItemLevel int32  // < 1 трактуется как 1
	Seed      *int64 // nil → недетерминированный roll
}

// Roller превращает шаблоны каталога в rolled instances.
type Roller struct {
	catalog *data.Catalog
}

// NewRoller создаёт Roller поверх каталога.
func NewRoller(catalog *data.Catalog) *Roller {
	return &Roller{catalog: catalog}
}

// RollItem роллит instance для base item и редкости.
// Пул affix — весь каталог (с фильтром по слоту и тегам).
//
// Returns:
//   - instance, true: успешный roll
//   - nil, false: base или rarity не заданы (нет дропа)
func (r *Roller) RollItem(base *data.ItemDef, rarity *data.RarityDef, opts RollOptions) (*model.ItemInstance, bool) {
	if !validPair(base, rarity) {
		return nil, false
	}
	var source []*data.AffixDef
	if r.catalog != nil {
		source = r.catalog.Affixes()
	}
	rng := newRand(opts.Seed)
	return r.roll(rng, base, rarity, opts.ItemLevel, source), true
}

// RollFromTable роллит base item и редкость из таблицы, затем сам instance.
func (r *Roller) RollFromTable(table *data.LootTable, opts RollOptions) (*model.ItemInstance, bool) {
	if table == nil {
		return nil, false
	}
	rng := newRand(opts.Seed)
	return r.rollTable(rng, table, opts.ItemLevel, nil)
}

// RollFromTableTuned роллит с учётом настройки зоны: item level из диапазона тира
// и веса редкостей тира. Если веса тира не дают ни одной редкости, используются веса таблицы.
func (r *Roller) RollFromTableTuned(table *data.LootTable, tuning *data.ZoneTuning, tier data.LootTier, opts RollOptions) (*model.ItemInstance, bool) {
	if table == nil {
		return nil, false
	}
	if tuning == nil {
		return r.RollFromTable(table, opts)
	}

	rng := newRand(opts.Seed)
	tt := tuning.Tier(tier)
	lo, hi := tt.ItemLevel.Bounds()
	level := rollIntRange(rng, lo, hi)

	return r.rollTable(rng, table, level, &tt)
}

func (r *Roller) rollTable(rng *rand.Rand, table *data.LootTable, level int32, tt *data.ZoneTierTuning) (*model.ItemInstance, bool) {
	if r.catalog == nil {
		return nil, false
	}

	itemWeights := make([]float64, len(table.Items))
	for i, e := range table.Items {
		itemWeights[i] = e.Weight
	}
	idx := drawIndex(rng, itemWeights)
	if idx < 0 {
		return nil, false
	}
	base, ok := r.catalog.Item(table.Items[idx].ID)
	if !ok {
		return nil, false
	}

	idx = -1
	if tt != nil {
		override := make([]float64, len(table.Rarities))
		for i, e := range table.Rarities {
			override[i] = tt.RarityWeight(e.ID)
		}
		idx = drawIndex(rng, override)
	}
	if idx < 0 {
		rarityWeights := make([]float64, len(table.Rarities))
		for i, e := range table.Rarities {
			rarityWeights[i] = e.Weight
		}
		idx = drawIndex(rng, rarityWeights)
	}
	if idx < 0 {
		return nil, false
	}
	rarity, ok := r.catalog.Rarity(table.Rarities[idx].ID)
	if !ok || !validPair(base, rarity) {
		return nil, false
	}

	source := r.catalog.Affixes()
	if len(table.AffixPoolOverride) > 0 {
		source = make([]*data.AffixDef, 0, len(table.AffixPoolOverride))
		for _, id := range table.AffixPoolOverride {
			if a, ok := r.catalog.Affix(id); ok {
				source = append(source, a)
			}
		}
	}

	inst := r.roll(rng, base, rarity, level, source)
	slog.Debug("rolled item from table",
		"table", table.ID,
		"item", inst.BaseItemID,
		"rarity", inst.RarityID,
		"ilvl", inst.ItemLevel,
		"affixes", len(inst.Affixes))
	return inst, true
}

// roll — общий алгоритм: scalar, число affix, пул, выборка без возвращения.
func (r *Roller) roll(rng *rand.Rand, base *data.ItemDef, rarity *data.RarityDef, level int32, source []*data.AffixDef) *model.ItemInstance {
	inst := &model.ItemInstance{
		BaseItemID: base.ID,
		RarityID:   rarity.ID,
		ItemLevel:  max(1, level),
		BaseScalar: rollRange(rng, rarity.ScalarMin, rarity.ScalarMax),
	}

	lo := max(0, rarity.AffixMin)
	count := int(rollIntRange(rng, lo, max(lo, rarity.AffixMax)))
	if count == 0 {
		return inst
	}

	pool := EligibleAffixes(base, source)
	inst.Affixes = make([]model.AffixRoll, 0, min(count, len(pool)))

	weights := make([]float64, 0, len(pool))
	for len(inst.Affixes) < count && len(pool) > 0 {
		weights = weights[:0]
		for _, a := range pool {
			weights = append(weights, a.EffectiveWeight())
		}
		idx := drawIndex(rng, weights)
		if idx < 0 {
			break
		}

		picked := pool[idx]
		// Без возвращения: убираем выбранный affix и все, что бьют в тот же stat.
		pool = slices.DeleteFunc(pool, func(a *data.AffixDef) bool {
			return a == picked || a.Stat == picked.Stat
		})

		minRoll, maxRoll := picked.RollRange(inst.ItemLevel)
		inst.Affixes = append(inst.Affixes, model.AffixRoll{
			AffixID: picked.ID,
			Value:   rollRange(rng, minRoll, maxRoll),
		})
	}

	return inst
}

// EligibleAffixes фильтрует source: вес > 0, слот разрешён, теги пересекаются.
// Порядок source сохраняется; повторные id отбрасываются.
func EligibleAffixes(base *data.ItemDef, source []*data.AffixDef) []*data.AffixDef {
	pool := make([]*data.AffixDef, 0, len(source))
	seen := make(map[string]struct{}, len(source))
	for _, a := range source {
		if a == nil || a.ID == "" || a.EffectiveWeight() <= 0 {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		if !a.AllowsSlot(base.Slot) || !data.TagsMatch(base.AffixTags, a.Tags) {
			continue
		}
		seen[a.ID] = struct{}{}
		pool = append(pool, a)
	}
	return pool
}

func validPair(base *data.ItemDef, rarity *data.RarityDef) bool {
	return base != nil && rarity != nil && base.ID != "" && rarity.ID != ""
}
