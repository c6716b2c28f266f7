package loot

import (
	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// GetAllStatMods возвращает модификаторы instance: сначала base stats,
// умноженные на max(0, BaseScalar), затем по одному на каждый affix в порядке roll.
// Неизвестные affix пропускаются. Результат не кешируется.
func GetAllStatMods(catalog *data.Catalog, inst *model.ItemInstance) []model.StatModifier {
	if catalog == nil || inst == nil {
		return nil
	}

	var mods []model.StatModifier
	if base, ok := catalog.Item(inst.BaseItemID); ok {
		scalar := max(0, inst.BaseScalar)
		mods = make([]model.StatModifier, 0, len(base.BaseStats)+len(inst.Affixes))
		for _, m := range base.BaseStats {
			mods = append(mods, m.Scaled(scalar))
		}
	}

	for _, roll := range inst.Affixes {
		affix, ok := catalog.Affix(roll.AffixID)
		if !ok {
			continue
		}
		mods = append(mods, model.StatModifier{
			Stat:    affix.Stat,
			Value:   roll.Value,
			Percent: affix.Percent,
		})
	}
	return mods
}
