package model

import (
	"maps"
	"slices"
)

// Loadout — сохраняемое состояние персонажа.
type Loadout struct {
	Location  Location
	Skills    LeveledStats
	Equipment map[EquipmentSlot]ItemRef
	Inventory map[ItemRef]int32
}

// RolledRefs возвращает уникальные rolled ссылки экипировки и инвентаря в порядке CompareRefs.
func (l Loadout) RolledRefs() []ItemRef {
	seen := make(map[ItemRef]struct{})
	for _, ref := range l.Equipment {
		if ref.IsRolled() {
			seen[ref] = struct{}{}
		}
	}
	for ref := range l.Inventory {
		if ref.IsRolled() {
			seen[ref] = struct{}{}
		}
	}
	return slices.SortedFunc(maps.Keys(seen), CompareRefs)
}
