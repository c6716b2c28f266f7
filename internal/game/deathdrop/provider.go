package deathdrop

import (
	"github.com/udisondev/lootforge/internal/game/equipment"
	"github.com/udisondev/lootforge/internal/model"
)

// Provider — источник предметов, которые могут выпасть при смерти.
type Provider interface {
	Name() string
	// Items возвращает логическое количество по каждой ссылке.
	Items() map[model.ItemRef]int32
	Count(ref model.ItemRef) int32
	// Remove забирает до amount единиц и возвращает, сколько забрано.
	Remove(ref model.ItemRef, amount int32) int32
}

// InventoryProvider отдаёт содержимое инвентаря.
type InventoryProvider struct {
	inv *model.Inventory
}

// NewInventoryProvider оборачивает инвентарь.
func NewInventoryProvider(inv *model.Inventory) *InventoryProvider {
	return &InventoryProvider{inv: inv}
}

func (p *InventoryProvider) Name() string { return "inventory" }

func (p *InventoryProvider) Items() map[model.ItemRef]int32 {
	return p.inv.Snapshot()
}

func (p *InventoryProvider) Count(ref model.ItemRef) int32 {
	return p.inv.Count(ref)
}

func (p *InventoryProvider) Remove(ref model.ItemRef, amount int32) int32 {
	return p.inv.Remove(ref, amount)
}

// EquipmentProvider отдаёт надетые предметы.
// Двуручный предмет в обеих руках — одна единица.
type EquipmentProvider struct {
	eq *equipment.Equipment
}

// NewEquipmentProvider оборачивает экипировку.
func NewEquipmentProvider(eq *equipment.Equipment) *EquipmentProvider {
	return &EquipmentProvider{eq: eq}
}

func (p *EquipmentProvider) Name() string { return "equipment" }

func (p *EquipmentProvider) Items() map[model.ItemRef]int32 {
	return p.eq.Counts()
}

func (p *EquipmentProvider) Count(ref model.ItemRef) int32 {
	return p.eq.Counts()[ref]
}

func (p *EquipmentProvider) Remove(ref model.ItemRef, amount int32) int32 {
	return p.eq.Remove(ref, amount)
}
