package model

import (
	"maps"
	"slices"
	"sync"
)

// Inventory — сумка персонажа: ItemRef → количество.
//
// Экипированные предметы в инвентаре не лежат: equip забирает одну единицу,
// unequip возвращает её обратно.
type Inventory struct {
	ownerID int64 // Character ID владельца

	stacks map[ItemRef]int32

	mu sync.RWMutex
}

// NewInventory создаёт пустой инвентарь для персонажа.
func NewInventory(ownerID int64) *Inventory {
	return &Inventory{
		ownerID: ownerID,
		stacks:  make(map[ItemRef]int32),
	}
}

// OwnerID возвращает character ID владельца.
func (inv *Inventory) OwnerID() int64 {
	return inv.ownerID
}

// Has reports whether the inventory holds at least qty units of ref.
func (inv *Inventory) Has(ref ItemRef, qty int32) bool {
	if ref.IsZero() || qty <= 0 {
		return false
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stacks[ref] >= qty
}

// Count возвращает количество единиц ref (0 если нет).
func (inv *Inventory) Count(ref ItemRef) int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stacks[ref]
}

// Add добавляет qty единиц. Нулевая ссылка и qty <= 0 игнорируются.
func (inv *Inventory) Add(ref ItemRef, qty int32) {
	if ref.IsZero() || qty <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stacks[ref] += qty
}

// TryConsume забирает ровно qty единиц или ничего.
//
// Returns:
//   - true: если единиц хватило и они списаны
//   - false: инвентарь не изменён
func (inv *Inventory) TryConsume(ref ItemRef, qty int32) bool {
	if ref.IsZero() || qty <= 0 {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	have := inv.stacks[ref]
	if have < qty {
		return false
	}
	inv.setLocked(ref, have-qty)
	return true
}

// Remove списывает до qty единиц и возвращает фактически списанное количество.
func (inv *Inventory) Remove(ref ItemRef, qty int32) int32 {
	if ref.IsZero() || qty <= 0 {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	have := inv.stacks[ref]
	n := min(have, qty)
	if n > 0 {
		inv.setLocked(ref, have-n)
	}
	return n
}

// Snapshot возвращает копию содержимого.
func (inv *Inventory) Snapshot() map[ItemRef]int32 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return maps.Clone(inv.stacks)
}

// Refs возвращает все ссылки, отсортированные по строковой форме.
func (inv *Inventory) Refs() []ItemRef {
	inv.mu.RLock()
	refs := slices.Collect(maps.Keys(inv.stacks))
	inv.mu.RUnlock()
	slices.SortFunc(refs, CompareRefs)
	return refs
}

// Len возвращает число различных ссылок.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.stacks)
}

// Clear очищает инвентарь (загрузка из БД перезаписывает содержимое целиком).
func (inv *Inventory) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	clear(inv.stacks)
}

func (inv *Inventory) setLocked(ref ItemRef, n int32) {
	if n <= 0 {
		delete(inv.stacks, ref)
		return
	}
	inv.stacks[ref] = n
}
