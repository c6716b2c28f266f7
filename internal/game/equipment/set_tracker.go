package equipment

import (
	"maps"
	"sync"

	"github.com/udisondev/lootforge/internal/data"
)

// SetTracker считает надетые части каждого сета.
//
// Пересчёт происходит на каждое изменение экипировки; читатели, которым нужны
// свежие данные в том же тике, могут вызвать RebuildCounts сами.
type SetTracker struct {
	equipment *Equipment
	resolver  ItemResolver

	mu      sync.RWMutex
	counts  map[string]int
	baseIDs map[string]struct{}

	unsubscribe func()
}

// NewSetTracker создаёт трекер, подписанный на изменения экипировки.
func NewSetTracker(eq *Equipment, resolver ItemResolver) *SetTracker {
	t := &SetTracker{
		equipment: eq,
		resolver:  resolver,
		counts:    make(map[string]int),
		baseIDs:   make(map[string]struct{}),
	}
	t.unsubscribe = eq.Subscribe(t.RebuildCounts)
	t.RebuildCounts()
	return t
}

// RebuildCounts пересчитывает счётчики по текущей экипировке.
// Двуручный предмет в обеих руках — одна часть; rolled ссылки резолвятся через base item.
// Вызывается и наблюдателем экипировки, и тиком статов: счётчики собираются
// вне лока и подменяются целиком.
func (t *SetTracker) RebuildCounts() {
	counts := make(map[string]int)
	baseIDs := make(map[string]struct{})

	if t.resolver != nil {
		for _, ref := range t.equipment.EquippedRefs() {
			def, ok := t.resolver.TryGetItem(ref)
			if !ok {
				continue
			}
			baseIDs[def.ID] = struct{}{}
			if def.SetID != "" {
				counts[def.SetID]++
			}
		}
	}

	t.mu.Lock()
	t.counts = counts
	t.baseIDs = baseIDs
	t.mu.Unlock()
}

// EquippedCount возвращает число надетых частей сета (case-insensitive id).
func (t *SetTracker) EquippedCount(setID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[data.NormalizeID(setID)]
}

// Counts возвращает копию счётчиков setID → части.
func (t *SetTracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.counts)
}

// IsBaseItemEquipped reports whether any equipped ref resolves to baseID.
func (t *SetTracker) IsBaseItemEquipped(baseID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.baseIDs[data.NormalizeID(baseID)]
	return ok
}

// Close отписывает трекер от экипировки.
func (t *SetTracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}
