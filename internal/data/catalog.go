package data

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Catalog — статический каталог: предметы, affix, редкости, сеты, таблицы дропа.
//
// Все id хранятся в lower case; поиск case-insensitive.
// Порядок affix совпадает с порядком загрузки, чтобы seeded roll был детерминирован.
type Catalog struct {
	items    map[string]*ItemDef
	affixes  map[string]*AffixDef
	rarities map[string]*RarityDef
	sets     map[string]*SetDef
	tables   map[string]*LootTable
	tunings  map[string]*ZoneTuning
	setDrops []*SetDropConfig

	affixOrder []*AffixDef

	loaded bool

	mu sync.RWMutex
}

// NewCatalog создаёт пустой, ещё не загруженный каталог.
func NewCatalog() *Catalog {
	return &Catalog{
		items:    make(map[string]*ItemDef),
		affixes:  make(map[string]*AffixDef),
		rarities: make(map[string]*RarityDef),
		sets:     make(map[string]*SetDef),
		tables:   make(map[string]*LootTable),
		tunings:  make(map[string]*ZoneTuning),
	}
}

// NormalizeID приводит id к каноническому виду (trim + lower case).
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Loaded reports whether the catalog finished loading.
// Nil-safe: nil catalog is never loaded.
func (c *Catalog) Loaded() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// MarkLoaded помечает каталог как полностью загруженный.
func (c *Catalog) MarkLoaded() {
	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
}

// Item возвращает base item по id.
func (c *Catalog) Item(id string) (*ItemDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.items[NormalizeID(id)]
	return d, ok
}

// Affix возвращает affix по id.
func (c *Catalog) Affix(id string) (*AffixDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.affixes[NormalizeID(id)]
	return a, ok
}

// Rarity возвращает редкость по id.
func (c *Catalog) Rarity(id string) (*RarityDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rarities[NormalizeID(id)]
	return r, ok
}

// Set возвращает сет по id.
func (c *Catalog) Set(id string) (*SetDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sets[NormalizeID(id)]
	return s, ok
}

// LootTable возвращает таблицу дропа по id.
func (c *Catalog) LootTable(id string) (*LootTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[NormalizeID(id)]
	return t, ok
}

// ZoneTuning возвращает настройку зоны по id.
func (c *Catalog) ZoneTuning(id string) (*ZoneTuning, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	z, ok := c.tunings[NormalizeID(id)]
	return z, ok
}

// SetDrops возвращает настройки дропа сетов для таблицы tableID в порядке загрузки.
func (c *Catalog) SetDrops(tableID string) []*SetDropConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*SetDropConfig
	for _, sd := range c.setDrops {
		if sd.AppliesTo(tableID) {
			out = append(out, sd)
		}
	}
	return out
}

// Affixes возвращает все affix в порядке загрузки.
func (c *Catalog) Affixes() []*AffixDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.affixOrder)
}

// Items возвращает все предметы, отсортированные по id.
func (c *Catalog) Items() []*ItemDef {
	c.mu.RLock()
	out := make([]*ItemDef, 0, len(c.items))
	for _, d := range c.items {
		out = append(out, d)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b *ItemDef) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Rarities возвращает редкости по возрастанию SortOrder (затем по id).
func (c *Catalog) Rarities() []*RarityDef {
	c.mu.RLock()
	out := make([]*RarityDef, 0, len(c.rarities))
	for _, r := range c.rarities {
		out = append(out, r)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b *RarityDef) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Counts возвращает размеры таблиц (для логов).
func (c *Catalog) Counts() (items, affixes, rarities, sets, tables int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items), len(c.affixes), len(c.rarities), len(c.sets), len(c.tables)
}

// PutItem добавляет или заменяет base item во время работы (QA/dev-инструменты).
func (c *Catalog) PutItem(def *ItemDef) error {
	if def == nil {
		return ErrEmptyID
	}
	normalizeItem(def)
	if def.ID == "" {
		return ErrEmptyID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[def.ID] = def
	return nil
}

func (c *Catalog) addAffix(a *AffixDef) {
	c.affixes[a.ID] = a
	c.affixOrder = append(c.affixOrder, a)
}
