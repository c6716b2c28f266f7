package data

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ошибки валидации каталога.
var (
	ErrEmptyID     = errors.New("empty id")
	ErrDuplicateID = errors.New("duplicate id")
	ErrUnknownRef  = errors.New("unknown reference")
	ErrBadValue    = errors.New("invalid value")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Items       []ItemDef       `yaml:"items"`
	Affixes     []AffixDef      `yaml:"affixes"`
	Rarities    []RarityDef     `yaml:"rarities"`
	Sets        []SetDef        `yaml:"sets"`
	LootTables  []LootTable     `yaml:"loot_tables"`
	ZoneTunings []ZoneTuning    `yaml:"zone_tunings"`
	SetDrops    []SetDropConfig `yaml:"set_drops"`
}

// DefaultCatalog возвращает встроенный каталог.
func DefaultCatalog() (*Catalog, error) {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse embedded: %w", err)
	}
	return c, nil
}

// LoadCatalog загружает каталог из YAML-файла.
// Пустой path → встроенный каталог.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		logCatalog(c, "embedded")
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	logCatalog(c, path)
	return c, nil
}

func logCatalog(c *Catalog, source string) {
	items, affixes, rarities, sets, tables := c.Counts()
	slog.Info("loaded catalog",
		"source", source,
		"items", items,
		"affixes", affixes,
		"rarities", rarities,
		"sets", sets,
		"loot_tables", tables)
}

// ParseCatalog разбирает и валидирует YAML-документ каталога.
// Возвращённый каталог помечен как загруженный.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	c := NewCatalog()

	for i := range f.Rarities {
		r := &f.Rarities[i]
		r.ID = NormalizeID(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("rarity[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.rarities[r.ID]; dup {
			return nil, fmt.Errorf("rarity %q: %w", r.ID, ErrDuplicateID)
		}
		c.rarities[r.ID] = r
	}

	for i := range f.Sets {
		s := &f.Sets[i]
		s.ID = NormalizeID(s.ID)
		if s.ID == "" {
			return nil, fmt.Errorf("set[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.sets[s.ID]; dup {
			return nil, fmt.Errorf("set %q: %w", s.ID, ErrDuplicateID)
		}
		for j := range s.Pieces {
			s.Pieces[j] = NormalizeID(s.Pieces[j])
		}
		c.sets[s.ID] = s
	}

	for i := range f.Items {
		d := &f.Items[i]
		normalizeItem(d)
		if d.ID == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.items[d.ID]; dup {
			return nil, fmt.Errorf("item %q: %w", d.ID, ErrDuplicateID)
		}
		if d.SetID != "" {
			set, ok := c.sets[d.SetID]
			if !ok {
				return nil, fmt.Errorf("item %q set %q: %w", d.ID, d.SetID, ErrUnknownRef)
			}
			if !slices.Contains(set.Pieces, d.ID) {
				set.Pieces = append(set.Pieces, d.ID)
			}
		}
		c.items[d.ID] = d
	}

	for i := range f.Affixes {
		a := &f.Affixes[i]
		a.ID = NormalizeID(a.ID)
		if a.ID == "" {
			return nil, fmt.Errorf("affix[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.affixes[a.ID]; dup {
			return nil, fmt.Errorf("affix %q: %w", a.ID, ErrDuplicateID)
		}
		a.Tags = trimAll(a.Tags)
		c.addAffix(a)
	}

	for i := range f.LootTables {
		t := &f.LootTables[i]
		t.ID = NormalizeID(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("loot_table[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.tables[t.ID]; dup {
			return nil, fmt.Errorf("loot_table %q: %w", t.ID, ErrDuplicateID)
		}
		if err := c.validateTable(t); err != nil {
			return nil, fmt.Errorf("loot_table %q: %w", t.ID, err)
		}
		c.tables[t.ID] = t
	}

	for i := range f.ZoneTunings {
		z := &f.ZoneTunings[i]
		z.ID = NormalizeID(z.ID)
		if z.ID == "" {
			return nil, fmt.Errorf("zone_tuning[%d]: %w", i, ErrEmptyID)
		}
		if _, dup := c.tunings[z.ID]; dup {
			return nil, fmt.Errorf("zone_tuning %q: %w", z.ID, ErrDuplicateID)
		}
		tiers := make(map[LootTier]ZoneTierTuning, len(z.Tiers))
		for k, v := range z.Tiers {
			if v.BonusRolls < 0 || v.BonusRollChance < 0 || v.BonusRollChance > 1 {
				return nil, fmt.Errorf("zone_tuning %q tier %q bonus rolls: %w", z.ID, k, ErrBadValue)
			}
			tiers[ParseLootTier(string(k))] = v
		}
		z.Tiers = tiers
		c.tunings[z.ID] = z
	}

	for i := range f.SetDrops {
		sd := &f.SetDrops[i]
		if err := c.validateSetDrop(sd); err != nil {
			return nil, fmt.Errorf("set_drop[%d]: %w", i, err)
		}
		c.setDrops = append(c.setDrops, sd)
	}

	c.loaded = true
	return c, nil
}

func (c *Catalog) validateTable(t *LootTable) error {
	for i := range t.Items {
		t.Items[i].ID = NormalizeID(t.Items[i].ID)
		if _, ok := c.items[t.Items[i].ID]; !ok {
			return fmt.Errorf("item %q: %w", t.Items[i].ID, ErrUnknownRef)
		}
	}
	for i := range t.Rarities {
		t.Rarities[i].ID = NormalizeID(t.Rarities[i].ID)
		if _, ok := c.rarities[t.Rarities[i].ID]; !ok {
			return fmt.Errorf("rarity %q: %w", t.Rarities[i].ID, ErrUnknownRef)
		}
	}
	for i := range t.AffixPoolOverride {
		t.AffixPoolOverride[i] = NormalizeID(t.AffixPoolOverride[i])
		if _, ok := c.affixes[t.AffixPoolOverride[i]]; !ok {
			return fmt.Errorf("affix %q: %w", t.AffixPoolOverride[i], ErrUnknownRef)
		}
	}
	return nil
}

func (c *Catalog) validateSetDrop(sd *SetDropConfig) error {
	sd.SetID = NormalizeID(sd.SetID)
	if sd.SetID == "" {
		return ErrEmptyID
	}
	set, ok := c.sets[sd.SetID]
	if !ok {
		return fmt.Errorf("set %q: %w", sd.SetID, ErrUnknownRef)
	}
	if len(set.Pieces) == 0 {
		return fmt.Errorf("set %q has no pieces: %w", sd.SetID, ErrBadValue)
	}
	for i := range sd.Tables {
		sd.Tables[i] = NormalizeID(sd.Tables[i])
		if _, ok := c.tables[sd.Tables[i]]; !ok {
			return fmt.Errorf("loot_table %q: %w", sd.Tables[i], ErrUnknownRef)
		}
	}
	tiers := make(map[LootTier]SetDropTier, len(sd.Tiers))
	for k, v := range sd.Tiers {
		if v.ChancePercent < 0 || v.Pieces < 0 {
			return fmt.Errorf("tier %q: %w", k, ErrBadValue)
		}
		tiers[ParseLootTier(string(k))] = v
	}
	sd.Tiers = tiers
	if sd.BossPity.ThresholdKills < 0 {
		return fmt.Errorf("boss_pity threshold_kills: %w", ErrBadValue)
	}
	return nil
}

func normalizeItem(d *ItemDef) {
	d.ID = NormalizeID(d.ID)
	d.SetID = NormalizeID(d.SetID)
	d.AffixTags = trimAll(d.AffixTags)
}

func trimAll(tags []string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
