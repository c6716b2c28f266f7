package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.True(t, c.Loaded())

	sword, ok := c.Item("Sword_Iron")
	require.True(t, ok, "lookup must be case-insensitive")
	assert.Equal(t, "sword_iron", sword.ID)
	assert.Equal(t, model.SlotRightHand, sword.Slot)
	assert.Equal(t, model.OneHanded, sword.Handedness)
	require.NotNil(t, sword.BaseValue)
	assert.Equal(t, int32(20), *sword.BaseValue)

	axe, ok := c.Item("greataxe")
	require.True(t, ok)
	assert.True(t, axe.IsTwoHanded())

	common, ok := c.Rarity("COMMON")
	require.True(t, ok)
	assert.Equal(t, int32(0), common.AffixMin)
	assert.Equal(t, int32(0), common.AffixMax)

	set, ok := c.Set("abyssal_initiate")
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"helm_initiate", "chest_initiate", "legs_initiate", "boots_initiate"},
		set.Pieces, "pieces are collected from item set ids")

	tuning, ok := c.ZoneTuning("Zone1")
	require.True(t, ok)
	lo, hi := tuning.Tier(LootTierBoss).ItemLevel.Bounds()
	assert.Equal(t, int32(8), lo)
	assert.Equal(t, int32(12), hi)
}

func TestDefaultCatalog_BonusRollsAndSetDrops(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	tuning, ok := c.ZoneTuning("zone1")
	require.True(t, ok)
	assert.Zero(t, tuning.Tier(LootTierTrash).BonusRolls)
	assert.Equal(t, int32(1), tuning.Tier(LootTierElite).BonusRolls)
	assert.Equal(t, int32(2), tuning.Tier(LootTierBoss).BonusRolls)
	assert.Positive(t, tuning.Tier(LootTierBoss).BonusRollChance)

	drops := c.SetDrops("Zone1_Boss")
	require.Len(t, drops, 1)
	sd := drops[0]
	assert.Equal(t, "abyssal_initiate", sd.SetID)
	assert.True(t, sd.PityEnabled())
	assert.Equal(t, int32(10), sd.BossPity.ThresholdKills)
	assert.Equal(t, 2, sd.PiecesOnHit(LootTierBoss))
	assert.Equal(t, 1, sd.PiecesOnHit(LootTierTrash))
	assert.InDelta(t, 10.0, sd.Tier(LootTierBoss).ChancePercent, 1e-9)

	assert.Len(t, c.SetDrops("zone1_trash"), 1)
	assert.Empty(t, c.SetDrops("nope"))
}

func TestSetDropConfig_Defaults(t *testing.T) {
	var sd SetDropConfig
	assert.Zero(t, sd.Tier(LootTierBoss).ChancePercent, "missing tier never drops")
	assert.Equal(t, 1, sd.PiecesOnHit(LootTierElite))
	assert.False(t, sd.PityEnabled())
	assert.False(t, sd.AppliesTo("zone1_trash"))
}

func TestCatalog_AffixOrderIsLoadOrder(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	affixes := c.Affixes()
	require.NotEmpty(t, affixes)
	assert.Equal(t, "sharp", affixes[0].ID)
	assert.Equal(t, "cursed", affixes[len(affixes)-1].ID)
}

func TestCatalog_Rarities_Sorted(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	var ids []string
	for _, r := range c.Rarities() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"common", "uncommon", "magic", "rare", "epic", "legendary"}, ids)
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "empty item id",
			doc:     "items:\n  - { name: Nameless }\n",
			wantErr: ErrEmptyID,
		},
		{
			name:    "duplicate item id case-insensitive",
			doc:     "items:\n  - { id: Sword }\n  - { id: sword }\n",
			wantErr: ErrDuplicateID,
		},
		{
			name:    "unknown set",
			doc:     "items:\n  - { id: hat, set_id: nope }\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "loot table references unknown item",
			doc:     "loot_tables:\n  - { id: t, items: [ { id: ghost, weight: 1 } ] }\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "loot table references unknown affix",
			doc:     "loot_tables:\n  - { id: t, affix_pool_override: [ghost] }\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "bonus roll chance above one",
			doc:     "zone_tunings:\n  - { id: z, tiers: { boss: { bonus_rolls: 2, bonus_roll_chance: 1.5 } } }\n",
			wantErr: ErrBadValue,
		},
		{
			name:    "set drop references unknown set",
			doc:     "set_drops:\n  - { set_id: ghost }\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "set drop for a set without pieces",
			doc:     "sets:\n  - { id: empty }\nset_drops:\n  - { set_id: empty }\n",
			wantErr: ErrBadValue,
		},
		{
			name:    "set drop references unknown table",
			doc:     "sets:\n  - { id: s }\nitems:\n  - { id: hat, set_id: s }\nset_drops:\n  - { set_id: s, tables: [ghost] }\n",
			wantErr: ErrUnknownRef,
		},
		{
			name:    "negative set drop chance",
			doc:     "sets:\n  - { id: s }\nitems:\n  - { id: hat, set_id: s }\nset_drops:\n  - { set_id: s, tiers: { boss: { chance: -1 } } }\n",
			wantErr: ErrBadValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseCatalog_UnknownStat(t *testing.T) {
	_, err := ParseCatalog([]byte("affixes:\n  - { id: lucky, stat: Luck }\n"))
	assert.Error(t, err)
}

func TestLoadCatalog_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `
rarities:
  - { id: Common, affix_min: 0, affix_max: 0, scalar_min: 1, scalar_max: 1 }
items:
  - { id: Stick, slot: RightHand, handedness: OneHanded }
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	_, ok := c.Item("stick")
	assert.True(t, ok)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalog_PutItem(t *testing.T) {
	c := NewCatalog()
	assert.False(t, c.Loaded())

	require.NoError(t, c.PutItem(&ItemDef{ID: " Test_Blade ", Slot: model.SlotRightHand}))
	d, ok := c.Item("test_blade")
	require.True(t, ok)
	assert.Equal(t, "test_blade", d.ID)

	assert.ErrorIs(t, c.PutItem(&ItemDef{}), ErrEmptyID)
	assert.ErrorIs(t, c.PutItem(nil), ErrEmptyID)

	var nilCatalog *Catalog
	assert.False(t, nilCatalog.Loaded())
}

func TestAffixDef_RollRange(t *testing.T) {
	a := &AffixDef{
		MinRoll: 1, MaxRoll: 2,
		Tiers: []AffixTier{
			{MinItemLevel: 1, MaxItemLevel: 10, MinRoll: 10, MaxRoll: 20},
			{MinItemLevel: 5, MaxItemLevel: 10, MinRoll: 30, MaxRoll: 40},
			{MinItemLevel: 11, MaxItemLevel: 15, MinRoll: 50, MaxRoll: 60},
			{MinItemLevel: 16, MaxItemLevel: 20, MinRoll: 70, MaxRoll: 80},
			{MinItemLevel: 18, MaxItemLevel: 22, MinRoll: 90, MaxRoll: 99},
		},
	}

	tests := []struct {
		name   string
		level  int32
		lo, hi float64
	}{
		{name: "only wide tier", level: 3, lo: 10, hi: 20},
		{name: "narrowest wins", level: 7, lo: 30, hi: 40},
		{name: "equal width prefers higher min", level: 19, lo: 90, hi: 99},
		{name: "no tier falls back", level: 40, lo: 1, hi: 2},
		{name: "level floored to 1", level: -5, lo: 10, hi: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := a.RollRange(tt.level)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestTagsMatch(t *testing.T) {
	tests := []struct {
		name       string
		item, affx []string
		want       bool
	}{
		{name: "intersection", item: []string{"WeaponMelee"}, affx: []string{"Armor", "weaponmelee"}, want: true},
		{name: "disjoint", item: []string{"WeaponMelee"}, affx: []string{"Armor"}, want: false},
		{name: "any on affix", item: []string{"Jewelry"}, affx: []string{"Any"}, want: true},
		{name: "any on item", item: []string{"ANY"}, affx: []string{"Armor"}, want: true},
		{name: "empty item tags", item: nil, affx: []string{"Armor"}, want: true},
		{name: "empty affix tags", item: []string{"Armor"}, affx: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TagsMatch(tt.item, tt.affx))
		})
	}
}

func TestSetDef_ActiveTiers_Monotonic(t *testing.T) {
	s := &SetDef{Bonuses: []SetBonusTier{
		{RequiredPieces: 0},
		{RequiredPieces: 2},
		{RequiredPieces: 3},
		{RequiredPieces: 5},
	}}

	prev := 0
	for n := 0; n <= 6; n++ {
		active := s.ActiveTiers(n)
		assert.GreaterOrEqual(t, len(active), prev, "n=%d", n)
		for _, tier := range active {
			assert.Positive(t, tier.RequiredPieces, "tier with required <= 0 is never active")
		}
		prev = len(active)
	}
	assert.Len(t, s.ActiveTiers(3), 2)
}
