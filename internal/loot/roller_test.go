package loot

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

func newTestCatalog(t testing.TB) *data.Catalog {
	t.Helper()
	c, err := data.DefaultCatalog()
	require.NoError(t, err)
	return c
}

func mustItem(t testing.TB, c *data.Catalog, id string) *data.ItemDef {
	t.Helper()
	d, ok := c.Item(id)
	require.True(t, ok, "item %s", id)
	return d
}

func mustRarity(t testing.TB, c *data.Catalog, id string) *data.RarityDef {
	t.Helper()
	r, ok := c.Rarity(id)
	require.True(t, ok, "rarity %s", id)
	return r
}

func TestRollItem_CommonSwordHasNoAffixes(t *testing.T) {
	c := newTestCatalog(t)
	roller := NewRoller(c)

	for range 200 {
		inst, ok := roller.RollItem(mustItem(t, c, "sword_iron"), mustRarity(t, c, "Common"), RollOptions{ItemLevel: 3})
		require.True(t, ok)
		assert.Equal(t, "sword_iron", inst.BaseItemID)
		assert.Equal(t, "common", inst.RarityID)
		assert.Equal(t, int32(3), inst.ItemLevel)
		assert.Empty(t, inst.Affixes)
		assert.GreaterOrEqual(t, inst.BaseScalar, 0.90)
		assert.LessOrEqual(t, inst.BaseScalar, 1.00)
	}
}

func TestRollItem_MissingInputs(t *testing.T) {
	c := newTestCatalog(t)
	roller := NewRoller(c)

	_, ok := roller.RollItem(nil, mustRarity(t, c, "common"), RollOptions{})
	assert.False(t, ok)
	_, ok = roller.RollItem(mustItem(t, c, "sword_iron"), nil, RollOptions{})
	assert.False(t, ok)
	_, ok = roller.RollItem(&data.ItemDef{}, mustRarity(t, c, "common"), RollOptions{})
	assert.False(t, ok)
}

func TestRollItem_ItemLevelFloor(t *testing.T) {
	c := newTestCatalog(t)
	inst, ok := NewRoller(c).RollItem(mustItem(t, c, "sword_iron"), mustRarity(t, c, "common"), RollOptions{ItemLevel: -7})
	require.True(t, ok)
	assert.Equal(t, int32(1), inst.ItemLevel)
}

func TestRollItem_SeedDeterminism(t *testing.T) {
	c := newTestCatalog(t)
	roller := NewRoller(c)
	base := mustItem(t, c, "greataxe")
	rarity := mustRarity(t, c, "legendary")

	for seed := range int64(50) {
		a, ok := roller.RollItem(base, rarity, RollOptions{ItemLevel: 7, Seed: Seed(seed)})
		require.True(t, ok)
		b, ok := roller.RollItem(base, rarity, RollOptions{ItemLevel: 7, Seed: Seed(seed)})
		require.True(t, ok)
		assert.Equal(t, a, b, "seed %d", seed)
	}
}

func TestRollItem_AffixUniqueness(t *testing.T) {
	c := newTestCatalog(t)
	roller := NewRoller(c)

	for _, id := range []string{"sword_iron", "greataxe", "shield_wood", "chest_initiate", "ring_copper"} {
		base := mustItem(t, c, id)
		for range 300 {
			inst, ok := roller.RollItem(base, mustRarity(t, c, "legendary"), RollOptions{ItemLevel: 12})
			require.True(t, ok)

			ids := make(map[string]bool)
			stats := make(map[model.StatType]bool)
			for _, a := range inst.Affixes {
				assert.False(t, ids[a.AffixID], "duplicate affix %s on %s", a.AffixID, id)
				ids[a.AffixID] = true

				def, ok := c.Affix(a.AffixID)
				require.True(t, ok)
				assert.False(t, stats[def.Stat], "duplicate stat %s on %s", def.Stat, id)
				stats[def.Stat] = true

				assert.NotEqual(t, "cursed", a.AffixID, "zero-weight affix must never roll")
				assert.True(t, data.TagsMatch(base.AffixTags, def.Tags))
				assert.True(t, def.AllowsSlot(base.Slot))
			}
		}
	}
}

func TestRollItem_StopsWhenPoolExhausted(t *testing.T) {
	c := newTestCatalog(t)
	sword := mustItem(t, c, "sword_iron")

	pool := EligibleAffixes(sword, c.Affixes())
	var ids []string
	for _, a := range pool {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"sharp", "mighty", "precise", "swift"}, ids)

	// Legendary просит 4-5 affix, в пуле ровно 4 с разными stat
	for range 100 {
		inst, ok := NewRoller(c).RollItem(sword, mustRarity(t, c, "legendary"), RollOptions{})
		require.True(t, ok)
		assert.Len(t, inst.Affixes, 4)
	}
}

func TestEligibleAffixes_AllowedSlots(t *testing.T) {
	c := newTestCatalog(t)

	hasGuarded := func(itemID string) bool {
		pool := EligibleAffixes(mustItem(t, c, itemID), c.Affixes())
		return slices.ContainsFunc(pool, func(a *data.AffixDef) bool { return a.ID == "guarded" })
	}

	assert.True(t, hasGuarded("chest_initiate"))
	assert.True(t, hasGuarded("shield_wood"))
	assert.False(t, hasGuarded("helm_initiate"), "helm is not in allowed slots")
	assert.False(t, hasGuarded("sword_iron"), "tags do not intersect")
}

func TestRollItem_TieredRange(t *testing.T) {
	c := newTestCatalog(t)
	sword := mustItem(t, c, "sword_iron")

	for range 200 {
		inst, ok := NewRoller(c).RollItem(sword, mustRarity(t, c, "legendary"), RollOptions{ItemLevel: 15})
		require.True(t, ok)
		for _, a := range inst.Affixes {
			if a.AffixID != "sharp" {
				continue
			}
			assert.GreaterOrEqual(t, a.Value, 3.0)
			assert.LessOrEqual(t, a.Value, 6.0)
		}
	}
}

func TestRollFromTable(t *testing.T) {
	c := newTestCatalog(t)
	roller := NewRoller(c)
	table, ok := c.LootTable("zone1_trash")
	require.True(t, ok)

	allowedItems := make(map[string]bool)
	for _, e := range table.Items {
		allowedItems[e.ID] = true
	}
	allowedRarities := map[string]bool{"common": true, "uncommon": true, "magic": true, "rare": true}

	for range 500 {
		inst, ok := roller.RollFromTable(table, RollOptions{ItemLevel: 2})
		require.True(t, ok)
		assert.True(t, allowedItems[inst.BaseItemID], inst.BaseItemID)
		assert.True(t, allowedRarities[inst.RarityID], inst.RarityID)
	}

	_, ok = roller.RollFromTable(nil, RollOptions{})
	assert.False(t, ok)
	_, ok = roller.RollFromTable(&data.LootTable{ID: "empty"}, RollOptions{})
	assert.False(t, ok)
}

func TestRollFromTable_AffixPoolOverride(t *testing.T) {
	c := newTestCatalog(t)
	table, ok := c.LootTable("zone1_boss")
	require.True(t, ok)

	for range 300 {
		inst, ok := NewRoller(c).RollFromTable(table, RollOptions{ItemLevel: 10})
		require.True(t, ok)
		for _, a := range inst.Affixes {
			assert.Contains(t, table.AffixPoolOverride, a.AffixID)
		}
	}
}

func TestRollFromTable_SeedDeterminism(t *testing.T) {
	c := newTestCatalog(t)
	table, ok := c.LootTable("zone1_boss")
	require.True(t, ok)
	tuning, ok := c.ZoneTuning("zone1")
	require.True(t, ok)

	roller := NewRoller(c)
	a, _ := roller.RollFromTableTuned(table, tuning, data.LootTierBoss, RollOptions{Seed: Seed(99)})
	b, _ := roller.RollFromTableTuned(table, tuning, data.LootTierBoss, RollOptions{Seed: Seed(99)})
	assert.Equal(t, a, b)
}

func TestRollFromTableTuned(t *testing.T) {
	c := newTestCatalog(t)
	table, ok := c.LootTable("zone1_boss")
	require.True(t, ok)
	tuning, ok := c.ZoneTuning("zone1")
	require.True(t, ok)

	for range 300 {
		inst, ok := NewRoller(c).RollFromTableTuned(table, tuning, data.LootTierBoss, RollOptions{})
		require.True(t, ok)
		assert.GreaterOrEqual(t, inst.ItemLevel, int32(8))
		assert.LessOrEqual(t, inst.ItemLevel, int32(12))
	}
}

func TestRollFromTableTuned_FallbackToTableWeights(t *testing.T) {
	c := newTestCatalog(t)
	table, ok := c.LootTable("zone1_boss")
	require.True(t, ok)

	// Веса тира не совпадают ни с одной редкостью таблицы
	tuning := &data.ZoneTuning{
		ID: "odd",
		Tiers: map[data.LootTier]data.ZoneTierTuning{
			data.LootTierTrash: {
				ItemLevel:     data.ItemLevelRange{Min: 2, Max: 2},
				RarityWeights: map[string]float64{"common": 100},
			},
		},
	}

	for range 100 {
		inst, ok := NewRoller(c).RollFromTableTuned(table, tuning, data.LootTierElite, RollOptions{})
		require.True(t, ok, "fallback keeps drops working")
		assert.Equal(t, int32(2), inst.ItemLevel)
		assert.NotEqual(t, "common", inst.RarityID)
	}
}

func TestDrawIndex_Distribution(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	weights := []float64{3, 1, 0, -2}

	counts := make([]int, len(weights))
	const n = 4000
	for range n {
		idx := drawIndex(r, weights)
		require.GreaterOrEqual(t, idx, 0)
		counts[idx]++
	}

	assert.Zero(t, counts[2], "zero weight never drawn")
	assert.Zero(t, counts[3], "negative weight never drawn")
	share := float64(counts[0]) / n
	assert.InDelta(t, 0.75, share, 0.05)

	assert.Equal(t, -1, drawIndex(r, []float64{0, 0}))
	assert.Equal(t, -1, drawIndex(r, nil))
}

func TestRollRange_SwapsBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 100 {
		v := rollRange(r, 5, 2)
		assert.GreaterOrEqual(t, v, 2.0)
		assert.LessOrEqual(t, v, 5.0)

		n := rollIntRange(r, 2, 4)
		assert.GreaterOrEqual(t, n, int32(2))
		assert.LessOrEqual(t, n, int32(4))
	}
	assert.Equal(t, int32(7), rollIntRange(r, 7, 3))
}
