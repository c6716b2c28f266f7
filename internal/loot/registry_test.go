package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/model"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	c := newTestCatalog(t)
	reg := NewRegistry(c)

	inst := &model.ItemInstance{BaseItemID: "sword_iron", RarityID: "rare", ItemLevel: 4, BaseScalar: 1.1}
	ref := reg.RegisterRolledInstance(inst)

	require.True(t, ref.IsRolled())
	assert.Len(t, ref.ID(), 32, "uuid hex without dashes")
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.TryGetRolledInstance(ref)
	require.True(t, ok)
	assert.Same(t, inst, got)

	def, ok := reg.TryGetItem(ref)
	require.True(t, ok)
	assert.Equal(t, "sword_iron", def.ID)

	name, icon, ok := reg.TryResolveDisplay(ref)
	require.True(t, ok)
	assert.Equal(t, "Rare Iron Sword", name)
	assert.Equal(t, "icons/sword_iron", icon)

	// Строковая форма с префиксом резолвится обратно в ту же ссылку
	assert.Equal(t, ref, model.ParseItemRef(ref.String()))
}

func TestRegistry_UniqueIDs(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))
	seen := make(map[model.ItemRef]bool)
	for range 1000 {
		ref := reg.RegisterRolledInstance(&model.ItemInstance{BaseItemID: "ring_copper", RarityID: "common"})
		require.False(t, seen[ref])
		seen[ref] = true
	}
	assert.Equal(t, 1000, reg.Len())
}

func TestRegistry_StaticRefs(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))

	def, ok := reg.TryGetItem(model.StaticRef("Shield_Wood"))
	require.True(t, ok)
	assert.Equal(t, "shield_wood", def.ID)

	name, _, ok := reg.TryResolveDisplay(model.StaticRef("shield_wood"))
	require.True(t, ok)
	assert.Equal(t, "Wooden Shield", name)

	_, ok = reg.TryGetRolledInstance(model.StaticRef("shield_wood"))
	assert.False(t, ok, "static ref is never a rolled instance")

	_, ok = reg.TryGetItem(model.StaticRef("ghost"))
	assert.False(t, ok)
	_, ok = reg.TryGetItem(model.RolledRef("stale"))
	assert.False(t, ok)
	_, ok = reg.TryGetItem(model.ItemRef{})
	assert.False(t, ok)
}

func TestRegistry_RegisterNil(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))
	assert.True(t, reg.RegisterRolledInstance(nil).IsZero())
	assert.Zero(t, reg.Len())
}

func TestRegistry_RegisterWithID(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))
	inst := &model.ItemInstance{BaseItemID: "greataxe", RarityID: "epic"}

	ref, err := reg.RegisterWithID("ABCDEF", inst)
	require.NoError(t, err)
	assert.Equal(t, model.RolledRef("abcdef"), ref)

	_, err = reg.RegisterWithID("abcdef", inst)
	assert.ErrorIs(t, err, ErrInstanceExists)

	_, err = reg.RegisterWithID("", inst)
	assert.Error(t, err)
	_, err = reg.RegisterWithID("x", nil)
	assert.Error(t, err)
}

func TestRegistry_Release(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))
	ref := reg.RegisterRolledInstance(&model.ItemInstance{BaseItemID: "greataxe", RarityID: "epic"})

	assert.True(t, reg.Release(ref))
	assert.False(t, reg.Release(ref), "second release is a no-op")
	assert.False(t, reg.Release(model.StaticRef("greataxe")))

	_, ok := reg.TryGetRolledInstance(ref)
	assert.False(t, ok)
	assert.Nil(t, reg.StatMods(ref), "stale ref contributes nothing")
}

func TestGetAllStatMods(t *testing.T) {
	c := newTestCatalog(t)

	inst := &model.ItemInstance{
		BaseItemID: "sword_iron",
		RarityID:   "rare",
		BaseScalar: 1.5,
		Affixes: []model.AffixRoll{
			{AffixID: "mighty", Value: 2},
			{AffixID: "removed_affix", Value: 9},
			{AffixID: "swift", Value: 4},
		},
	}

	mods := GetAllStatMods(c, inst)
	assert.Equal(t, []model.StatModifier{
		{Stat: model.StatMeleeDamage, Value: 6},
		{Stat: model.StatAttack, Value: 1.5},
		{Stat: model.StatStrength, Value: 2},
		{Stat: model.StatAttackSpeed, Value: 4, Percent: true},
	}, mods)

	// Отрицательный scalar обнуляет base stats, affix остаются
	inst.BaseScalar = -1
	mods = GetAllStatMods(c, inst)
	require.Len(t, mods, 4)
	assert.Zero(t, mods[0].Value)
	assert.Equal(t, 2.0, mods[2].Value)

	assert.Nil(t, GetAllStatMods(nil, inst))
	assert.Nil(t, GetAllStatMods(c, nil))
}

func TestRegistry_StatMods_Static(t *testing.T) {
	c := newTestCatalog(t)
	reg := NewRegistry(c)

	mods := reg.StatMods(model.StaticRef("shield_wood"))
	assert.Equal(t, []model.StatModifier{
		{Stat: model.StatDefense, Value: 2},
		{Stat: model.StatDefenseSkill, Value: 1},
	}, mods)

	// Возвращается копия — правка не затрагивает каталог
	mods[0].Value = 100
	def, _ := c.Item("shield_wood")
	assert.Equal(t, 2.0, def.BaseStats[0].Value)
}
