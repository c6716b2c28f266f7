package deathdrop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/model"
)

func newTestRegistry(t *testing.T) *loot.Registry {
	t.Helper()
	c, err := data.DefaultCatalog()
	require.NoError(t, err)
	return loot.NewRegistry(c)
}

func TestRarityTierScore(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"Legendary", 5},
		{"legend_plus", 5},
		{"EPIC", 4},
		{"rare", 3},
		{"Uncommon", 2},
		{"common", 1},
		{"  Common  ", 1},
		{"magic", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RarityTierScore(tt.id), tt.id)
	}
}

func TestValueEvaluator_Evaluate(t *testing.T) {
	reg := newTestRegistry(t)
	v := NewValueEvaluator(reg, "", DefaultTownScrollValue)

	legendary := reg.RegisterRolledInstance(&model.ItemInstance{
		BaseItemID: "greataxe",
		RarityID:   "legendary",
		ItemLevel:  10,
		Affixes:    make([]model.AffixRoll, 4),
	})
	lowLevel := reg.RegisterRolledInstance(&model.ItemInstance{BaseItemID: "ring_copper", RarityID: "common"})

	tests := []struct {
		name string
		ref  model.ItemRef
		want int
	}{
		{"town scroll", model.StaticRef("Scroll_Town"), 5},
		{"rolled legendary", legendary, 5*1000 + 10*10 + 4*5},
		{"rolled level floors to one", lowLevel, 1000 + 10},
		{"stale rolled", model.RolledRef("gone"), 0},
		{"static with rarity", model.StaticRef("sword_iron"), 20 + 1*50},
		{"static uncommon", model.StaticRef("greataxe"), 45 + 2*50},
		{"static without rarity", model.StaticRef("potion_minor"), 3},
		{"static without base value", model.StaticRef("ore_copper"), 0},
		{"unknown", model.StaticRef("ghost"), 0},
		{"zero ref", model.ItemRef{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Evaluate(tt.ref))
		})
	}
}

func TestValueEvaluator_NoLookup(t *testing.T) {
	v := NewValueEvaluator(nil, "recall_stone", 7)
	assert.Equal(t, model.StaticRef("recall_stone"), v.TownScroll())
	assert.Equal(t, 7, v.Evaluate(model.StaticRef("recall_stone")))
	assert.Zero(t, v.Evaluate(model.StaticRef("sword_iron")))
}
