package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryStats_AddIgnoresNonPrimary(t *testing.T) {
	var p PrimaryStats
	p.Add(StatStrength, 3)
	p.Add(StatMaxHealth, 50)
	p.Add(StatMeleeDamage, 7)

	assert.Equal(t, PrimaryStats{Strength: 3}, p)
	assert.Equal(t, int32(0), p.Get(StatMaxHealth))
}

func TestPrimaryStats_Plus(t *testing.T) {
	a := PrimaryStats{Attack: 1, Strength: 2, Cooking: 5}
	b := PrimaryStats{Attack: 10, Defense: 4}

	assert.Equal(t, PrimaryStats{Attack: 11, Strength: 2, Defense: 4, Cooking: 5}, a.Plus(b))
}

func TestNewLeveledStats(t *testing.T) {
	l := NewLeveledStats()
	for _, st := range PrimaryStatTypes {
		assert.Equal(t, SkillProgress{Level: 1}, l.Skill(st), st.String())
	}
	assert.Equal(t, SkillProgress{}, l.Skill(StatMaxHealth))

	l.SetSkill(StatMining, SkillProgress{Level: 4, XP: 350})
	assert.Equal(t, int32(4), l.Levels().Mining)
}

func TestParseStatType(t *testing.T) {
	tests := []struct {
		in   string
		want StatType
	}{
		{"MeleeDamage", StatMeleeDamage},
		{"maxhealth", StatMaxHealth},
		{"Forging", StatSmithing},
		{"MagicSkill", StatMagic},
		{"DefenseSkill", StatDefenseSkill},
	}
	for _, tt := range tests {
		got, err := ParseStatType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStatType("Luck")
	assert.Error(t, err)
}

func TestEquipmentSlot_Parse(t *testing.T) {
	s, err := ParseEquipmentSlot("weapon")
	require.NoError(t, err)
	assert.Equal(t, SlotRightHand, s)

	s, err = ParseEquipmentSlot("Ring2")
	require.NoError(t, err)
	assert.Equal(t, SlotRing2, s)

	_, err = ParseEquipmentSlot("tail")
	assert.Error(t, err)

	assert.Len(t, EquipSlots, 14)
	assert.Equal(t, SlotLeftHand, SlotRightHand.Other())
	assert.Equal(t, SlotRing1, SlotRing2.Other())
	assert.Equal(t, SlotNone, SlotHelm.Other())
}
