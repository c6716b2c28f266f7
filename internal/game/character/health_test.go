package character

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/lootforge/internal/model"
)

type fixedDerived model.DerivedStats

func (f *fixedDerived) Derived() model.DerivedStats { return model.DerivedStats(*f) }

func TestHealth(t *testing.T) {
	d := &fixedDerived{MaxHealth: 20, DamageReductionFlat: 3}
	h := NewHealth(d)

	tests := []struct {
		name     string
		raw      int32
		taken    int32
		died     bool
		expected int32
	}{
		{"reduced", 8, 5, false, 15},
		{"below reduction", 2, 1, false, 14},
		{"negative ignored", -4, 0, false, 14},
		{"lethal capped at current", 100, 14, true, 0},
		{"already dead", 10, 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken, died := h.TakeDamage(tt.raw)
			assert.Equal(t, tt.taken, taken)
			assert.Equal(t, tt.died, died)
			assert.Equal(t, tt.expected, h.Current())
		})
	}

	h.Heal(5)
	assert.True(t, h.IsDead(), "heal does not revive")

	h.Revive()
	assert.Equal(t, int32(20), h.Current())

	h.TakeDamage(13)
	h.Heal(100)
	assert.Equal(t, int32(20), h.Current())

	d.MaxHealth = 12
	h.Clamp()
	assert.Equal(t, int32(12), h.Current())
}

func TestHealth_NoStats(t *testing.T) {
	h := NewHealth(nil)
	assert.Equal(t, int32(1), h.Max())
	_, died := h.TakeDamage(1)
	assert.True(t, died)
}
