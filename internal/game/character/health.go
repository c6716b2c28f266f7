package character

import (
	"sync"

	"github.com/udisondev/lootforge/internal/model"
)

// DerivedSource отдаёт итоговые боевые числа (обычно stats.Aggregator).
type DerivedSource interface {
	Derived() model.DerivedStats
}

// Health — текущее HP персонажа. Максимум берётся из DerivedStats.MaxHealth.
type Health struct {
	mu      sync.Mutex
	current int32
	stats   DerivedSource
}

// NewHealth создаёт здоровье с полным HP.
func NewHealth(stats DerivedSource) *Health {
	h := &Health{stats: stats}
	h.current = h.Max()
	return h
}

// Max возвращает максимальное HP (минимум 1).
func (h *Health) Max() int32 {
	if h.stats == nil {
		return 1
	}
	return max(1, h.stats.Derived().MaxHealth)
}

// Current возвращает текущее HP.
func (h *Health) Current() int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// IsDead reports whether HP dropped to zero.
func (h *Health) IsDead() bool {
	return h.Current() <= 0
}

// TakeDamage наносит урон с учётом flat damage reduction.
// Урон по живому персонажу не меньше 1. Возвращает фактический урон и флаг смерти
// (true только для удара, который убил).
func (h *Health) TakeDamage(raw int32) (taken int32, died bool) {
	if raw <= 0 {
		return 0, false
	}
	var dr int32
	if h.stats != nil {
		dr = h.stats.Derived().DamageReductionFlat
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current <= 0 {
		return 0, false
	}
	taken = max(1, raw-dr)
	taken = min(taken, h.current)
	h.current -= taken
	return taken, h.current == 0
}

// Heal восстанавливает HP, не выше максимума. Мёртвого не лечит.
func (h *Health) Heal(amount int32) {
	if amount <= 0 {
		return
	}
	maxHP := h.Max()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current <= 0 {
		return
	}
	h.current = min(maxHP, h.current+min(amount, maxHP))
}

// Revive восстанавливает HP до максимума.
func (h *Health) Revive() {
	maxHP := h.Max()
	h.mu.Lock()
	h.current = maxHP
	h.mu.Unlock()
}

// Clamp срезает текущее HP до максимума (после снятия экипировки с MaxHealth).
func (h *Health) Clamp() {
	maxHP := h.Max()
	h.mu.Lock()
	if h.current > maxHP {
		h.current = maxHP
	}
	h.mu.Unlock()
}
