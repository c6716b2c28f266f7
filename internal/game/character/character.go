package character

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/game/deathdrop"
	"github.com/udisondev/lootforge/internal/game/equipment"
	"github.com/udisondev/lootforge/internal/game/stats"
	"github.com/udisondev/lootforge/internal/model"
)

// Base — базовые характеристики без экипировки.
type Base struct {
	Damage    int32 `yaml:"base_damage"`
	MaxHealth int32 `yaml:"base_max_health"`
}

func (b Base) BaseDamage() int32    { return b.Damage }
func (b Base) BaseMaxHealth() int32 { return b.MaxHealth }

// DefaultBase — базовые значения нового персонажа.
func DefaultBase() Base {
	return Base{Damage: 2, MaxHealth: 50}
}

// ItemSource — реестр предметов: резолв ссылок и stat modifiers.
type ItemSource interface {
	equipment.ItemResolver
	stats.ModSource
}

// Deps — общие для всех персонажей зависимости.
type Deps struct {
	Catalog *data.Catalog
	Items   ItemSource
	Curve   data.ExperienceCurve
}

// Character — игрок: инвентарь, экипировка, прогрессия, здоровье.
type Character struct {
	id   int64
	name string
	base Base

	mu       sync.RWMutex
	loc      model.Location
	targetID int64

	inCombat atomic.Bool

	inventory *model.Inventory
	equipment *equipment.Equipment
	sets      *equipment.SetTracker
	stats     *stats.Aggregator
	health    *Health
}

// New создаёт персонажа с пустыми инвентарём и экипировкой.
func New(id int64, name string, base Base, deps Deps) *Character {
	deps.Curve = data.NewExperienceCurve(deps.Curve.XPPerLevel)

	c := &Character{
		id:        id,
		name:      name,
		base:      base,
		inventory: model.NewInventory(id),
		equipment: equipment.New(deps.Items),
	}
	c.sets = equipment.NewSetTracker(c.equipment, deps.Items)
	c.stats = stats.NewAggregator(stats.Sources{
		Catalog:     deps.Catalog,
		Mods:        deps.Items,
		Equipment:   c.equipment,
		Sets:        c.sets,
		Base:        base,
		Progression: stats.NewProgression(deps.Curve),
	})
	c.health = NewHealth(c.stats)
	c.stats.OnLevelUp(func(stat model.StatType, level int32) {
		slog.Info("skill level up", "character", c.name, "stat", stat.String(), "level", level)
	})
	return c
}

func (c *Character) ID() int64    { return c.id }
func (c *Character) Name() string { return c.name }
func (c *Character) Base() Base   { return c.base }

// Location возвращает текущую позицию.
func (c *Character) Location() model.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

// Teleport мгновенно перемещает персонажа.
func (c *Character) Teleport(loc model.Location) {
	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
}

// SetTarget выбирает цель и входит в бой.
func (c *Character) SetTarget(id int64) {
	c.mu.Lock()
	c.targetID = id
	c.mu.Unlock()
	c.inCombat.Store(id != 0)
}

// Target возвращает id текущей цели (0 — нет цели).
func (c *Character) Target() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.targetID
}

// InCombat reports whether the character has an active target.
func (c *Character) InCombat() bool {
	return c.inCombat.Load()
}

// ResetState сбрасывает боевое состояние после респавна.
func (c *Character) ResetState() {
	c.SetTarget(0)
}

func (c *Character) Inventory() *model.Inventory     { return c.inventory }
func (c *Character) Equipment() *equipment.Equipment { return c.equipment }
func (c *Character) Sets() *equipment.SetTracker     { return c.sets }
func (c *Character) Stats() *stats.Aggregator        { return c.stats }
func (c *Character) Vitals() *Health                 { return c.health }
func (c *Character) Health() deathdrop.Health        { return c.health }

// Progression возвращает опыт навыков персонажа.
func (c *Character) Progression() *stats.Progression { return c.stats.Progression() }

// Equip надевает предмет из инвентаря.
func (c *Character) Equip(ref model.ItemRef) (bool, string) {
	return c.equipment.TryEquip(c.inventory, ref)
}

// Unequip снимает предмет из слота в инвентарь.
func (c *Character) Unequip(slot model.EquipmentSlot) bool {
	return c.equipment.TryUnequip(c.inventory, slot)
}

// DealDamage начисляет боевой опыт за нанесённый урон.
func (c *Character) DealDamage(damage int32, style model.StatType, tier data.LootTier) {
	stats.AwardDamageDealt(c.stats.Progression(), damage, style, tier)
}

// TakeDamage наносит урон персонажу и начисляет опыт DefenseSkill.
// Возвращает true, если удар убил персонажа.
func (c *Character) TakeDamage(raw int32) bool {
	taken, died := c.health.TakeDamage(raw)
	if taken > 0 {
		c.stats.AddXp(model.StatDefenseSkill, stats.DamageTakenXP(taken))
	}
	return died
}

// IsDead reports whether the character has zero HP.
func (c *Character) IsDead() bool {
	return c.health.IsDead()
}

// Loadout возвращает сохраняемое состояние.
func (c *Character) Loadout() model.Loadout {
	return model.Loadout{
		Location:  c.Location(),
		Skills:    c.stats.Progression().Snapshot(),
		Equipment: c.equipment.Snapshot(),
		Inventory: c.inventory.Snapshot(),
	}
}

// ApplyLoadout заменяет состояние сохранённым, пересчитывает статы и восстанавливает HP.
// Предмет, вытесненный двуручным из второй руки, кладётся в инвентарь.
func (c *Character) ApplyLoadout(lo model.Loadout) {
	c.Teleport(lo.Location)
	c.stats.Progression().Load(lo.Skills)

	c.inventory.Clear()
	for ref, qty := range lo.Inventory {
		c.inventory.Add(ref, qty)
	}
	for _, ref := range c.equipment.Load(lo.Equipment) {
		c.inventory.Add(ref, 1)
	}

	c.stats.RebuildNow()
	c.health.Revive()
}

// Tick пересчитывает грязные статы и срезает HP до нового максимума.
func (c *Character) Tick() {
	if c.stats.Tick() {
		c.health.Clamp()
	}
}

// Close отписывает трекеры от экипировки.
func (c *Character) Close() {
	c.stats.Close()
	c.sets.Close()
}
