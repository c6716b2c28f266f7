package stats

import (
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/game/equipment"
	"github.com/udisondev/lootforge/internal/model"
)

// BaseStats — базовые характеристики персонажа без экипировки.
type BaseStats interface {
	BaseDamage() int32
	BaseMaxHealth() int32
}

// ModSource возвращает stat modifiers предмета по ссылке.
// Для неизвестной ссылки возвращает nil.
type ModSource interface {
	StatMods(ref model.ItemRef) []model.StatModifier
}

// Sources — зависимости Aggregator. Любое поле кроме Progression может быть nil.
type Sources struct {
	Catalog     *data.Catalog
	Mods        ModSource
	Equipment   *equipment.Equipment
	Sets        *equipment.SetTracker
	Base        BaseStats
	Progression *Progression
}

// Aggregator сводит прогрессию, экипировку и сетовые бонусы в итоговые статы.
//
// Изменения экипировки и опыта только помечают статы грязными. Пересчёт
// выполняется в Tick (не чаще раза за тик) или явно через RebuildNow.
type Aggregator struct {
	src Sources

	dirty                atomic.Bool
	warnedMissingCatalog atomic.Bool

	mu      sync.RWMutex
	gear    model.PrimaryStats
	total   model.PrimaryStats
	derived model.DerivedStats
	percent []model.StatModifier

	unsubscribe func()
}

// NewAggregator создаёт агрегатор, подписанный на экипировку и прогрессию,
// и сразу выполняет первый пересчёт.
func NewAggregator(src Sources) *Aggregator {
	if src.Progression == nil {
		src.Progression = NewProgression(data.NewExperienceCurve(data.DefaultXPPerLevel))
	}
	a := &Aggregator{src: src}

	if src.Equipment != nil {
		a.unsubscribe = src.Equipment.Subscribe(a.MarkDirty)
	}
	src.Progression.OnLevelUp(func(model.StatType, int32) { a.MarkDirty() })

	a.RebuildNow()
	return a
}

// Close отписывает агрегатор от экипировки.
func (a *Aggregator) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// MarkDirty помечает статы для пересчёта в следующем Tick.
func (a *Aggregator) MarkDirty() {
	a.dirty.Store(true)
}

// Dirty reports whether a rebuild is pending.
func (a *Aggregator) Dirty() bool {
	return a.dirty.Load()
}

// Tick пересчитывает статы, если они помечены грязными.
// Возвращает true, если пересчёт был выполнен.
func (a *Aggregator) Tick() bool {
	if !a.dirty.Load() {
		return false
	}
	a.RebuildNow()
	return true
}

// AddXp начисляет опыт навыку и помечает статы грязными.
func (a *Aggregator) AddXp(stat model.StatType, amount int64) (level int32, leveledUp bool) {
	level, leveledUp = a.src.Progression.AddXp(stat, amount)
	if amount > 0 && stat.IsPrimary() {
		a.MarkDirty()
	}
	return level, leveledUp
}

// OnLevelUp регистрирует слушателя повышения уровня навыка.
func (a *Aggregator) OnLevelUp(fn LevelUpFunc) {
	a.src.Progression.OnLevelUp(fn)
}

// Progression возвращает прогрессию персонажа.
func (a *Aggregator) Progression() *Progression {
	return a.src.Progression
}

// Leveled возвращает прогрессию навыков.
func (a *Aggregator) Leveled() model.LeveledStats {
	return a.src.Progression.Snapshot()
}

// GearBonus возвращает бонус primary stats от экипировки и сетов.
func (a *Aggregator) GearBonus() model.PrimaryStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gear
}

// TotalPrimary возвращает Leveled + GearBonus.
func (a *Aggregator) TotalPrimary() model.PrimaryStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total
}

// Derived возвращает итоговые боевые числа.
func (a *Aggregator) Derived() model.DerivedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.derived
}

// PercentMods возвращает процентные модификаторы экипировки и сетов.
// Правила их стакинга не определены, в итоговые статы они не входят.
func (a *Aggregator) PercentMods() []model.StatModifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.percent)
}

// HitChance возвращает шанс попадания по цели с защитой enemyDefense.
func (a *Aggregator) HitChance(enemyDefense int32) float64 {
	return ComputeHitChance(a.TotalPrimary().Attack, enemyDefense)
}

// RebuildNow пересчитывает все статы синхронно. Идемпотентен.
func (a *Aggregator) RebuildNow() {
	a.dirty.Store(false)

	leveled := a.src.Progression.Snapshot().Levels()
	baseDamage, baseMaxHealth := a.baseStats()

	if !a.src.Catalog.Loaded() {
		if !a.warnedMissingCatalog.Swap(true) {
			slog.Warn("item catalog not loaded, stats fall back to base values")
		}

		a.mu.Lock()
		a.gear = model.PrimaryStats{}
		a.total = leveled
		a.percent = nil
		a.derived = ComputeDerived(leveled, baseDamage, baseMaxHealth, 0, 0, 0)
		a.mu.Unlock()
		return
	}

	var acc accumulator
	a.accumulateEquipment(&acc)
	a.accumulateSets(&acc)

	total := leveled.Plus(acc.gear)
	derived := ComputeDerived(total, baseDamage, baseMaxHealth, acc.damage, acc.maxHealth, acc.drFlat)

	a.mu.Lock()
	a.gear = acc.gear
	a.total = total
	a.percent = acc.percent
	a.derived = derived
	a.mu.Unlock()
}

// Dump пишет текущие статы в лог.
func (a *Aggregator) Dump() {
	a.mu.RLock()
	gear, total, derived := a.gear, a.total, a.derived
	percent := len(a.percent)
	a.mu.RUnlock()

	slog.Info("stats dump",
		"leveled", a.Leveled().Levels(),
		"gear_bonus", gear,
		"total_primary", total,
		"derived", derived,
		"percent_mods", percent)
}

func (a *Aggregator) baseStats() (damage, maxHealth int32) {
	if a.src.Base == nil {
		return 0, 1
	}
	return a.src.Base.BaseDamage(), a.src.Base.BaseMaxHealth()
}

// accumulateEquipment обходит слоты по порядку. Одна и та же ссылка учитывается
// один раз, в первом слоте, где встретилась.
func (a *Aggregator) accumulateEquipment(acc *accumulator) {
	if a.src.Equipment == nil || a.src.Mods == nil {
		return
	}

	equipped := a.src.Equipment.Snapshot()
	seen := make(map[model.ItemRef]struct{}, len(equipped))
	for _, slot := range model.EquipSlots {
		ref, ok := equipped[slot]
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}

		acc.add(a.src.Mods.StatMods(ref), slot.IsHand())
	}
}

// accumulateSets добавляет модификаторы активных тиров сетов.
// Урон от сетов учитывается независимо от слота.
func (a *Aggregator) accumulateSets(acc *accumulator) {
	if a.src.Sets == nil {
		return
	}
	a.src.Sets.RebuildCounts()
	counts := a.src.Sets.Counts()

	ids := make([]string, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		set, ok := a.src.Catalog.Set(id)
		if !ok {
			continue
		}
		for _, tier := range set.ActiveTiers(counts[id]) {
			acc.add(tier.Modifiers, true)
		}
	}
}

type accumulator struct {
	gear      model.PrimaryStats
	damage    int32
	maxHealth int32
	drFlat    int32
	percent   []model.StatModifier
}

func (acc *accumulator) add(mods []model.StatModifier, damageAllowed bool) {
	for _, m := range mods {
		if m.Percent {
			acc.percent = append(acc.percent, m)
			continue
		}
		v := flatValue(m.Value)
		if v == 0 {
			continue
		}

		acc.gear.Add(m.Stat, v)

		switch {
		case m.Stat == model.StatMaxHealth:
			acc.maxHealth += v
		case m.Stat == model.StatDefense:
			acc.drFlat += v
		case m.Stat.IsDamage() && damageAllowed:
			acc.damage += v
		}
	}
}

// flatValue округляет модификатор до ближайшего целого (половина к чётному); отрицательные дают 0.
func flatValue(v float64) int32 {
	r := math.RoundToEven(v)
	switch {
	case math.IsNaN(r) || r <= 0:
		return 0
	case r > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(r)
}
