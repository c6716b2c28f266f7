package deathdrop

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/lootforge/internal/game/equipment"
	"github.com/udisondev/lootforge/internal/model"
)

// DroppedItem — запись списка выпавших предметов.
type DroppedItem struct {
	Ref    model.ItemRef
	Amount int32
}

// Health — здоровье персонажа, восстанавливаемое при респавне.
type Health interface {
	Revive()
}

// Character — погибший персонаж с точки зрения Resolver.
type Character interface {
	Location() model.Location
	Teleport(loc model.Location)
	ResetState()
	Inventory() *model.Inventory
	Equipment() *equipment.Equipment
	Health() Health
}

// Pile — кучка выпавших предметов в мире.
type Pile interface {
	// Items возвращает ещё не подобранные записи.
	Items() []DroppedItem
	// Active reports whether the pile is still in the world and not fully looted.
	Active() bool
	Destroy()
}

// PileSpawner создаёт кучку в мире.
type PileSpawner interface {
	SpawnPile(at model.Location, items []DroppedItem) Pile
}

// Respawner возвращает персонажа в игру после смерти.
type Respawner interface {
	Respawn(ch Character, health Health)
}

// Releaser освобождает rolled instance, который больше нигде не хранится.
type Releaser interface {
	Release(ref model.ItemRef) bool
}

// TownRespawner телепортирует в город, восстанавливает здоровье и сбрасывает состояние.
type TownRespawner struct {
	Town model.Location
}

func (r TownRespawner) Respawn(ch Character, health Health) {
	ch.Teleport(r.Town)
	if health != nil {
		health.Revive()
	}
	ch.ResetState()
}

// Config — зависимости Resolver.
type Config struct {
	Evaluator *ValueEvaluator
	Spawner   PileSpawner
	Respawner Respawner
	Releaser  Releaser
}

// Result — итог обработки смерти.
type Result struct {
	// Handled=false означает повторный вход или отсутствие персонажа.
	Handled     bool
	Protected   model.ItemRef
	Dropped     []DroppedItem
	LostEntries int
}

// Resolver решает, что персонаж теряет при смерти.
//
// Один защищённый предмет остаётся у персонажа, остальное выпадает в кучку.
// Неподобранная кучка от прошлой смерти уничтожается вместе с содержимым.
type Resolver struct {
	evaluator *ValueEvaluator
	spawner   PileSpawner
	respawner Respawner
	releaser  Releaser

	handling atomic.Bool

	mu         sync.Mutex
	activePile Pile
}

// NewResolver создаёт resolver. Без Evaluator используется оценщик без реестра.
func NewResolver(cfg Config) *Resolver {
	if cfg.Evaluator == nil {
		cfg.Evaluator = NewValueEvaluator(nil, DefaultTownScrollID, DefaultTownScrollValue)
	}
	return &Resolver{
		evaluator: cfg.Evaluator,
		spawner:   cfg.Spawner,
		respawner: cfg.Respawner,
		releaser:  cfg.Releaser,
	}
}

// ActivePile возвращает кучку последней смерти (nil, если её нет).
func (r *Resolver) ActivePile() Pile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activePile
}

// HandleDeath обрабатывает смерть, используя здоровье и инвентарь персонажа.
func (r *Resolver) HandleDeath(ch Character) Result {
	return r.HandlePlayerDeath(ch, nil, nil)
}

// HandlePlayerDeath обрабатывает смерть персонажа.
// nil health или inv берутся из самого персонажа.
//
// Повторный вход во время обработки игнорируется. Ошибки провайдеров
// не прерывают обработку: персонаж всегда респавнится.
func (r *Resolver) HandlePlayerDeath(ch Character, health Health, inv *model.Inventory) Result {
	if ch == nil {
		return Result{}
	}
	if !r.handling.CompareAndSwap(false, true) {
		slog.Debug("death already being handled, ignoring")
		return Result{}
	}
	defer r.handling.Store(false)

	if inv == nil {
		inv = ch.Inventory()
	}
	if health == nil {
		health = ch.Health()
	}
	deathLoc := ch.Location()

	res := Result{Handled: true}
	res.LostEntries = r.destroyActivePile()

	providers := buildProviders(inv, ch.Equipment())
	totals := AggregateCounts(providers)
	res.Protected = r.DetermineProtectedItem(totals)
	res.Dropped = BuildDropList(totals, res.Protected)

	if len(res.Dropped) > 0 {
		RemoveDropped(providers, res.Dropped)
		r.spawnPile(deathLoc, res.Dropped)
	}

	r.respawn(ch, health)

	protected := res.Protected.String()
	if protected == "" {
		protected = "(none)"
	}
	slog.Info("death handled",
		"protected", protected,
		"dropped_entries", len(res.Dropped),
		"location", deathLoc.String())

	return res
}

// buildProviders возвращает провайдеры в порядке списания: экипировка первой,
// чтобы изменения статов применились сразу.
func buildProviders(inv *model.Inventory, eq *equipment.Equipment) []Provider {
	providers := make([]Provider, 0, 2)
	if eq != nil {
		providers = append(providers, NewEquipmentProvider(eq))
	}
	if inv != nil {
		providers = append(providers, NewInventoryProvider(inv))
	}
	return providers
}

// AggregateCounts суммирует предметы всех провайдеров.
// Провайдер, который паникует, пропускается.
func AggregateCounts(providers []Provider) map[model.ItemRef]int32 {
	totals := make(map[model.ItemRef]int32)
	for _, p := range providers {
		if p == nil {
			continue
		}
		items := safeCall[map[model.ItemRef]int32](p.Name()+".Items", nil, p.Items)
		for ref, n := range items {
			if ref.IsZero() || n <= 0 {
				continue
			}
			totals[ref] += n
		}
	}
	return totals
}

// DetermineProtectedItem выбирает предмет, который персонаж сохранит.
//
// Свиток города защищается всегда, если он есть. Иначе выбирается предмет с
// наибольшей ценностью; при равенстве побеждает меньший id (ordinal, case-insensitive).
func (r *Resolver) DetermineProtectedItem(totals map[model.ItemRef]int32) model.ItemRef {
	if scroll := r.evaluator.TownScroll(); totals[scroll] > 0 {
		return scroll
	}

	var (
		best      model.ItemRef
		bestScore int
	)
	for ref, n := range totals {
		if ref.IsZero() || n <= 0 {
			continue
		}
		score := safeCall("evaluate", 0, func() int { return r.evaluator.Evaluate(ref) })

		switch {
		case best.IsZero(), score > bestScore:
			best, bestScore = ref, score
		case score == bestScore && model.CompareRefs(ref, best) < 0:
			best = ref
		}
	}
	return best
}

// BuildDropList возвращает всё, кроме одной единицы защищённого предмета.
// Записи с нулевым количеством опускаются; список отсортирован по id.
func BuildDropList(totals map[model.ItemRef]int32, protected model.ItemRef) []DroppedItem {
	dropped := make([]DroppedItem, 0, len(totals))
	for _, ref := range slices.SortedFunc(maps.Keys(totals), model.CompareRefs) {
		n := totals[ref]
		if ref.IsZero() || n <= 0 {
			continue
		}
		if ref == protected {
			n--
		}
		if n > 0 {
			dropped = append(dropped, DroppedItem{Ref: ref, Amount: n})
		}
	}
	return dropped
}

// RemoveDropped забирает выпавшие предметы у провайдеров по порядку.
// Возвращает количество, которое забрать не удалось.
func RemoveDropped(providers []Provider, dropped []DroppedItem) int32 {
	var missing int32
	for _, it := range dropped {
		remaining := it.Amount
		for _, p := range providers {
			if remaining <= 0 {
				break
			}
			if p == nil {
				continue
			}
			have := safeCall(p.Name()+".Count", 0, func() int32 { return p.Count(it.Ref) })
			if have <= 0 {
				continue
			}
			take := min(remaining, have)
			removed := safeCall(p.Name()+".Remove", 0, func() int32 { return p.Remove(it.Ref, take) })
			remaining -= max(0, min(removed, take))
		}
		if remaining > 0 {
			slog.Warn("dropped item not fully removed",
				"item", it.Ref.String(),
				"missing", remaining)
			missing += remaining
		}
	}
	return missing
}

// destroyActivePile уничтожает неподобранную кучку прошлой смерти.
// Возвращает число потерянных записей.
func (r *Resolver) destroyActivePile() int {
	r.mu.Lock()
	pile := r.activePile
	r.activePile = nil
	r.mu.Unlock()

	if pile == nil || !safeCall("pile.Active", false, pile.Active) {
		return 0
	}

	lost := safeCall[[]DroppedItem]("pile.Items", nil, pile.Items)
	safeDo("pile.Destroy", pile.Destroy)

	if r.releaser != nil {
		for _, it := range lost {
			if it.Ref.IsRolled() {
				r.releaser.Release(it.Ref)
			}
		}
	}

	slog.Warn("previous death pile destroyed, items lost", "entries", len(lost))
	return len(lost)
}

func (r *Resolver) spawnPile(at model.Location, dropped []DroppedItem) {
	if r.spawner == nil {
		slog.Warn("no pile spawner configured, dropped items are lost", "entries", len(dropped))
		return
	}
	pile := safeCall[Pile]("spawner.SpawnPile", nil, func() Pile {
		return r.spawner.SpawnPile(at, slices.Clone(dropped))
	})
	if pile == nil {
		return
	}

	r.mu.Lock()
	r.activePile = pile
	r.mu.Unlock()
}

func (r *Resolver) respawn(ch Character, health Health) {
	if r.respawner == nil {
		if health != nil {
			safeDo("health.Revive", health.Revive)
		}
		return
	}
	safeDo("respawn", func() { r.respawner.Respawn(ch, health) })
}

// safeCall вызывает fn; при панике возвращает fallback.
func safeCall[T any](op string, fallback T, fn func() T) T {
	out := fallback
	safeDo(op, func() { out = fn() })
	return out
}

// safeDo изолирует панику коллаборатора от обработки смерти.
func safeDo(op string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("death drop collaborator panicked", "op", op, "panic", rec)
		}
	}()
	fn()
}
