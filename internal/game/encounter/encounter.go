package encounter

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/game/character"
	"github.com/udisondev/lootforge/internal/game/deathdrop"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/model"
	"github.com/udisondev/lootforge/internal/world"
)

// Config — параметры боёв с врагами зоны.
type Config struct {
	Interval     time.Duration `yaml:"interval"`
	Table        string        `yaml:"table"`
	Tuning       string        `yaml:"tuning"` // пусто — без zone tuning
	Tier         data.LootTier `yaml:"tier"`
	DropChance   float64       `yaml:"drop_chance"`
	EnemyDamage  int32         `yaml:"enemy_damage"`
	EnemyDefense int32         `yaml:"enemy_defense"`
	PickupRadius int32         `yaml:"pickup_radius"`
	Seed         uint64        `yaml:"seed"` // 0 — случайный
}

// DefaultConfig возвращает бои с рядовыми врагами первой зоны.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Second,
		Table:        "zone1_trash",
		Tuning:       "zone1",
		Tier:         data.LootTierTrash,
		DropChance:   0.3,
		EnemyDamage:  4,
		EnemyDefense: 1,
		PickupRadius: 150,
	}
}

// Deps — общие сервисы мира.
type Deps struct {
	Catalog   *data.Catalog
	Registry  *loot.Registry
	Ground    *world.Ground
	Evaluator *deathdrop.ValueEvaluator
	Town      model.Location
}

// Outcome — итог одного раунда боя.
type Outcome struct {
	Hit       bool
	Damage    int32
	Drop      model.ItemRef
	Extra     []model.ItemRef // бонусные броски и части сета
	Collected int
	Equipped  int
	Died      bool
	Death     deathdrop.Result
}

type participant struct {
	ch       *character.Character
	resolver *deathdrop.Resolver
}

// Encounter проводит раунды боя для присоединившихся персонажей.
type Encounter struct {
	cfg    Config
	deps   Deps
	roller *loot.Roller
	table  *data.LootTable
	tuning *data.ZoneTuning

	setDrops []*data.SetDropConfig
	pity     *loot.SetPity

	rngMu sync.Mutex
	rng   *rand.Rand

	nextEnemy atomic.Int64

	mu           sync.RWMutex
	participants map[int64]*participant
}

// New проверяет таблицу и настройку зоны и создаёт Encounter.
func New(cfg Config, deps Deps) (*Encounter, error) {
	if deps.Catalog == nil || deps.Registry == nil || deps.Ground == nil {
		return nil, fmt.Errorf("encounter: catalog, registry and ground are required")
	}
	table, ok := deps.Catalog.LootTable(cfg.Table)
	if !ok {
		return nil, fmt.Errorf("encounter: unknown loot table %q", cfg.Table)
	}
	var tuning *data.ZoneTuning
	if cfg.Tuning != "" {
		if tuning, ok = deps.Catalog.ZoneTuning(cfg.Tuning); !ok {
			return nil, fmt.Errorf("encounter: unknown zone tuning %q", cfg.Tuning)
		}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	cfg.Tier = data.ParseLootTier(string(cfg.Tier))
	cfg.DropChance = min(1, max(0, cfg.DropChance))
	if deps.Evaluator == nil {
		deps.Evaluator = deathdrop.NewValueEvaluator(deps.Registry, deathdrop.DefaultTownScrollID, deathdrop.DefaultTownScrollValue)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Encounter{
		cfg:          cfg,
		deps:         deps,
		roller:       loot.NewRoller(deps.Catalog),
		table:        table,
		tuning:       tuning,
		setDrops:     deps.Catalog.SetDrops(table.ID),
		pity:         loot.NewSetPity(),
		rng:          rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
		participants: make(map[int64]*participant),
	}, nil
}

// Join добавляет персонажа в бой. У каждого персонажа свой death resolver.
func (e *Encounter) Join(ch *character.Character) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.participants[ch.ID()] = &participant{
		ch: ch,
		resolver: deathdrop.NewResolver(deathdrop.Config{
			Evaluator: e.deps.Evaluator,
			Spawner:   e.deps.Ground,
			Respawner: deathdrop.TownRespawner{Town: e.deps.Town},
			Releaser:  e.deps.Registry,
		}),
	}
	slog.Debug("character joined encounter", "character", ch.Name(), "table", e.table.ID)
}

// Leave убирает персонажа из боя.
func (e *Encounter) Leave(id int64) {
	e.mu.Lock()
	delete(e.participants, id)
	e.mu.Unlock()
}

// Count returns the number of fighting characters.
func (e *Encounter) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.participants)
}

// Run проводит раунды с периодом Interval до отмены контекста.
func (e *Encounter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.RoundAll()
		}
	}
}

// RoundAll проводит по раунду для каждого участника в порядке id.
func (e *Encounter) RoundAll() {
	e.mu.RLock()
	ps := make([]*participant, 0, len(e.participants))
	for _, p := range e.participants {
		ps = append(ps, p)
	}
	e.mu.RUnlock()

	slices.SortFunc(ps, func(a, b *participant) int { return cmp.Compare(a.ch.ID(), b.ch.ID()) })
	for _, p := range ps {
		e.round(p)
	}
}

// Round проводит один раунд для персонажа. false — персонаж не в бою.
func (e *Encounter) Round(id int64) (Outcome, bool) {
	e.mu.RLock()
	p, ok := e.participants[id]
	e.mu.RUnlock()
	if !ok {
		return Outcome{}, false
	}
	return e.round(p), true
}

func (e *Encounter) round(p *participant) Outcome {
	ch := p.ch
	var out Outcome

	if ch.IsDead() {
		out.Died = true
		out.Death = p.resolver.HandleDeath(ch)
		return out
	}

	ch.SetTarget(e.nextEnemy.Add(1))

	hitChance := ch.Stats().HitChance(e.cfg.EnemyDefense)
	if e.float() < hitChance {
		out.Hit = true
		out.Damage = ch.Stats().Derived().DamageFinal
		ch.DealDamage(out.Damage, e.combatStyle(ch), e.cfg.Tier)

		if e.float() < e.cfg.DropChance {
			out.Drop, out.Extra = e.dropLoot(ch.Location())
		}
	}

	if ch.TakeDamage(e.cfg.EnemyDamage) {
		out.Died = true
		out.Death = p.resolver.HandleDeath(ch)
		return out
	}

	out.Collected, out.Equipped = e.collect(ch)
	return out
}

// dropLoot роллит предмет из таблицы и кладёт его на землю.
// Если основной предмет выпал, к нему добавляются бонусные броски тира и части сетов.
func (e *Encounter) dropLoot(at model.Location) (model.ItemRef, []model.ItemRef) {
	seed := loot.Seed(int64(e.randUint64()))
	opts := loot.RollOptions{Seed: seed}

	inst, ok := e.roller.RollFromTableTuned(e.table, e.tuning, e.cfg.Tier, opts)
	if !ok {
		return model.ItemRef{}, nil
	}
	ref, ok := e.spawn(at, inst)
	if !ok {
		return model.ItemRef{}, nil
	}

	extra := e.roller.RollBonus(e.table, e.tuning, e.cfg.Tier, opts)
	for _, sd := range e.setDrops {
		extra = append(extra, e.roller.RollSetDrops(sd, loot.SetDropOptions{
			Tier:      e.cfg.Tier,
			ItemLevel: inst.ItemLevel,
			RarityID:  inst.RarityID,
			Seed:      seed,
			Pity:      e.pity,
		})...)
	}

	var refs []model.ItemRef
	for _, x := range extra {
		if r, ok := e.spawn(at, x); ok {
			refs = append(refs, r)
		}
	}
	return ref, refs
}

// spawn регистрирует instance и кладёт его на землю.
func (e *Encounter) spawn(at model.Location, inst *model.ItemInstance) (model.ItemRef, bool) {
	ref := e.deps.Registry.RegisterRolledInstance(inst)
	if e.deps.Ground.SpawnPickup(at, ref, 1) == nil {
		e.deps.Registry.Release(ref)
		return model.ItemRef{}, false
	}
	slog.Debug("loot dropped",
		"ref", ref.String(),
		"base", inst.BaseItemID,
		"rarity", inst.RarityID,
		"level", inst.ItemLevel)
	return ref, true
}

// collect подбирает предметы рядом и надевает те, чей слот пуст.
func (e *Encounter) collect(ch *character.Character) (collected, equipped int) {
	for _, pk := range e.deps.Ground.PickupsNear(ch.Location(), e.cfg.PickupRadius) {
		if !e.deps.Ground.Collect(pk.ID(), ch.Inventory()) {
			continue
		}
		collected++

		def, ok := e.deps.Registry.TryGetItem(pk.Ref())
		if !ok || !def.Equippable() || !ch.Equipment().Get(def.Slot).IsZero() {
			continue
		}
		if ok, _ := ch.Equip(pk.Ref()); ok {
			equipped++
		}
	}
	return collected, equipped
}

// combatStyle выбирает навык по оружию в правой руке.
func (e *Encounter) combatStyle(ch *character.Character) model.StatType {
	def, ok := e.deps.Registry.TryGetItem(ch.Equipment().Get(model.SlotRightHand))
	if !ok {
		return model.StatStrength
	}
	for _, m := range def.BaseStats {
		switch m.Stat {
		case model.StatRangedDamage:
			return model.StatRanged
		case model.StatMagicDamage:
			return model.StatMagic
		}
	}
	return model.StatStrength
}

func (e *Encounter) float() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func (e *Encounter) randUint64() uint64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Uint64()
}
