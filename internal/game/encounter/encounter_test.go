package encounter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/game/character"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/model"
	"github.com/udisondev/lootforge/internal/world"
)

type rig struct {
	catalog  *data.Catalog
	registry *loot.Registry
	ground   *world.Ground
	enc      *Encounter
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	c, err := data.DefaultCatalog()
	require.NoError(t, err)

	reg := loot.NewRegistry(c)
	r := &rig{catalog: c, registry: reg, ground: world.NewGround(0, reg)}
	r.enc, err = New(cfg, Deps{
		Catalog:  c,
		Registry: reg,
		Ground:   r.ground,
		Town:     model.NewLocation(-1000, -1000, 0, 0),
	})
	require.NoError(t, err)
	return r
}

func (r *rig) newCharacter(t *testing.T, id int64) *character.Character {
	t.Helper()
	ch := character.New(id, "fighter", character.DefaultBase(), character.Deps{Catalog: r.catalog, Items: r.registry})
	t.Cleanup(ch.Close)
	return ch
}

func TestNew_Validation(t *testing.T) {
	c, err := data.DefaultCatalog()
	require.NoError(t, err)
	reg := loot.NewRegistry(c)
	deps := Deps{Catalog: c, Registry: reg, Ground: world.NewGround(0, reg)}

	cfg := DefaultConfig()
	cfg.Table = "zone9_nothing"
	_, err = New(cfg, deps)
	assert.ErrorContains(t, err, "unknown loot table")

	cfg = DefaultConfig()
	cfg.Tuning = "zone9"
	_, err = New(cfg, deps)
	assert.ErrorContains(t, err, "unknown zone tuning")

	_, err = New(DefaultConfig(), Deps{})
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Tuning = ""
	cfg.Tier = "BOSS"
	cfg.DropChance = 7
	enc, err := New(cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, data.LootTierBoss, enc.cfg.Tier)
	assert.Equal(t, 1.0, enc.cfg.DropChance)
}

func TestEncounter_LootLoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DropChance = 1
	cfg.EnemyDamage = 0
	cfg.Seed = 42
	r := newRig(t, cfg)

	ch := r.newCharacter(t, 1)
	r.enc.Join(ch)
	assert.Equal(t, 1, r.enc.Count())

	var hits, drops, collected, equipped int
	for range 200 {
		out, ok := r.enc.Round(ch.ID())
		require.True(t, ok)
		require.False(t, out.Died)
		if out.Hit {
			hits++
			require.False(t, out.Drop.IsZero(), "every hit drops with chance 1")
			drops += 1 + len(out.Extra)
		}
		collected += out.Collected
		equipped += out.Equipped
		ch.Tick()
	}

	assert.Positive(t, hits)
	assert.Equal(t, drops, collected, "drops land at the character's feet")
	assert.Positive(t, equipped)
	assert.Equal(t, drops, r.registry.Len(), "every drop is a registered instance")

	assert.Positive(t, ch.Progression().XP(model.StatAttack))
	assert.NotEmpty(t, ch.Equipment().Snapshot())
	assert.False(t, ch.Stats().Dirty())
	assert.NotZero(t, ch.Target())

	_, loose := r.ground.Counts()
	assert.Zero(t, loose)
}

func TestEncounter_DropIncludesBonusAndSetPieces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table = "zone1_boss"
	cfg.Tier = data.LootTierBoss
	cfg.Seed = 11
	r := newRig(t, cfg)

	r.enc.tuning = &data.ZoneTuning{
		ID: "always",
		Tiers: map[data.LootTier]data.ZoneTierTuning{
			data.LootTierBoss: {
				ItemLevel:       data.ItemLevelRange{Min: 9, Max: 9},
				BonusRolls:      2,
				BonusRollChance: 1,
			},
		},
	}
	r.enc.setDrops = []*data.SetDropConfig{{
		SetID: "abyssal_initiate",
		Tiers: map[data.LootTier]data.SetDropTier{
			data.LootTierBoss: {ChancePercent: 100, Pieces: 2},
		},
	}}

	at := model.NewLocation(10, 10, 0, 0)
	main, extra := r.enc.dropLoot(at)
	require.False(t, main.IsZero())
	require.Len(t, extra, 4, "two bonus rolls and two set pieces")
	assert.Len(t, r.ground.PickupsNear(at, 1), 5)
	assert.Equal(t, 5, r.registry.Len())

	var pieces int
	for _, ref := range extra[2:] {
		def, ok := r.registry.TryGetItem(ref)
		require.True(t, ok)
		assert.Equal(t, "abyssal_initiate", def.SetID)
		inst, ok := r.registry.TryGetRolledInstance(ref)
		require.True(t, ok)
		assert.Equal(t, int32(9), inst.ItemLevel, "set pieces use the main drop level")
		pieces++
	}
	assert.Equal(t, 2, pieces)
}

func TestEncounter_BossPityGuaranteesSetPiece(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Table = "zone1_boss"
	cfg.Tier = data.LootTierBoss
	cfg.Seed = 5
	r := newRig(t, cfg)
	require.Len(t, r.enc.setDrops, 1, "built-in catalog drops abyssal initiate from the boss table")

	sd := *r.enc.setDrops[0]
	sd.Tiers = map[data.LootTier]data.SetDropTier{data.LootTierBoss: {ChancePercent: 0, Pieces: 2}}
	r.enc.setDrops = []*data.SetDropConfig{&sd}
	r.enc.tuning = nil // без бонусных бросков

	at := model.NewLocation(0, 0, 0, 0)
	var pieces int
	for kill := 1; kill <= 25; kill++ {
		main, extra := r.enc.dropLoot(at)
		require.False(t, main.IsZero())
		for _, ref := range extra {
			def, ok := r.registry.TryGetItem(ref)
			require.True(t, ok)
			assert.Equal(t, "abyssal_initiate", def.SetID)
		}
		pieces += len(extra)
		assert.Equal(t, int32(kill%10), r.enc.pity.Kills("abyssal_initiate"), "kill %d", kill)
	}
	assert.Equal(t, 2, pieces, "one guaranteed piece on the 10th and 20th kill")
}

func TestEncounter_DeathRespawnsInTown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnemyDamage = 10_000
	cfg.DropChance = 0
	cfg.Seed = 7
	r := newRig(t, cfg)

	ch := r.newCharacter(t, 1)
	sword := model.StaticRef("sword_iron")
	ore := model.StaticRef("ore_copper")
	ch.Inventory().Add(sword, 1)
	ch.Inventory().Add(ore, 4)
	field := model.NewLocation(300, 300, 0, 0)
	ch.Teleport(field)
	r.enc.Join(ch)

	out, ok := r.enc.Round(ch.ID())
	require.True(t, ok)
	require.True(t, out.Died)
	require.True(t, out.Death.Handled)
	assert.Equal(t, sword, out.Death.Protected)

	assert.Equal(t, model.NewLocation(-1000, -1000, 0, 0), ch.Location())
	assert.False(t, ch.IsDead())
	assert.False(t, ch.InCombat())
	assert.Equal(t, map[model.ItemRef]int32{sword: 1}, ch.Inventory().Snapshot())
	assert.Len(t, r.ground.PickupsNear(field, 1), 1)

	_, ok = r.enc.Round(99)
	assert.False(t, ok)
}

func TestEncounter_CombatStyleFollowsWeapon(t *testing.T) {
	r := newRig(t, DefaultConfig())
	ch := r.newCharacter(t, 1)
	assert.Equal(t, model.StatStrength, r.enc.combatStyle(ch))

	bow := model.StaticRef("bow_short")
	ch.Inventory().Add(bow, 1)
	ok, _ := ch.Equip(bow)
	require.True(t, ok)
	assert.Equal(t, model.StatRanged, r.enc.combatStyle(ch))
}

func TestEncounter_Run(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.EnemyDamage = 0
	r := newRig(t, cfg)
	ch := r.newCharacter(t, 1)
	r.enc.Join(ch)
	r.enc.Join(r.newCharacter(t, 2))
	r.enc.Leave(2)
	assert.Equal(t, 1, r.enc.Count())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := r.enc.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotZero(t, ch.Target(), "at least one round was fought")
}
