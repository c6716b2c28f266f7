package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/lootforge/internal/db"
	"github.com/udisondev/lootforge/internal/model"
	"github.com/udisondev/lootforge/internal/testutil"
)

type instanceMap map[model.ItemRef]*model.ItemInstance

func (m instanceMap) TryGetRolledInstance(ref model.ItemRef) (*model.ItemInstance, bool) {
	inst, ok := m[ref]
	return inst, ok
}

func TestRepositories(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()

	chars := db.NewCharacterRepository(pool)
	instances := db.NewInstanceRepository(pool)
	svc := db.NewLoadoutService(pool, chars, instances)

	t.Run("instance upsert replaces affixes", func(t *testing.T) {
		first := &model.ItemInstance{
			BaseItemID: "sword_iron",
			RarityID:   "Rare",
			ItemLevel:  7,
			BaseScalar: 1.1,
			Affixes: []model.AffixRoll{
				{AffixID: "sharp", Value: 3},
				{AffixID: "precise", Value: 1.5},
			},
		}
		require.NoError(t, instances.Save(ctx, "aa11", first))

		second := first.Clone()
		second.Affixes = []model.AffixRoll{{AffixID: "mighty", Value: 2}}
		require.NoError(t, instances.Save(ctx, "aa11", second))

		all, err := instances.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, second, all["aa11"])

		require.NoError(t, instances.Delete(ctx, "aa11"))
		all, err = instances.LoadAll(ctx)
		require.NoError(t, err)
		assert.NotContains(t, all, "aa11")
	})

	t.Run("loadout round trip", func(t *testing.T) {
		loc := model.NewLocation(100, -200, 30, 512)
		id, err := chars.Create(ctx, "Tester", loc)
		require.NoError(t, err)

		found, err := chars.FindByName(ctx, "TESTER")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, loc, found.Location)
		assert.Nil(t, found.LastSaved)

		axe, ring := model.RolledRef("c0ffee"), model.RolledRef("beef01")
		src := instanceMap{
			axe:  {BaseItemID: "greataxe", RarityID: "Epic", ItemLevel: 12, BaseScalar: 1.15},
			ring: {BaseItemID: "ring_copper", RarityID: "Magic", ItemLevel: 3, BaseScalar: 1, Affixes: []model.AffixRoll{{AffixID: "vital", Value: 5}}},
		}

		skills := model.NewLeveledStats()
		skills.SetSkill(model.StatMining, model.SkillProgress{Level: 3, XP: 250})
		lo := model.Loadout{
			Location: model.NewLocation(1, 2, 3, 4),
			Skills:   skills,
			Equipment: map[model.EquipmentSlot]model.ItemRef{
				model.SlotRightHand: axe,
				model.SlotLeftHand:  axe,
				model.SlotHelm:      model.StaticRef("helm_initiate"),
			},
			Inventory: map[model.ItemRef]int32{
				model.StaticRef("ore_copper"): 5,
				ring:                          1,
				model.RolledRef("gone"):       1,
			},
		}
		require.NoError(t, svc.Save(ctx, id, lo, src))

		got, err := svc.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lo.Location, got.Location)
		assert.Equal(t, lo.Equipment, got.Equipment)
		assert.Equal(t, lo.Inventory, got.Inventory)
		assert.Equal(t, int64(250), got.Skills.Skill(model.StatMining).XP)
		assert.Zero(t, got.Skills.Skill(model.StatAttack).XP)

		all, err := instances.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, src[axe], all["c0ffee"])
		assert.Equal(t, src[ring], all["beef01"])
		assert.NotContains(t, all, "gone")

		// Повторное сохранение заменяет, а не дополняет
		lo.Inventory = map[model.ItemRef]int32{ring: 1}
		delete(lo.Equipment, model.SlotHelm)
		require.NoError(t, svc.Save(ctx, id, lo, src))

		got, err = svc.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lo.Inventory, got.Inventory)
		assert.Len(t, got.Equipment, 2)

		found, err = chars.FindByName(ctx, "tester")
		require.NoError(t, err)
		assert.NotNil(t, found.LastSaved)

		list, err := chars.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Tester", list[0].Name)
	})

	t.Run("unreferenced instances are pruned", func(t *testing.T) {
		orphan := &model.ItemInstance{BaseItemID: "bow_short", RarityID: "Common", ItemLevel: 1, BaseScalar: 1}
		require.NoError(t, instances.Save(ctx, "0bad", orphan))

		n, err := instances.DeleteUnreferenced(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := instances.LoadAll(ctx)
		require.NoError(t, err)
		assert.NotContains(t, all, "0bad")
		assert.Contains(t, all, "c0ffee", "equipped instance survives")
	})

	t.Run("missing character", func(t *testing.T) {
		found, err := chars.FindByName(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, found)

		_, err = chars.LoadLoadout(ctx, 987654)
		assert.ErrorIs(t, err, db.ErrCharacterNotFound)

		err = svc.Save(ctx, 987654, model.Loadout{}, instanceMap{})
		assert.ErrorIs(t, err, db.ErrCharacterNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		id, err := chars.Create(ctx, "Doomed", model.Location{})
		require.NoError(t, err)
		lo := model.Loadout{Inventory: map[model.ItemRef]int32{model.StaticRef("potion_minor"): 2}}
		require.NoError(t, svc.Save(ctx, id, lo, instanceMap{}))

		require.NoError(t, chars.Delete(ctx, id))
		_, err = chars.LoadLoadout(ctx, id)
		assert.ErrorIs(t, err, db.ErrCharacterNotFound)
	})
}
