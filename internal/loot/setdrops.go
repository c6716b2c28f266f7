package loot

import (
	"log/slog"
	"sync"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// Соли производных seed. Дополнительные броски не повторяют основной roll.
const (
	bonusGateSalt  = 0x7f4a7c15
	bonusRollSalt  = 0x9e3779b9
	setDropSalt    = 0x5e7d0f
	setPieceSalt   = 0x2c1b3c6d
	setPieceStride = 997
	fallbackRarity = "common"
	fallbackScalar = 1.0
)

// deriveSeed смешивает seed с солью. nil остаётся nil.
func deriveSeed(seed *int64, mix int64) *int64 {
	if seed == nil {
		return nil
	}
	return Seed(*seed ^ mix)
}

// RollBonus роллит дополнительные предметы тира с той же таблицы:
// BonusRolls попыток, каждая проходит с шансом BonusRollChance.
// Без zone tuning дополнительных бросков нет.
func (r *Roller) RollBonus(table *data.LootTable, tuning *data.ZoneTuning, tier data.LootTier, opts RollOptions) []*model.ItemInstance {
	if table == nil || tuning == nil {
		return nil
	}
	tt := tuning.Tier(tier)
	chance := min(1, max(0, tt.BonusRollChance))
	if tt.BonusRolls <= 0 || chance <= 0 {
		return nil
	}

	gate := newRand(deriveSeed(opts.Seed, bonusGateSalt))
	var out []*model.ItemInstance
	for i := range int64(tt.BonusRolls) {
		if gate.Float64() >= chance {
			continue
		}
		ro := opts
		ro.Seed = deriveSeed(opts.Seed, bonusRollSalt+i)
		if inst, ok := r.RollFromTableTuned(table, tuning, tier, ro); ok {
			out = append(out, inst)
		}
	}
	return out
}

// SetPity считает убийства боссов без дропа сета, по setID.
// Safe for concurrent use.
type SetPity struct {
	mu    sync.Mutex
	kills map[string]int32
}

// NewSetPity создаёт пустой счётчик.
func NewSetPity() *SetPity {
	return &SetPity{kills: make(map[string]int32)}
}

// Kills возвращает число убийств боссов с последнего дропа сета.
func (p *SetPity) Kills(setID string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills[data.NormalizeID(setID)]
}

func (p *SetPity) bump(setID string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kills[setID]++
	return p.kills[setID]
}

func (p *SetPity) reset(setID string) {
	p.mu.Lock()
	p.kills[setID] = 0
	p.mu.Unlock()
}

// SetDropOptions — параметры броска частей сета.
type SetDropOptions struct {
	Tier      data.LootTier
	ItemLevel int32  // < 1 трактуется как 1
	RarityID  string // редкость основного дропа; пусто — common
	Seed      *int64 // seed основного дропа; nil — недетерминированный бросок
	Pity      *SetPity
}

// RollSetDrops бросает шанс тира на части сета cfg.
//
// При попадании роллится PiecesOnHit частей (случайные части сета, с повторами).
// Для босса с включённым pity каждый бросок увеличивает счётчик; когда он
// достигает порога, промах превращается в гарантированную одну часть.
// Любой дроп сета у босса сбрасывает счётчик.
func (r *Roller) RollSetDrops(cfg *data.SetDropConfig, opts SetDropOptions) []*model.ItemInstance {
	if cfg == nil || r.catalog == nil {
		return nil
	}
	set, ok := r.catalog.Set(cfg.SetID)
	if !ok {
		return nil
	}
	pieces := make([]*data.ItemDef, 0, len(set.Pieces))
	for _, id := range set.Pieces {
		if def, ok := r.catalog.Item(id); ok {
			pieces = append(pieces, def)
		}
	}
	if len(pieces) == 0 {
		return nil
	}

	tier := data.ParseLootTier(string(opts.Tier))
	level := max(1, opts.ItemLevel)
	rng := newRand(deriveSeed(opts.Seed, setDropSalt^tierIndex(tier)^int64(level)))

	chance := min(1, max(0, cfg.Tier(tier).ChancePercent/100))
	count := cfg.PiecesOnHit(tier)

	pity := tier == data.LootTierBoss && cfg.PityEnabled() && opts.Pity != nil
	var kills int32
	if pity {
		kills = opts.Pity.bump(cfg.SetID)
	}

	hit := rng.Float64() < chance
	forced := false
	if !hit && pity && cfg.BossPity.GuaranteeOnePiece && kills >= cfg.BossPity.ThresholdKills {
		hit, forced, count = true, true, 1
	}
	if !hit {
		return nil
	}

	rarity := r.setRarity(opts.RarityID)
	out := make([]*model.ItemInstance, 0, count)
	for i := range count {
		base := pieces[rng.IntN(len(pieces))]
		seed := deriveSeed(opts.Seed, setPieceSalt+int64(i)*setPieceStride)
		if rarity == nil {
			out = append(out, &model.ItemInstance{
				BaseItemID: base.ID,
				RarityID:   fallbackRarity,
				ItemLevel:  level,
				BaseScalar: fallbackScalar,
			})
			continue
		}
		if inst, ok := r.RollItem(base, rarity, RollOptions{ItemLevel: level, Seed: seed}); ok {
			out = append(out, inst)
		}
	}

	if pity {
		opts.Pity.reset(cfg.SetID)
	}
	slog.Debug("set pieces dropped",
		"set", cfg.SetID,
		"tier", string(tier),
		"pieces", len(out),
		"pity", forced,
		"kills", kills)
	return out
}

// setRarity возвращает редкость основного дропа или common.
func (r *Roller) setRarity(id string) *data.RarityDef {
	if id != "" {
		if rar, ok := r.catalog.Rarity(id); ok {
			return rar
		}
	}
	if rar, ok := r.catalog.Rarity(fallbackRarity); ok {
		return rar
	}
	return nil
}

func tierIndex(tier data.LootTier) int64 {
	switch tier {
	case data.LootTierElite:
		return 1
	case data.LootTierBoss:
		return 2
	default:
		return 0
	}
}
