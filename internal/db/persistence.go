package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/lootforge/internal/model"
)

// InstanceSource отдаёт rolled instance по ссылке (обычно loot.Registry).
type InstanceSource interface {
	TryGetRolledInstance(ref model.ItemRef) (*model.ItemInstance, bool)
}

// LoadoutService атомарно сохраняет снаряжение персонажа вместе с его rolled instances.
type LoadoutService struct {
	pool      *pgxpool.Pool
	charRepo  *CharacterRepository
	instances *InstanceRepository
}

// NewLoadoutService создаёт новый сервис.
func NewLoadoutService(pool *pgxpool.Pool, charRepo *CharacterRepository, instances *InstanceRepository) *LoadoutService {
	return &LoadoutService{
		pool:      pool,
		charRepo:  charRepo,
		instances: instances,
	}
}

// Save сохраняет instances, на которые ссылается снаряжение, и само снаряжение
// в одной транзакции. Ссылки на неизвестные instances сохраняются как есть
// и пропадут при следующей загрузке.
func (s *LoadoutService) Save(ctx context.Context, characterID int64, lo model.Loadout, src InstanceSource) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for character %d: %w", characterID, err)
	}
	defer rollback(ctx, tx, "character", characterID)

	saved := 0
	for _, ref := range lo.RolledRefs() {
		inst, ok := src.TryGetRolledInstance(ref)
		if !ok {
			slog.Warn("saving reference to unknown instance", "characterID", characterID, "ref", ref.String())
			continue
		}
		if err := s.instances.SaveTx(ctx, tx, ref.ID(), inst); err != nil {
			return fmt.Errorf("saving instances for character %d: %w", characterID, err)
		}
		saved++
	}

	if err := s.charRepo.SaveLoadoutTx(ctx, tx, characterID, lo); err != nil {
		return fmt.Errorf("saving loadout for character %d: %w", characterID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction for character %d: %w", characterID, err)
	}

	slog.Info("character loadout saved",
		"characterID", characterID,
		"instances", saved,
		"equipped", len(lo.Equipment),
		"stacks", len(lo.Inventory))
	return nil
}

// Load загружает снаряжение персонажа.
func (s *LoadoutService) Load(ctx context.Context, characterID int64) (model.Loadout, error) {
	return s.charRepo.LoadLoadout(ctx, characterID)
}
