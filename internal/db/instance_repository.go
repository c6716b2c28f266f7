package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/lootforge/internal/model"
)

// InstanceRepository хранит rolled instances.
type InstanceRepository struct {
	db *pgxpool.Pool
}

// NewInstanceRepository создаёт новый InstanceRepository.
func NewInstanceRepository(db *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// SaveTx сохраняет instance в существующей транзакции (upsert, affixes заменяются целиком).
func (r *InstanceRepository) SaveTx(ctx context.Context, tx pgx.Tx, id string, inst *model.ItemInstance) error {
	query := `
		INSERT INTO item_instances (instance_id, base_item_id, rarity_id, item_level, base_scalar)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instance_id) DO UPDATE SET
			base_item_id = EXCLUDED.base_item_id,
			rarity_id = EXCLUDED.rarity_id,
			item_level = EXCLUDED.item_level,
			base_scalar = EXCLUDED.base_scalar
	`
	if _, err := tx.Exec(ctx, query,
		id, inst.BaseItemID, inst.RarityID, max(1, inst.ItemLevel), inst.BaseScalar,
	); err != nil {
		return fmt.Errorf("upserting instance %s: %w", id, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM item_instance_affixes WHERE instance_id = $1`, id); err != nil {
		return fmt.Errorf("deleting affixes of instance %s: %w", id, err)
	}
	if len(inst.Affixes) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(inst.Affixes))
	for i, a := range inst.Affixes {
		rows = append(rows, []any{id, int16(i), a.AffixID, a.Value})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"item_instance_affixes"},
		[]string{"instance_id", "position", "affix_id", "value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("inserting affixes of instance %s: %w", id, err)
	}
	return nil
}

// Save сохраняет instance в отдельной транзакции.
func (r *InstanceRepository) Save(ctx context.Context, id string, inst *model.ItemInstance) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(ctx, tx, "instance", id)

	if err := r.SaveTx(ctx, tx, id, inst); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing instance %s: %w", id, err)
	}
	return nil
}

// LoadAll загружает все instances: id → instance.
func (r *InstanceRepository) LoadAll(ctx context.Context) (map[string]*model.ItemInstance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT instance_id, base_item_id, rarity_id, item_level, base_scalar
		FROM item_instances
	`)
	if err != nil {
		return nil, fmt.Errorf("querying instances: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*model.ItemInstance)
	for rows.Next() {
		var id string
		inst := &model.ItemInstance{}
		if err := rows.Scan(&id, &inst.BaseItemID, &inst.RarityID, &inst.ItemLevel, &inst.BaseScalar); err != nil {
			return nil, fmt.Errorf("scanning instance row: %w", err)
		}
		out[id] = inst
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instance rows: %w", err)
	}

	affixRows, err := r.db.Query(ctx, `
		SELECT instance_id, affix_id, value
		FROM item_instance_affixes
		ORDER BY instance_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying affixes: %w", err)
	}
	defer affixRows.Close()

	for affixRows.Next() {
		var id string
		var a model.AffixRoll
		if err := affixRows.Scan(&id, &a.AffixID, &a.Value); err != nil {
			return nil, fmt.Errorf("scanning affix row: %w", err)
		}
		if inst, ok := out[id]; ok {
			inst.Affixes = append(inst.Affixes, a)
		}
	}
	if err := affixRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating affix rows: %w", err)
	}

	return out, nil
}

// Delete удаляет instance (affixes удаляются каскадом).
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM item_instances WHERE instance_id = $1`, id); err != nil {
		return fmt.Errorf("deleting instance %s: %w", id, err)
	}
	return nil
}

// DeleteUnreferenced удаляет instances, которых нет ни в экипировке, ни в инвентаре.
// Вызывать при старте до заполнения реестра: предметы на земле не сохраняются.
// Возвращает число удалённых.
func (r *InstanceRepository) DeleteUnreferenced(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM item_instances i
		WHERE NOT EXISTS (
			SELECT 1 FROM character_equipment e WHERE e.item_ref = 'ri_' || i.instance_id
		) AND NOT EXISTS (
			SELECT 1 FROM character_inventory v WHERE v.item_ref = 'ri_' || i.instance_id
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("deleting unreferenced instances: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info("unreferenced instances deleted", "count", n)
	}
	return tag.RowsAffected(), nil
}

// rollback откатывает транзакцию после Commit или ошибки.
func rollback(ctx context.Context, tx pgx.Tx, what string, id any) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("rollback failed", "entity", what, "id", id, "error", err)
	}
}
