package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/lootforge/internal/model"
)

// ErrCharacterNotFound — персонажа с таким id нет.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterRow — строка таблицы characters.
type CharacterRow struct {
	ID        int64
	Name      string
	Location  model.Location
	CreatedAt time.Time
	LastSaved *time.Time
}

// CharacterRepository управляет персонажами и их снаряжением в БД.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository создаёт новый CharacterRepository.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create создаёт персонажа и возвращает его id.
func (r *CharacterRepository) Create(ctx context.Context, name string, loc model.Location) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO characters (name, x, y, z, heading)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING character_id
	`, name, loc.X, loc.Y, loc.Z, int32(loc.Heading)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating character %q: %w", name, err)
	}
	return id, nil
}

// FindByName ищет персонажа по имени (case-insensitive).
// Returns nil, nil if the character does not exist.
func (r *CharacterRepository) FindByName(ctx context.Context, name string) (*CharacterRow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT character_id, name, x, y, z, heading, created_at, last_saved
		FROM characters WHERE LOWER(name) = $1
	`, strings.ToLower(name))

	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying character %q: %w", name, err)
	}
	return c, nil
}

// List возвращает всех персонажей по возрастанию id.
func (r *CharacterRepository) List(ctx context.Context) ([]CharacterRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT character_id, name, x, y, z, heading, created_at, last_saved
		FROM characters ORDER BY character_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()

	var out []CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating character rows: %w", err)
	}
	return out, nil
}

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	var c CharacterRow
	var heading int32
	if err := row.Scan(
		&c.ID, &c.Name, &c.Location.X, &c.Location.Y, &c.Location.Z, &heading, &c.CreatedAt, &c.LastSaved,
	); err != nil {
		return nil, err
	}
	c.Location.Heading = uint16(heading)
	return &c, nil
}

// Delete удаляет персонажа (скиллы, экипировка и инвентарь удаляются каскадом).
func (r *CharacterRepository) Delete(ctx context.Context, characterID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM characters WHERE character_id = $1`, characterID); err != nil {
		return fmt.Errorf("deleting character %d: %w", characterID, err)
	}
	return nil
}

// LoadLoadout загружает позицию, навыки, экипировку и инвентарь.
// Строки с неизвестными stat или slot пропускаются с предупреждением.
func (r *CharacterRepository) LoadLoadout(ctx context.Context, characterID int64) (model.Loadout, error) {
	lo := model.Loadout{
		Skills:    model.NewLeveledStats(),
		Equipment: make(map[model.EquipmentSlot]model.ItemRef),
		Inventory: make(map[model.ItemRef]int32),
	}

	var heading int32
	err := r.db.QueryRow(ctx,
		`SELECT x, y, z, heading FROM characters WHERE character_id = $1`, characterID,
	).Scan(&lo.Location.X, &lo.Location.Y, &lo.Location.Z, &heading)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lo, fmt.Errorf("loading character %d: %w", characterID, ErrCharacterNotFound)
		}
		return lo, fmt.Errorf("querying character %d: %w", characterID, err)
	}
	lo.Location.Heading = uint16(heading)

	if err := r.loadSkills(ctx, characterID, &lo); err != nil {
		return lo, err
	}
	if err := r.loadEquipment(ctx, characterID, &lo); err != nil {
		return lo, err
	}
	if err := r.loadInventory(ctx, characterID, &lo); err != nil {
		return lo, err
	}
	return lo, nil
}

func (r *CharacterRepository) loadSkills(ctx context.Context, characterID int64, lo *model.Loadout) error {
	rows, err := r.db.Query(ctx, `SELECT stat, xp FROM character_skills WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("querying skills for character %d: %w", characterID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var xp int64
		if err := rows.Scan(&name, &xp); err != nil {
			return fmt.Errorf("scanning skill row: %w", err)
		}
		stat, err := model.ParseStatType(name)
		if err != nil || !stat.IsPrimary() {
			slog.Warn("skipping unknown skill", "characterID", characterID, "stat", name)
			continue
		}
		lo.Skills.SetSkill(stat, model.SkillProgress{XP: xp})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating skill rows: %w", err)
	}
	return nil
}

func (r *CharacterRepository) loadEquipment(ctx context.Context, characterID int64, lo *model.Loadout) error {
	rows, err := r.db.Query(ctx, `SELECT slot, item_ref FROM character_equipment WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("querying equipment for character %d: %w", characterID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var slotName, refStr string
		if err := rows.Scan(&slotName, &refStr); err != nil {
			return fmt.Errorf("scanning equipment row: %w", err)
		}
		slot, err := model.ParseEquipmentSlot(slotName)
		ref := model.ParseItemRef(refStr)
		if err != nil || ref.IsZero() {
			slog.Warn("skipping invalid equipment row", "characterID", characterID, "slot", slotName, "ref", refStr)
			continue
		}
		lo.Equipment[slot] = ref
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating equipment rows: %w", err)
	}
	return nil
}

func (r *CharacterRepository) loadInventory(ctx context.Context, characterID int64, lo *model.Loadout) error {
	rows, err := r.db.Query(ctx, `SELECT item_ref, quantity FROM character_inventory WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("querying inventory for character %d: %w", characterID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var refStr string
		var qty int32
		if err := rows.Scan(&refStr, &qty); err != nil {
			return fmt.Errorf("scanning inventory row: %w", err)
		}
		if ref := model.ParseItemRef(refStr); !ref.IsZero() {
			lo.Inventory[ref] += qty
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating inventory rows: %w", err)
	}
	return nil
}

// SaveLoadoutTx сохраняет снаряжение в существующей транзакции (full replace).
func (r *CharacterRepository) SaveLoadoutTx(ctx context.Context, tx pgx.Tx, characterID int64, lo model.Loadout) error {
	loc := lo.Location
	tag, err := tx.Exec(ctx, `
		UPDATE characters SET x = $1, y = $2, z = $3, heading = $4, last_saved = NOW()
		WHERE character_id = $5
	`, loc.X, loc.Y, loc.Z, int32(loc.Heading), characterID)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", characterID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saving character %d: %w", characterID, ErrCharacterNotFound)
	}

	for _, table := range []string{"character_skills", "character_equipment", "character_inventory"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE character_id = $1`, characterID); err != nil {
			return fmt.Errorf("clearing %s for character %d: %w", table, characterID, err)
		}
	}

	skills := make([][]any, 0, len(model.PrimaryStatTypes))
	for _, st := range model.PrimaryStatTypes {
		if xp := lo.Skills.Skill(st).XP; xp > 0 {
			skills = append(skills, []any{characterID, st.String(), xp})
		}
	}
	if err := copyRows(ctx, tx, "character_skills", []string{"character_id", "stat", "xp"}, skills); err != nil {
		return fmt.Errorf("inserting skills for character %d: %w", characterID, err)
	}

	equipped := make([][]any, 0, len(lo.Equipment))
	for slot, ref := range lo.Equipment {
		if slot.Valid() && !ref.IsZero() {
			equipped = append(equipped, []any{characterID, slot.String(), ref.String()})
		}
	}
	if err := copyRows(ctx, tx, "character_equipment", []string{"character_id", "slot", "item_ref"}, equipped); err != nil {
		return fmt.Errorf("inserting equipment for character %d: %w", characterID, err)
	}

	stacks := make([][]any, 0, len(lo.Inventory))
	for ref, qty := range lo.Inventory {
		if !ref.IsZero() && qty > 0 {
			stacks = append(stacks, []any{characterID, ref.String(), qty})
		}
	}
	if err := copyRows(ctx, tx, "character_inventory", []string{"character_id", "item_ref", "quantity"}, stacks); err != nil {
		return fmt.Errorf("inserting inventory for character %d: %w", characterID, err)
	}

	slog.Debug("saved character loadout",
		"characterID", characterID,
		"skills", len(skills),
		"equipped", len(equipped),
		"stacks", len(stacks))
	return nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	return err
}
