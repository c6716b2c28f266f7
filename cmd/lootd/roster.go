package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/lootforge/internal/config"
	"github.com/udisondev/lootforge/internal/db"
	"github.com/udisondev/lootforge/internal/game/character"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/model"
)

// roster загружает персонажей при старте и сохраняет их снаряжение.
// Без БД персонажи живут только в памяти.
type roster struct {
	charRepo  *db.CharacterRepository
	instances *db.InstanceRepository
	loadouts  *db.LoadoutService
	registry  *loot.Registry
}

func newMemoryRoster() *roster {
	return &roster{}
}

func newDBRoster(pool *pgxpool.Pool, registry *loot.Registry) *roster {
	charRepo := db.NewCharacterRepository(pool)
	instances := db.NewInstanceRepository(pool)
	return &roster{
		charRepo:  charRepo,
		instances: instances,
		loadouts:  db.NewLoadoutService(pool, charRepo, instances),
		registry:  registry,
	}
}

func (r *roster) persistent() bool { return r.loadouts != nil }

// Load создаёт персонажей из cfg.Names. Новые персонажи появляются в точке
// респауна с комплектом kit.
func (r *roster) Load(ctx context.Context, cfg config.Character, base character.Base, deps character.Deps, kit ...model.ItemRef) ([]*character.Character, error) {
	if r.persistent() {
		if err := r.restoreInstances(ctx); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(cfg.Names))
	out := make([]*character.Character, 0, len(cfg.Names))
	for i, name := range cfg.Names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		if !r.persistent() {
			ch := character.New(int64(i+1), name, base, deps)
			equipKit(ch, cfg.Respawn, kit)
			out = append(out, ch)
			continue
		}

		ch, err := r.loadOrCreate(ctx, name, cfg.Respawn, base, deps, kit)
		if err != nil {
			for _, c := range out {
				c.Close()
			}
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// restoreInstances заполняет реестр сохранёнными instances.
func (r *roster) restoreInstances(ctx context.Context) error {
	if _, err := r.instances.DeleteUnreferenced(ctx); err != nil {
		return err
	}
	saved, err := r.instances.LoadAll(ctx)
	if err != nil {
		return err
	}
	for id, inst := range saved {
		if _, err := r.registry.RegisterWithID(id, inst); err != nil {
			slog.Warn("skipping stored instance", "instanceID", id, "error", err)
		}
	}
	return nil
}

func (r *roster) loadOrCreate(ctx context.Context, name string, spawn model.Location, base character.Base, deps character.Deps, kit []model.ItemRef) (*character.Character, error) {
	row, err := r.charRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if row == nil {
		id, err := r.charRepo.Create(ctx, name, spawn)
		if err != nil {
			return nil, err
		}
		ch := character.New(id, name, base, deps)
		equipKit(ch, spawn, kit)
		slog.Info("character created", "characterID", id, "name", name)
		return ch, nil
	}

	lo, err := r.loadouts.Load(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}
	ch := character.New(row.ID, row.Name, base, deps)
	ch.ApplyLoadout(lo)
	slog.Info("character loaded",
		"characterID", row.ID,
		"name", row.Name,
		"equipped", len(lo.Equipment),
		"stacks", len(lo.Inventory))
	return ch, nil
}

func equipKit(ch *character.Character, spawn model.Location, kit []model.ItemRef) {
	ch.Teleport(spawn)
	for _, ref := range kit {
		if !ref.IsZero() {
			ch.Inventory().Add(ref, 1)
		}
	}
}

// SaveAll сохраняет снаряжение всех персонажей; ошибки объединяются.
func (r *roster) SaveAll(ctx context.Context, chars []*character.Character) error {
	if !r.persistent() {
		return nil
	}
	var errs []error
	for _, ch := range chars {
		if err := r.loadouts.Save(ctx, ch.ID(), ch.Loadout(), r.registry); err != nil {
			errs = append(errs, fmt.Errorf("saving %s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// AutoSave периодически сохраняет персонажей до отмены контекста.
// Ошибка сохранения не останавливает сервер.
func (r *roster) AutoSave(ctx context.Context, interval time.Duration, chars []*character.Character) error {
	if !r.persistent() || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.SaveAll(ctx, chars); err != nil {
				slog.Error("autosave failed", "error", err)
				continue
			}
			slog.Debug("autosave complete", "characters", len(chars))
		}
	}
}
