package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/lootforge/internal/config"
	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/db"
	"github.com/udisondev/lootforge/internal/game/character"
	"github.com/udisondev/lootforge/internal/game/deathdrop"
	"github.com/udisondev/lootforge/internal/game/encounter"
	"github.com/udisondev/lootforge/internal/game/tick"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/world"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Конфиг загружаем первым: от него зависит уровень логов
	cfg, err := config.LoadServer(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	slog.Info("lootd starting", "log_level", cfg.LogLevel, "database", cfg.Database.Enabled)

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	registry := loot.NewRegistry(catalog)
	ground := world.NewGround(cfg.Rates.PileAutoDestroy, registry)
	evaluator := deathdrop.NewValueEvaluator(registry, cfg.Loot.TownScrollID, cfg.Loot.TownScrollValue)

	deps := character.Deps{
		Catalog: catalog,
		Items:   registry,
		Curve:   data.NewExperienceCurve(cfg.Loot.XPPerLevel),
	}
	base := character.Base{Damage: cfg.Character.BaseDamage, MaxHealth: cfg.Character.BaseMaxHealth}

	var store *roster
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		store = newDBRoster(database.Pool(), registry)
	} else {
		store = newMemoryRoster()
	}

	chars, err := store.Load(ctx, cfg.Character, base, deps, evaluator.TownScroll())
	if err != nil {
		return fmt.Errorf("loading characters: %w", err)
	}
	defer func() {
		for _, ch := range chars {
			ch.Close()
		}
	}()
	slog.Info("characters loaded", "count", len(chars), "instances", registry.Len())

	tickMgr := tick.NewManager(cfg.Tick.Interval)
	for _, ch := range chars {
		tickMgr.Register(ch.ID(), ch)
	}
	tickMgr.OnTick(func(now time.Time) {
		if n := ground.Tick(now); n > 0 {
			slog.Debug("ground expired", "removed", n)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting tick manager", "interval", cfg.Tick.Interval, "characters", tickMgr.Count())
		if err := tickMgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	if cfg.Encounter.Enabled {
		enc, err := encounter.New(cfg.Encounter.Config, encounter.Deps{
			Catalog:   catalog,
			Registry:  registry,
			Ground:    ground,
			Evaluator: evaluator,
			Town:      cfg.Character.Respawn,
		})
		if err != nil {
			return fmt.Errorf("creating encounter: %w", err)
		}
		for _, ch := range chars {
			enc.Join(ch)
		}

		g.Go(func() error {
			slog.Info("starting encounter",
				"table", cfg.Encounter.Table,
				"tier", cfg.Encounter.Tier,
				"interval", cfg.Encounter.Interval)
			if err := enc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("encounter: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("starting autosave", "interval", cfg.Tick.SaveInterval)
		return store.AutoSave(gctx, cfg.Tick.SaveInterval, chars)
	})

	err = g.Wait()

	// Финальное сохранение: контекст сервера уже отменён
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if saveErr := store.SaveAll(saveCtx, chars); saveErr != nil {
		slog.Error("final save failed", "error", saveErr)
	}

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	piles, pickups := ground.Counts()
	slog.Info("lootd stopped",
		"ticks", tickMgr.Ticks(),
		"instances", registry.Len(),
		"piles", piles,
		"pickups", pickups)
	return nil
}

// loadCatalog читает каталог из файла или берёт встроенный.
func loadCatalog(path string) (*data.Catalog, error) {
	if path == "" {
		c, err := data.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("loading built-in catalog: %w", err)
		}
		return c, nil
	}
	c, err := data.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}
