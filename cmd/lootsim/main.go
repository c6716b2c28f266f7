// lootsim rolls items from a loot table and prints the rarity distribution.
//
// Usage:
//
//	go run ./cmd/lootsim -table zone1_trash -n 10000
//	go run ./cmd/lootsim -table zone1_trash -tuning zone1 -tier boss -seed 42 -show 5
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/game/deathdrop"
	"github.com/udisondev/lootforge/internal/loot"
	"github.com/udisondev/lootforge/internal/model"
)

type options struct {
	catalog string
	table   string
	tuning  string
	tier    string
	n       int
	seed    int64
	show    int
}

func main() {
	var opts options
	flag.StringVar(&opts.catalog, "catalog", "", "YAML catalog (empty = built-in)")
	flag.StringVar(&opts.table, "table", "zone1_trash", "loot table id")
	flag.StringVar(&opts.tuning, "tuning", "", "zone tuning id (empty = none)")
	flag.StringVar(&opts.tier, "tier", "trash", "enemy tier: trash, elite, boss")
	flag.IntVar(&opts.n, "n", 1000, "number of rolls")
	flag.Int64Var(&opts.seed, "seed", 0, "base seed (0 = random)")
	flag.IntVar(&opts.show, "show", 3, "sample items to print")
	flag.Parse()

	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, opts options) error {
	var (
		catalog *data.Catalog
		err     error
	)
	if opts.catalog == "" {
		catalog, err = data.DefaultCatalog()
	} else {
		catalog, err = data.LoadCatalog(opts.catalog)
	}
	if err != nil {
		return err
	}

	rep, err := simulate(catalog, opts)
	if err != nil {
		return err
	}
	rep.print(w, opts.show)
	return nil
}

type sample struct {
	name  string
	level int32
	value int
	mods  []model.StatModifier
}

type report struct {
	rolls     int
	failed    int
	bonus     int
	setPieces int
	rarities  []*data.RarityDef
	counts    map[string]int
	samples   []sample
	maxValue  int
}

// simulate роллит opts.n предметов. Seed i-го ролла — opts.seed+i, если opts.seed != 0.
// Бонусные броски и части сетов считаются отдельно от распределения редкостей.
func simulate(catalog *data.Catalog, opts options) (*report, error) {
	table, ok := catalog.LootTable(opts.table)
	if !ok {
		return nil, fmt.Errorf("unknown loot table %q", opts.table)
	}
	var tuning *data.ZoneTuning
	if opts.tuning != "" {
		if tuning, ok = catalog.ZoneTuning(opts.tuning); !ok {
			return nil, fmt.Errorf("unknown zone tuning %q", opts.tuning)
		}
	}
	tier := data.ParseLootTier(opts.tier)
	setDrops := catalog.SetDrops(table.ID)
	pity := loot.NewSetPity()

	roller := loot.NewRoller(catalog)
	registry := loot.NewRegistry(catalog)
	evaluator := deathdrop.NewValueEvaluator(registry, "", 0)

	rep := &report{
		rolls:    max(0, opts.n),
		rarities: catalog.Rarities(),
		counts:   make(map[string]int),
	}
	for i := range rep.rolls {
		var ro loot.RollOptions
		if opts.seed != 0 {
			ro.Seed = loot.Seed(opts.seed + int64(i))
		}
		inst, ok := roller.RollFromTableTuned(table, tuning, tier, ro)
		if !ok {
			rep.failed++
			continue
		}
		rep.counts[data.NormalizeID(inst.RarityID)]++
		rep.bonus += len(roller.RollBonus(table, tuning, tier, ro))
		for _, sd := range setDrops {
			rep.setPieces += len(roller.RollSetDrops(sd, loot.SetDropOptions{
				Tier:      tier,
				ItemLevel: inst.ItemLevel,
				RarityID:  inst.RarityID,
				Seed:      ro.Seed,
				Pity:      pity,
			}))
		}

		ref := registry.RegisterRolledInstance(inst)
		value := evaluator.Evaluate(ref)
		rep.maxValue = max(rep.maxValue, value)
		if len(rep.samples) < opts.show {
			name, _, _ := registry.TryResolveDisplay(ref)
			rep.samples = append(rep.samples, sample{
				name:  name,
				level: inst.ItemLevel,
				value: value,
				mods:  registry.StatMods(ref),
			})
		}
	}
	return rep, nil
}

func (r *report) print(w io.Writer, show int) {
	fmt.Fprintf(w, "rolls:  %d\n", r.rolls)
	fmt.Fprintf(w, "failed: %d\n", r.failed)
	for _, rar := range r.rarities {
		n := r.counts[rar.ID]
		pct := 0.0
		if r.rolls > 0 {
			pct = 100 * float64(n) / float64(r.rolls)
		}
		label := rar.Name
		if label == "" {
			label = rar.ID
		}
		fmt.Fprintf(w, "  %-10s %7d  %6.2f%%\n", label, n, pct)
	}
	fmt.Fprintf(w, "bonus rolls: %d\n", r.bonus)
	fmt.Fprintf(w, "set pieces:  %d\n", r.setPieces)
	fmt.Fprintf(w, "max value: %d\n", r.maxValue)

	for i, s := range r.samples {
		if i >= show {
			break
		}
		fmt.Fprintf(w, "\n%s (ilvl %d, value %d)\n", s.name, s.level, s.value)
		for _, m := range s.mods {
			if m.Percent {
				fmt.Fprintf(w, "  %+.1f%% %s\n", m.Value, m.Stat)
				continue
			}
			fmt.Fprintf(w, "  %+.1f %s\n", m.Value, m.Stat)
		}
	}
}
