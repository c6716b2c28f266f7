package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/lootforge/internal/game/encounter"
	"github.com/udisondev/lootforge/internal/model"
)

// EnvConfigPath — переменная окружения с путём к конфигу сервера.
const EnvConfigPath = "LOOTFORGE_CONFIG"

// DefaultConfigPath используется, если EnvConfigPath не задана.
const DefaultConfigPath = "config/lootd.yaml"

// Tick — периоды игрового цикла.
type Tick struct {
	Interval     time.Duration `yaml:"interval"`
	SaveInterval time.Duration `yaml:"save_interval"` // 0 — только сохранение при остановке
}

// Loot — параметры генерации и оценки предметов.
type Loot struct {
	TownScrollID    string `yaml:"town_scroll_id"`
	TownScrollValue int    `yaml:"town_scroll_value"`
	XPPerLevel      int64  `yaml:"xp_per_level"`
}

// Character — базовые характеристики и точка респауна.
type Character struct {
	// Names — персонажи, которых сервер загружает (или создаёт) при старте.
	Names         []string       `yaml:"names"`
	BaseDamage    int32          `yaml:"base_damage"`
	BaseMaxHealth int32          `yaml:"base_max_health"`
	Respawn       model.Location `yaml:"respawn"`
}

// Encounter включает автоматические бои персонажей с врагами зоны.
type Encounter struct {
	Enabled          bool `yaml:"enabled"`
	encounter.Config `yaml:",inline"`
}

// Rates holds world timing rates.
type Rates struct {
	PileAutoDestroy time.Duration `yaml:"pile_auto_destroy"` // 0 — кучки не исчезают
}

// DefaultRates returns 10 minutes pile lifetime.
func DefaultRates() Rates {
	return Rates{PileAutoDestroy: 10 * time.Minute}
}

// Server holds all configuration for lootd.
type Server struct {
	LogLevel string `yaml:"log_level"`

	// CatalogPath — YAML каталог предметов. Пусто — встроенный каталог.
	CatalogPath string `yaml:"catalog_path"`

	Database  DatabaseConfig `yaml:"database"`
	Tick      Tick           `yaml:"tick"`
	Loot      Loot           `yaml:"loot"`
	Character Character      `yaml:"character"`
	Encounter Encounter      `yaml:"encounter"`
	Rates     Rates          `yaml:"rates"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel: "info",
		Database: DefaultDatabase(),
		Tick: Tick{
			Interval:     100 * time.Millisecond,
			SaveInterval: time.Minute,
		},
		Loot: Loot{
			TownScrollID:    "scroll_town",
			TownScrollValue: 5,
			XPPerLevel:      100,
		},
		Character: Character{
			Names:         []string{"Wanderer"},
			BaseDamage:    2,
			BaseMaxHealth: 50,
		},
		Encounter: Encounter{
			Enabled: true,
			Config:  encounter.DefaultConfig(),
		},
		Rates: DefaultRates(),
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ConfigPath возвращает путь к конфигу с учётом EnvConfigPath.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// SlogLevel переводит log_level в slog.Level (неизвестное значение → info).
func (s Server) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(s.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
