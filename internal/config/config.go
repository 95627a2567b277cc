package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/plus3/flatecs/ecs"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Bench   BenchConfig   `toml:"bench" yaml:"bench"`
	Stress  StressConfig  `toml:"stress" yaml:"stress"`
	Saves   SavesConfig   `toml:"saves" yaml:"saves"`
}

type StoreConfig struct {
	MaxEntities       int `toml:"max_entities" yaml:"max_entities"`
	MaxComponentKinds int `toml:"max_component_kinds" yaml:"max_component_kinds"`
	MaxComponentSize  int `toml:"max_component_size" yaml:"max_component_size"` // bytes per slot
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

type BenchConfig struct {
	Iterations int `toml:"iterations" yaml:"iterations"`
}

type StressConfig struct {
	Duration time.Duration `toml:"duration" yaml:"duration"`
	Entities int           `toml:"entities" yaml:"entities"`
	Systems  int           `toml:"systems" yaml:"systems"`
	Seed     int64         `toml:"seed" yaml:"seed"`
}

type SavesConfig struct {
	Path string `toml:"path" yaml:"path"` // sqlite database file
}

// Load reads a TOML or YAML file, chosen by extension, on top of the
// defaults. Keys missing from the file keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, eris.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	store := ecs.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			MaxEntities:       store.MaxEntities,
			MaxComponentKinds: store.MaxComponentKinds,
			MaxComponentSize:  store.MaxComponentSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bench: BenchConfig{
			Iterations: 1000,
		},
		Stress: StressConfig{
			Duration: 10 * time.Second,
			Entities: 1000,
			Systems:  8,
			Seed:     1,
		},
		Saves: SavesConfig{
			Path: "flatecs-saves.db",
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Store.ECS().Validate(); err != nil {
		return err
	}
	switch {
	case c.Bench.Iterations < 1:
		return eris.Errorf("bench iterations must be positive, got %d", c.Bench.Iterations)
	case c.Stress.Entities < 0 || c.Stress.Entities > c.Store.MaxEntities:
		return eris.Errorf("stress entities %d outside [0, %d]", c.Stress.Entities, c.Store.MaxEntities)
	case c.Stress.Systems < 0:
		return eris.Errorf("stress systems must not be negative, got %d", c.Stress.Systems)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return eris.Errorf("logging format %q (want json or console)", c.Logging.Format)
	}
	return nil
}

// ECS converts the section into store capacities.
func (s StoreConfig) ECS() ecs.Config {
	return ecs.Config{
		MaxEntities:       s.MaxEntities,
		MaxComponentKinds: s.MaxComponentKinds,
		MaxComponentSize:  s.MaxComponentSize,
	}
}
