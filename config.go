package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/humboldt-xie/voxelworld/physics"
	"github.com/humboldt-xie/voxelworld/terrain"
	"github.com/humboldt-xie/voxelworld/world"
)

type Config struct {
	World   WorldConfig   `yaml:"world" toml:"world"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Terrain TerrainConfig `yaml:"terrain" toml:"terrain"`
	Physics PhysicsConfig `yaml:"physics" toml:"physics"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type WorldConfig struct {
	Dir          string `yaml:"dir" toml:"dir"`
	LoadRadius   int    `yaml:"load_radius" toml:"load_radius"`
	UnloadRadius int    `yaml:"unload_radius" toml:"unload_radius"`
	MissingCache int    `yaml:"missing_cache" toml:"missing_cache"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend" toml:"backend"` // file or bolt
	BoltPath string `yaml:"bolt_path" toml:"bolt_path"`
}

type TerrainConfig struct {
	Seed      int64   `yaml:"seed" toml:"seed"`
	Frequency float64 `yaml:"frequency" toml:"frequency"`
	Octaves   int     `yaml:"octaves" toml:"octaves"`
	Height    int     `yaml:"height" toml:"height"`
	BaseY     int     `yaml:"base_y" toml:"base_y"`
}

type PhysicsConfig struct {
	ActivationRadius float32 `yaml:"activation_radius" toml:"activation_radius"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console or json
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			Dir:          "world_data",
			LoadRadius:   world.DefaultLoadRadius,
			UnloadRadius: world.DefaultUnloadRadius,
			MissingCache: world.DefaultMissingCache,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Terrain: TerrainConfig{
			Seed:      terrain.DefaultSeed,
			Frequency: terrain.DefaultFrequency,
			Octaves:   terrain.DefaultOctaves,
			Height:    terrain.DefaultHeight,
		},
		Physics: PhysicsConfig{
			ActivationRadius: physics.DefaultActivationRadius,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigOption adjusts a parsed config before it is validated.
type ConfigOption func(c *Config)

// WithWorldDir overrides world.dir. An empty dir leaves it unchanged.
func WithWorldDir(dir string) ConfigOption {
	return func(c *Config) {
		if dir != "" {
			c.World.Dir = dir
		}
	}
}

// LoadConfig reads a yaml or toml config file over the defaults and applies
// opts before validating. An empty path starts from the defaults.
func LoadConfig(path string, opts ...ConfigOption) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	for _, o := range opts {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.World.Dir == "" {
		return errors.New("world.dir is empty")
	}
	if c.World.LoadRadius < 0 {
		return errors.Errorf("world.load_radius %d is negative", c.World.LoadRadius)
	}
	if c.World.UnloadRadius < c.World.LoadRadius {
		return errors.Errorf("world.unload_radius %d is below load_radius %d", c.World.UnloadRadius, c.World.LoadRadius)
	}
	switch c.Storage.Backend {
	case "file":
	case "bolt":
		if c.Storage.BoltPath == "" {
			c.Storage.BoltPath = filepath.Join(c.World.Dir, "world.db")
		}
	default:
		return errors.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Terrain.Octaves < 1 {
		return errors.Errorf("terrain.octaves %d must be positive", c.Terrain.Octaves)
	}
	if c.Physics.ActivationRadius < 0 {
		return errors.Errorf("physics.activation_radius %v is negative", c.Physics.ActivationRadius)
	}
	return nil
}

func (c *Config) TerrainConfig() terrain.Config {
	return terrain.Config{
		Seed:      c.Terrain.Seed,
		Frequency: c.Terrain.Frequency,
		Octaves:   c.Terrain.Octaves,
		Height:    c.Terrain.Height,
		BaseY:     c.Terrain.BaseY,
	}
}
