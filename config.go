package voxphys

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxphys/octree"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Timestep is the fixed integration step in seconds.
	Timestep  float32 `toml:"timestep" yaml:"timestep"`
	ChunkSize int     `toml:"chunk_size" yaml:"chunk_size"`
	// LeafShrink scales unit voxel cubes before the final overlap test.
	LeafShrink float32 `toml:"leaf_shrink" yaml:"leaf_shrink"`
	// ContactStiffness turns penetration depth into a penalty force.
	ContactStiffness float32 `toml:"contact_stiffness" yaml:"contact_stiffness"`
	Workers          int     `toml:"workers" yaml:"workers"`
	// BatchSize is the number of entities per pool task.
	BatchSize int `toml:"batch_size" yaml:"batch_size"`
	// BroadPhaseCellSize enables the spatial hash broad phase when set; it must
	// be 0 or at least one voxel.
	BroadPhaseCellSize float32 `toml:"broad_phase_cell_size" yaml:"broad_phase_cell_size"`
	MinTreePower       int     `toml:"min_tree_power" yaml:"min_tree_power"`
	Debug              bool    `toml:"debug" yaml:"debug"`
	LogPrefix          string  `toml:"log_prefix" yaml:"log_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Timestep:           1.0 / 60.0,
		ChunkSize:          16,
		LeafShrink:         1,
		ContactStiffness:   1,
		Workers:            runtime.NumCPU(),
		BatchSize:          64,
		BroadPhaseCellSize: 0,
		MinTreePower:       0,
		LogPrefix:          "voxphys",
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func positive(f float32) bool {
	return f > 0 && !math32.IsInf(f, 1)
}

func (c Config) Validate() error {
	switch {
	case !positive(c.Timestep):
		return invalid("timestep must be positive, got %v", c.Timestep)
	case c.ChunkSize <= 0:
		return invalid("chunk_size must be positive, got %d", c.ChunkSize)
	case !positive(c.LeafShrink) || c.LeafShrink > 1:
		return invalid("leaf_shrink must be in (0, 1], got %v", c.LeafShrink)
	case c.ContactStiffness < 0 || math32.IsNaN(c.ContactStiffness):
		return invalid("contact_stiffness must be non-negative, got %v", c.ContactStiffness)
	case c.Workers <= 0:
		return invalid("workers must be positive, got %d", c.Workers)
	case c.BatchSize <= 0:
		return invalid("batch_size must be positive, got %d", c.BatchSize)
	case c.BroadPhaseCellSize != 0 && !(c.BroadPhaseCellSize >= 1):
		return invalid("broad_phase_cell_size must be 0 (disabled) or at least 1 voxel, got %v", c.BroadPhaseCellSize)
	case c.MinTreePower < 0 || c.MinTreePower > octree.MaxPower:
		return invalid("min_tree_power must be in [0, %d], got %d", octree.MaxPower, c.MinTreePower)
	}
	return nil
}

// ParseConfig decodes data over DefaultConfig. format is "toml" or "yaml";
// unknown keys are rejected.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	var err error
	switch strings.ToLower(format) {
	case "toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg)
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&cfg); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return Config{}, invalid("unsupported config format %q", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML or YAML file, picking the decoder by extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
