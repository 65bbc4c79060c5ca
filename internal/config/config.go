package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/semdiff/internal/compare"
	"github.com/gnoswap-labs/semdiff/internal/slicer"
)

// DefaultPath is where the configuration is looked up when no path is given.
const DefaultPath = ".semdiff.yaml"

// Config represents the overall configuration.
type Config struct {
	Name    string  `yaml:"name"`
	Compare Compare `yaml:"compare"`
	Slicer  Slicer  `yaml:"slicer"`
}

// Compare holds the comparator settings.
type Compare struct {
	ControlFlowOnly    bool     `yaml:"control_flow_only"`
	RelocationDistance int      `yaml:"relocation_distance"`
	Lookahead          int      `yaml:"lookahead"`
	SideEffectFree     []string `yaml:"side_effect_free"`
	Allocators         []string `yaml:"allocators"`
	Memsets            []string `yaml:"memsets"`
}

type Slicer struct {
	AlwaysInclude []string `yaml:"always_include"`
}

// Default returns the configuration written by `semdiff init`.
func Default() Config {
	co := compare.DefaultOptions()
	so := slicer.DefaultOptions()
	return Config{
		Name: "semdiff",
		Compare: Compare{
			ControlFlowOnly:    co.ControlFlowOnly,
			RelocationDistance: co.RelocationDistance,
			Lookahead:          co.Lookahead,
			SideEffectFree:     co.SideEffectFree,
			Allocators:         co.Allocators,
			Memsets:            co.Memsets,
		},
		Slicer: Slicer{AlwaysInclude: so.AlwaysInclude},
	}
}

// Load reads the configuration at path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a configuration over the defaults.
func Parse(r io.Reader) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate rejects negative distances.
func (c Config) Validate() error {
	if c.Compare.RelocationDistance < 0 {
		return fmt.Errorf("compare.relocation_distance must not be negative, got %d", c.Compare.RelocationDistance)
	}
	if c.Compare.Lookahead < 0 {
		return fmt.Errorf("compare.lookahead must not be negative, got %d", c.Compare.Lookahead)
	}
	return nil
}

// Write stores c as YAML at path, replacing any existing file.
func Write(path string, c Config) error {
	if path == "" {
		path = DefaultPath
	}
	d, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(d); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

func (c Config) CompareOptions() compare.Options {
	return compare.Options{
		ControlFlowOnly:    c.Compare.ControlFlowOnly,
		RelocationDistance: c.Compare.RelocationDistance,
		Lookahead:          c.Compare.Lookahead,
		SideEffectFree:     c.Compare.SideEffectFree,
		Allocators:         c.Compare.Allocators,
		Memsets:            c.Compare.Memsets,
	}
}

func (c Config) SlicerOptions() slicer.Options {
	return slicer.Options{AlwaysInclude: c.Slicer.AlwaysInclude}
}
