package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the run configuration that can be supplied as a YAML file.
// Flags override whatever the file sets.
type Settings struct {
	TilesDir string `yaml:"tilesDir"`
	Rows     int    `yaml:"rows"`
	Cols     int    `yaml:"cols"`

	// Overlap is the fraction of each tile shared with its neighbor.
	Overlap float64 `yaml:"overlap"`

	Optimizer           string  `yaml:"optimizer"` // amoeba, mayfly
	MaxIterations       int     `yaml:"maxIterations"`
	Restarts            bool    `yaml:"restarts"`
	FractionalTolerance float64 `yaml:"fractionalTolerance"`

	// Mayfly-only knobs.
	PopSize int   `yaml:"popSize"`
	Seed    int64 `yaml:"seed"`
}

// DefaultSettings returns the settings used when no file or flag says
// otherwise.
func DefaultSettings() Settings {
	return Settings{
		Overlap:             0.1,
		Optimizer:           "amoeba",
		MaxIterations:       500,
		FractionalTolerance: 1e-5,
		PopSize:             20,
		Seed:                42,
	}
}

// LoadSettings reads a YAML settings file over the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return settings, nil
}

// Validate rejects settings the engine cannot run with.
func (s Settings) Validate() error {
	if s.Overlap <= 0 || s.Overlap >= 1 {
		return fmt.Errorf("overlap must be in (0,1), got %g", s.Overlap)
	}
	if s.MaxIterations < 1 {
		return fmt.Errorf("maxIterations must be positive, got %d", s.MaxIterations)
	}
	if s.Optimizer != "amoeba" && s.Optimizer != "mayfly" {
		return fmt.Errorf("unknown optimizer %q (amoeba or mayfly)", s.Optimizer)
	}
	return nil
}
