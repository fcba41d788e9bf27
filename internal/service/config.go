package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the service settings, read from a YAML file with flag
// overrides applied by the CLI.
type Config struct {
	// Listen is the bind address, e.g. "0.0.0.0:8080".
	Listen string `yaml:"listen"`

	// ResourcesDir locates the bundled preset profiles.
	ResourcesDir string `yaml:"resources_dir"`

	// JobDB is the SQLite job history path. Empty disables job history.
	JobDB string `yaml:"job_db"`

	// MaxBodyBytes caps the upload size.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// DefaultPresets applies when a request carries no config part.
	DefaultPresets PresetTriple `yaml:"default_presets"`
}

// PresetTriple names one preset per category.
type PresetTriple struct {
	Printer  string `yaml:"printer"`
	Filament string `yaml:"filament"`
	Process  string `yaml:"process"`
}

// DefaultConfig returns the built-in service settings.
func DefaultConfig() Config {
	return Config{
		Listen:       "0.0.0.0:8080",
		ResourcesDir: "/app/resources",
		MaxBodyBytes: 100 << 20,
		DefaultPresets: PresetTriple{
			Printer:  "Bambu Lab A1 0.4 nozzle",
			Filament: "Bambu PLA Basic @BBL A1",
			Process:  "0.20mm Standard @BBL A1",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
