package server

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config represents the obsd server configuration file structure.
type Config struct {
	// Addr is the TCP address to serve on.  Can be overridden by CLI
	// flag.
	Addr string `yaml:"addr"`
	// Document is a YAML or JSON file with the initial document.  The
	// default is an empty object.
	Document string `yaml:"document,omitempty"`
	// MaxDepth bounds nested mutations, 0 for no bound.
	MaxDepth int            `yaml:"maxDepth,omitempty"`
	Persist  *PersistConfig `yaml:"persist,omitempty"`
}

// PersistConfig selects where the document is saved.  Exactly one of
// Dir and SQLite is set.
type PersistConfig struct {
	Dir         string        `yaml:"dir,omitempty"`
	SQLite      string        `yaml:"sqlite,omitempty"`
	Name        string        `yaml:"name,omitempty"`
	Format      string        `yaml:"format,omitempty"`
	// SaveTimeout is a duration such as "250ms".
	SaveTimeout string `yaml:"saveTimeout,omitempty"`

	saveTimeout time.Duration
}

// LoadConfig loads a configuration file in YAML format.  Unset fields
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if p := cfg.Persist; p != nil {
		if (p.Dir == "") == (p.SQLite == "") {
			return nil, fmt.Errorf("persist: exactly one of dir and sqlite must be set")
		}
		if p.Name == "" {
			p.Name = "document"
		}
		if p.Format == "" {
			p.Format = "json"
		}
		if p.SaveTimeout != "" {
			d, err := time.ParseDuration(p.SaveTimeout)
			if err != nil {
				return nil, fmt.Errorf("persist: saveTimeout: %w", err)
			}
			p.saveTimeout = d
		}
	}
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr: "localhost:9124",
	}
}
