package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for settings missing from config.yaml.
const (
	DefaultEngine   = "sd"
	DefaultLogLevel = "info"
	DefaultWorkers  = 4
)

// AutoAppend holds the per-kind trigger auto-append defaults.
type AutoAppend struct {
	Lora      bool `yaml:"lora"`
	Embedding bool `yaml:"embedding"`
}

// Settings is the content of config.yaml.
type Settings struct {
	Engine               string     `yaml:"engine"`
	Catalog              string     `yaml:"catalog,omitempty"` // empty = embedded catalog
	PersistentCategories []string   `yaml:"persistent_categories,omitempty"`
	AutoAppendTriggers   AutoAppend `yaml:"auto_append_triggers"`
	LogLevel             string     `yaml:"log_level"`
	Workers              int        `yaml:"workers"`
}

// DefaultSettings returns the settings used when config.yaml is missing.
func DefaultSettings() Settings {
	return Settings{
		Engine:   DefaultEngine,
		LogLevel: DefaultLogLevel,
		Workers:  DefaultWorkers,
	}
}

// LoadSettings reads config.yaml at path. Keys missing from the file keep
// their defaults; a missing file yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Engine == "" {
		s.Engine = DefaultEngine
	}
	if s.Workers < 1 {
		s.Workers = DefaultWorkers
	}
	return s, nil
}
