// Package config handles sdpanel paths and user settings.
package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the sdpanel home directory.
const HomeEnv = "SDPANEL_HOME"

// Paths holds common paths used by sdpanel.
type Paths struct {
	Home     string
	Config   string
	Presets  string
	Logs     string
	Log      string
	Library  string
	Database string
}

// GetPaths returns the paths for the current user. SDPANEL_HOME, when set,
// replaces ~/.sdpanel.
func GetPaths() (*Paths, error) {
	root := os.Getenv(HomeEnv)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(home, ".sdpanel")
	}
	return PathsAt(root), nil
}

// PathsAt lays out the sdpanel files under root.
func PathsAt(root string) *Paths {
	logsDir := filepath.Join(root, "logs")
	return &Paths{
		Home:     root,
		Config:   filepath.Join(root, "config.yaml"),
		Presets:  filepath.Join(root, "presets"),
		Logs:     logsDir,
		Log:      filepath.Join(logsDir, "sdpanel.log"),
		Library:  filepath.Join(root, "library.json"),
		Database: filepath.Join(root, "sdpanel.db"),
	}
}

// EnsureDirectories creates the required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.Home, p.Presets, p.Logs}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
