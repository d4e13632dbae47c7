package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/logging"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// LayoutFileName is the sibling file read next to a bare command list.
const LayoutFileName = "commands_layout"

// File is the on-disk catalog: command definitions plus their layout.
type File struct {
	Commands []Definition
	Layout   Layout
}

// rawDefinition accepts the alternate key spellings found in command files.
type rawDefinition struct {
	Definition  `yaml:",inline"`
	Argument    string `yaml:"argument,omitempty" json:"argument,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

func (r rawDefinition) normalize() Definition {
	d := r.Definition
	if d.Flag == "" {
		d.Flag = r.Argument
	}
	if d.Desc == "" {
		d.Desc = r.Description
	}
	d.Type = normalizeType(string(d.Type))
	return d
}

type rawFile struct {
	Commands []rawDefinition `yaml:"commands" json:"commands"`
	Layout   Layout          `yaml:"layout" json:"layout"`
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decode(data []byte, asJSON bool, v any) error {
	if asJSON {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// Parse decodes catalog data. Both a full document ({commands, layout}) and a
// bare list of commands are accepted.
func Parse(data []byte, asJSON bool) (File, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return File{}, fmt.Errorf("catalog is empty")
	}

	var raw rawFile
	if trimmed[0] == '[' || (!asJSON && trimmed[0] == '-') {
		if err := decode(data, asJSON, &raw.Commands); err != nil {
			return File{}, fmt.Errorf("parse commands: %w", err)
		}
	} else if err := decode(data, asJSON, &raw); err != nil {
		return File{}, fmt.Errorf("parse catalog: %w", err)
	}

	f := File{Layout: raw.Layout}
	for _, r := range raw.Commands {
		d := r.normalize()
		if strings.TrimSpace(d.Flag) == "" {
			continue
		}
		f.Commands = append(f.Commands, d)
	}
	return f, nil
}

// ReadFile reads a catalog file. A bare command list picks up its layout from
// a sibling commands_layout file with the same extension, when present.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read catalog: %w", err)
	}
	f, err := Parse(data, isJSON(path))
	if err != nil {
		return File{}, err
	}
	if f.Layout.Categories == nil && f.Layout.Ignored == nil {
		layoutPath := filepath.Join(filepath.Dir(path), LayoutFileName+filepath.Ext(path))
		if data, err := os.ReadFile(layoutPath); err == nil {
			var layout Layout
			if err := decode(data, isJSON(layoutPath), &layout); err != nil {
				return File{}, fmt.Errorf("parse layout: %w", err)
			}
			f.Layout = layout
		}
	}
	return f, nil
}

// Load reads the catalog at path. An empty path selects the built-in catalog.
// Load never fails: a missing or malformed file is logged and yields an empty
// catalog.
func Load(path string, persistentCategories []string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	if path == "" {
		return Default(persistentCategories)
	}
	f, err := ReadFile(path)
	if err != nil {
		logger.Warn("command catalog unavailable, flags pass through untyped", "path", path, "error", err)
		return New(nil, Layout{}, persistentCategories)
	}
	logger.Debug("command catalog loaded", "path", path, "commands", len(f.Commands))
	return New(f.Commands, f.Layout, persistentCategories)
}

// Default returns the built-in stable-diffusion.cpp catalog.
func Default(persistentCategories []string) *Catalog {
	f, err := Parse(defaultCatalog, false)
	if err != nil {
		return New(nil, Layout{}, persistentCategories)
	}
	return New(f.Commands, f.Layout, persistentCategories)
}
