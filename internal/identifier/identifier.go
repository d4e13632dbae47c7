// Package identifier parses the prefixed references the CLI accepts for
// assets, presets and files.
package identifier

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Type represents the category of identifier.
type Type int

const (
	TypeUnknown Type = iota
	TypeFilePath
	TypeHash
	TypeRemoteVersion
	TypeName
	TypePresetName
)

const expected = "Expected: h:<hash>, r:<remote version id>, n:<name>, p:<preset> or f:<file>"

// Identifier represents a parsed identifier.
type Identifier struct {
	Raw   string
	Type  Type
	Value string // everything after the prefix
}

// Parse categorizes an identifier using explicit prefixes (h:, r:, n:, p:, f:).
func Parse(input string) (*Identifier, error) {
	if input == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	// Minimum: "x:y"
	if len(input) < 3 || input[1] != ':' {
		return nil, fmt.Errorf("invalid identifier format '%s'\n%s", input, expected)
	}

	prefix := input[0]
	value := input[2:]
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("empty value after prefix '%c:'", prefix)
	}

	var t Type
	switch prefix {
	case 'h':
		t = TypeHash
		value = strings.ToLower(strings.TrimSpace(value))
	case 'r':
		t = TypeRemoteVersion
		value = strings.TrimSpace(value)
	case 'n':
		t = TypeName
	case 'p':
		t = TypePresetName
	case 'f':
		t = TypeFilePath
	default:
		return nil, fmt.Errorf("unknown prefix '%c:'\n%s", prefix, expected)
	}
	return &Identifier{Raw: input, Type: t, Value: value}, nil
}

// IsAsset reports whether the identifier refers to a library asset.
func (id *Identifier) IsAsset() bool {
	switch id.Type {
	case TypeHash, TypeRemoteVersion, TypeName:
		return true
	}
	return false
}

// Lookup returns the arguments of an asset lookup by hash, remote version id
// and name. Only the field matching the identifier type is set.
func (id *Identifier) Lookup() (hash, remoteVersionID, name string) {
	switch id.Type {
	case TypeHash:
		return id.Value, "", ""
	case TypeRemoteVersion:
		return "", id.Value, ""
	case TypeName:
		return "", "", id.Value
	}
	return "", "", ""
}

// ExpandFilePath expands ~ prefix and converts to absolute path.
func (id *Identifier) ExpandFilePath(homeDir string) (string, error) {
	if id.Type != TypeFilePath {
		return "", fmt.Errorf("cannot expand non-filepath identifier")
	}

	path := id.Value
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path: %w", err)
		}
		path = absPath
	}
	return path, nil
}

// String returns a human-readable description.
func (id *Identifier) String() string {
	switch id.Type {
	case TypeFilePath:
		return "file path: f:" + id.Value
	case TypeHash:
		return "content hash: h:" + id.Value
	case TypeRemoteVersion:
		return "remote version: r:" + id.Value
	case TypeName:
		return "name: n:" + id.Value
	case TypePresetName:
		return "preset: p:" + id.Value
	default:
		return "unknown"
	}
}
