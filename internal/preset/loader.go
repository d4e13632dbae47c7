package preset

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/pathutil"
)

// Loader reads and writes the preset files of one directory. Presets are
// found by their name field, not by file name.
type Loader struct {
	presetsDir string
}

// NewLoader returns a loader for presetsDir. The directory is created on
// the first write.
func NewLoader(presetsDir string) *Loader {
	return &Loader{presetsDir: presetsDir}
}

// Load returns the preset whose name field is name.
func (l *Loader) Load(name string) (*Preset, error) {
	f, err := l.lookup(name)
	return f.preset, err
}

// FindPath returns the file holding the preset called name.
func (l *Loader) FindPath(name string) (string, error) {
	f, err := l.lookup(name)
	return f.path, err
}

// presetFile is one parsed file of the presets directory.
type presetFile struct {
	path   string
	preset *Preset
}

// isPresetFile reports whether a directory entry name is a preset file.
func isPresetFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// scan parses every preset file in directory order. Files that do not load
// are returned as parse errors. A missing directory holds no presets.
func (l *Loader) scan() ([]presetFile, []*ParseError, error) {
	dirEntries, err := os.ReadDir(l.presetsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read presets dir: %w", err)
	}

	var (
		files  []presetFile
		broken []*ParseError
	)
	for _, de := range dirEntries {
		if de.IsDir() || !isPresetFile(de.Name()) {
			continue
		}
		path := filepath.Join(l.presetsDir, de.Name())
		p, err := loadFromPath(path)
		if err != nil {
			broken = append(broken, &ParseError{File: de.Name(), Err: err})
			continue
		}
		files = append(files, presetFile{path: path, preset: p})
	}
	return files, broken, nil
}

// lookup finds the preset called name. With duplicate names the first file
// in directory order wins. When nothing matches and some files did not
// load, the error names them instead of reporting a plain NotFoundError.
func (l *Loader) lookup(name string) (presetFile, error) {
	files, broken, err := l.scan()
	if err != nil {
		return presetFile{}, err
	}
	for _, f := range files {
		if f.preset.Name == name {
			return f, nil
		}
	}
	if len(broken) > 0 {
		return presetFile{}, fmt.Errorf("preset '%s' not found; %d unreadable preset file(s), first: %v", name, len(broken), broken[0])
	}
	return presetFile{}, &NotFoundError{Name: name}
}

// List returns the names of all presets. Unreadable files are reported in
// the error next to the names that did load.
func (l *Loader) List() ([]string, error) {
	files, broken, err := l.scan()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.preset.Name)
	}
	if len(broken) > 0 {
		return names, fmt.Errorf("%d unreadable preset file(s), first: %v", len(broken), broken[0])
	}
	return names, nil
}

// Exists reports whether a preset called name exists.
func (l *Loader) Exists(name string) (bool, error) {
	_, err := l.lookup(name)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Create writes p to a new file with a random name and returns its path.
// A preset of the same name must not exist yet.
func (l *Loader) Create(p *Preset) (string, error) {
	if err := ValidateName(p.Name); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("invalid preset: %w", err)
	}

	exists, err := l.Exists(p.Name)
	if err != nil {
		return "", fmt.Errorf("check existing: %w", err)
	}
	if exists {
		return "", &AlreadyExistsError{Name: p.Name}
	}

	if err := os.MkdirAll(l.presetsDir, 0755); err != nil {
		return "", fmt.Errorf("create presets dir: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate filename: %w", err)
	}
	path := filepath.Join(l.presetsDir, hex.EncodeToString(id[:8])+".yaml")
	if err := WriteFile(path, p); err != nil {
		return "", err
	}
	return path, nil
}

// Save writes p over the existing preset of the same name, or creates it.
func (l *Loader) Save(p *Preset) (string, error) {
	f, err := l.lookup(p.Name)
	if IsNotFound(err) {
		return l.Create(p)
	}
	if err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("invalid preset: %w", err)
	}
	return f.path, WriteFile(f.path, p)
}

// Remove deletes the file of the preset called name.
func (l *Loader) Remove(name string) error {
	f, err := l.lookup(name)
	if err != nil {
		return err
	}
	if err := os.Remove(f.path); err != nil {
		return fmt.Errorf("remove preset: %w", err)
	}
	return nil
}

// LoadFile loads a preset from an explicit file path.
// Relative paths in the model field and network directories are resolved
// relative to the preset file's directory.
func LoadFile(filePath string) (*Preset, error) {
	resolvedPath, err := pathutil.ResolvePath(filePath, "")
	if err != nil {
		return nil, fmt.Errorf("resolve preset path: %w", err)
	}

	absPath, err := filepath.Abs(resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("resolve preset path: %w", err)
	}

	return loadFromPath(absPath)
}

// loadFromPath reads one preset file, validates it and resolves its paths
// against the file's directory.
func loadFromPath(absPath string) (*Preset, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := errors.Join(ValidateName(p.Name), p.Validate()); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	if err := resolvePaths(&p, filepath.Dir(absPath)); err != nil {
		return nil, err
	}
	return &p, nil
}

// resolvePaths resolves the model file and network directories against baseDir.
func resolvePaths(p *Preset, baseDir string) error {
	if strings.HasPrefix(p.Model, "f:") {
		resolved, err := pathutil.ResolvePath(p.Model[2:], baseDir)
		if err != nil {
			return fmt.Errorf("resolve model path: %w", err)
		}
		p.Model = "f:" + resolved
	}
	for _, nets := range [][]Network{p.Loras, p.Embeddings} {
		for i := range nets {
			dir, err := pathutil.ResolveOptional(nets[i].Dir, baseDir)
			if err != nil {
				return fmt.Errorf("resolve directory of %s: %w", nets[i].Name, err)
			}
			nets[i].Dir = dir
		}
	}
	return nil
}

// WriteFile stores p at path. The content goes to a temporary file in the
// same directory first, so a failed write leaves an existing preset intact.
func WriteFile(path string, p *Preset) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".preset-*.tmp")
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
