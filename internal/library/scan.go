package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// modelExtensions are the file types picked up by Scan.
var modelExtensions = map[string]bool{
	".safetensors": true,
	".ckpt":        true,
	".pt":          true,
	".bin":         true,
	".gguf":        true,
}

// ScanOptions controls Scan.
type ScanOptions struct {
	// Hash computes SHA-256 content hashes for records that have none.
	Hash bool
}

// ScanResult counts the changes made by Scan.
type ScanResult struct {
	Added   int
	Removed int
	Hashed  int
}

// Scan synchronizes the records of kind under dir with the files on disk.
// New model files are added, with metadata read from sidecar files when
// present; records whose file disappeared are removed. The store is not
// saved.
func (s *Store) Scan(ctx context.Context, dir string, kind Kind, opts ScanOptions) (ScanResult, error) {
	var res ScanResult

	root, err := filepath.Abs(dir)
	if err != nil {
		return res, fmt.Errorf("resolve scan directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return res, fmt.Errorf("scan directory: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("scan directory: %s is not a directory", root)
	}

	found := make(map[string]bool)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !modelExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		found[path] = true
		files = append(files, path)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk %s: %w", root, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := root + string(filepath.Separator)
	known := make(map[string]bool)
	kept := s.data.Records[:0]
	for _, r := range s.data.Records {
		if r.Kind == kind && strings.HasPrefix(r.Path, prefix) && !found[r.Path] {
			res.Removed++
			continue
		}
		known[r.Path] = true
		kept = append(kept, r)
	}
	s.data.Records = kept

	for _, path := range files {
		if known[path] {
			continue
		}
		s.addLocked(newRecord(path, kind))
		res.Added++
	}

	if !opts.Hash {
		return res, nil
	}
	for i := range s.data.Records {
		r := &s.data.Records[i]
		if r.Kind != kind || r.ContentHash != "" || !found[r.Path] {
			continue
		}
		sum, err := HashFile(ctx, r.Path)
		if err != nil {
			return res, err
		}
		r.ContentHash = sum
		res.Hashed++
	}
	return res, nil
}

// newRecord builds a record for a model file, merging sidecar metadata.
func newRecord(path string, kind Kind) Record {
	filename := filepath.Base(path)
	name := norm.NFC.String(strings.TrimSuffix(filename, filepath.Ext(filename)))
	meta := readSidecar(path)

	alias := meta.Alias
	if alias == "" {
		alias = name
	}
	return Record{
		Kind:            kind,
		Name:            name,
		Alias:           norm.NFC.String(alias),
		Path:            path,
		Dir:             filepath.Dir(path),
		Filename:        filename,
		Triggers:        meta.Triggers,
		ContentHash:     meta.ContentHash,
		RemoteID:        meta.RemoteID,
		RemoteVersionID: meta.RemoteVersionID,
		RemoteSource:    meta.RemoteSource,
		BaseModel:       meta.BaseModel,
		Description:     meta.Description,
	}
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// sidecarMeta is the metadata recovered from files next to a model.
type sidecarMeta struct {
	Alias           string
	Triggers        string
	ContentHash     string
	RemoteID        string
	RemoteVersionID string
	RemoteSource    string
	BaseModel       string
	Description     string
}

// remoteVersion is the subset of a model-hub version document we read.
type remoteVersion struct {
	ID           json.RawMessage `json:"id"`
	ModelID      json.RawMessage `json:"modelId"`
	Name         string          `json:"name"`
	BaseModel    string          `json:"baseModel"`
	Description  string          `json:"description"`
	TrainedWords []string        `json:"trainedWords"`
	Model        struct {
		Name string `json:"name"`
	} `json:"model"`

	// Fields written by this tool when it exports records.
	RemoteSourceField    string `json:"remote_source"`
	RemoteIDField        string `json:"remote_id"`
	RemoteVersionIDField string `json:"remote_version_id"`
	BaseModelField       string `json:"base_model"`
	ContentHashField     string `json:"content_hash"`
	AliasField           string `json:"alias"`
	TriggerWordsField    string `json:"trigger_words"`
}

// readSidecar looks for <base>.json (with <base>.model.json for the parent
// model name) and then <base>.civitai.info. Unreadable files are ignored.
func readSidecar(modelPath string) sidecarMeta {
	base := strings.TrimSuffix(modelPath, filepath.Ext(modelPath))

	version, hasVersion := readJSON(base + ".json")
	if hasVersion && len(version.ID) > 0 && len(version.ModelID) > 0 {
		parent, _ := readJSON(base + ".model.json")
		return hubMeta(version, parent.Name)
	}
	if info, ok := readJSON(base + ".civitai.info"); ok {
		return hubMeta(info, info.Model.Name)
	}
	if hasVersion && version.RemoteVersionIDField != "" {
		return sidecarMeta{
			Alias:           version.AliasField,
			Triggers:        version.TriggerWordsField,
			ContentHash:     version.ContentHashField,
			RemoteID:        version.RemoteIDField,
			RemoteVersionID: version.RemoteVersionIDField,
			RemoteSource:    version.RemoteSourceField,
			BaseModel:       version.BaseModelField,
			Description:     version.Description,
		}
	}
	return sidecarMeta{}
}

func readJSON(path string) (remoteVersion, bool) {
	var v remoteVersion
	data, err := os.ReadFile(path)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

func hubMeta(v remoteVersion, modelName string) sidecarMeta {
	m := sidecarMeta{
		RemoteSource:    "civitai",
		RemoteID:        rawID(v.ModelID),
		RemoteVersionID: rawID(v.ID),
		BaseModel:       v.BaseModel,
		Description:     v.Description,
		Triggers:        strings.Join(v.TrainedWords, ", "),
	}
	versionName := strings.TrimSpace(v.Name)
	modelName = strings.TrimSpace(modelName)
	switch {
	case modelName != "" && versionName != "":
		if strings.Contains(versionName, modelName) {
			m.Alias = versionName
		} else {
			m.Alias = modelName + " (" + versionName + ")"
		}
	case modelName != "":
		m.Alias = modelName
	default:
		m.Alias = versionName
	}
	return m
}

// rawID renders a JSON number or string id as text.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
