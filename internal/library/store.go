package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// file is the on-disk layout of the library.
type file struct {
	Records []Record `json:"records"`
}

// Store persists the library as a JSON file.
type Store struct {
	filePath string
	data     *file
	mu       sync.Mutex
}

// NewStore creates a store backed by path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{
		filePath: path,
		data:     &file{Records: []Record{}},
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the library from disk.
// A missing or empty file is an empty library.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = &file{Records: []Record{}}
			return nil
		}
		return fmt.Errorf("read library file: %w", err)
	}
	if len(data) == 0 {
		s.data = &file{Records: []Record{}}
		return nil
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse library: %w", err)
	}
	s.data = &f
	return nil
}

// Save writes the library to disk atomically.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create library directory: %w", err)
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal library: %w", err)
	}

	// Temp file + rename so a crash never leaves a truncated library.
	tmp, err := os.CreateTemp(dir, ".library-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename library file: %w", err)
	}
	return nil
}

// Add inserts r, or replaces the record with the same path. A missing ID is
// generated. The stored record is returned.
func (s *Store) Add(r Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(r)
}

func (s *Store) addLocked(r Record) Record {
	if r.Path != "" {
		if i := slices.IndexFunc(s.data.Records, func(e Record) bool { return e.Path == r.Path }); i >= 0 {
			if r.ID == "" {
				r.ID = s.data.Records[i].ID
			}
			s.data.Records[i] = r
			return r
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.data.Records = append(s.data.Records, r)
	return r
}

// Remove deletes the record with id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.data.Records)
	s.data.Records = slices.DeleteFunc(s.data.Records, func(e Record) bool {
		return e.ID == id
	})
	if len(s.data.Records) == n {
		return &NotFoundError{Ref: id}
	}
	return nil
}

// Find looks up a record by id.
// Returns a copy; mutations do not affect the store. Returns nil if not found.
func (s *Store) Find(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.data.Records {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

// List returns the records of kind, or every record when kind is empty.
func (s *Store) List(kind Kind) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == "" {
		return slices.Clone(s.data.Records)
	}
	var out []Record
	for _, e := range s.data.Records {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot returns an immutable index over the records of kind. Later store
// mutations do not affect it.
func (s *Store) Snapshot(kind Kind) *Index {
	return NewIndex(s.List(kind))
}
