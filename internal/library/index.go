package library

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/norm"
)

// nameMemoSize bounds the number of memoized name lookups per index.
const nameMemoSize = 512

// Index is an immutable, read-only view of a set of records. It is safe for
// concurrent use.
//
// Hash and remote version id lookups are map reads. Name lookups scan the
// records once per distinct name and are memoized.
type Index struct {
	records  []Record
	byHash   map[string]int
	byRemote map[string]int
	names    *lru.Cache[string, int]
}

// NewIndex builds an index over records. Names and aliases are NFC
// normalized. When several records share a hash or remote id, the first one
// wins.
func NewIndex(records []Record) *Index {
	x := &Index{
		records:  make([]Record, len(records)),
		byHash:   make(map[string]int),
		byRemote: make(map[string]int),
	}
	for i, r := range records {
		r.Name = norm.NFC.String(r.Name)
		r.Alias = norm.NFC.String(r.Alias)
		x.records[i] = r
		if r.ContentHash != "" {
			if _, ok := x.byHash[r.ContentHash]; !ok {
				x.byHash[r.ContentHash] = i
			}
		}
		if r.RemoteVersionID != "" {
			if _, ok := x.byRemote[r.RemoteVersionID]; !ok {
				x.byRemote[r.RemoteVersionID] = i
			}
		}
	}
	// lru.New only fails for a non-positive size.
	x.names, _ = lru.New[string, int](nameMemoSize)
	return x
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.records)
}

// All returns a copy of the records in index order.
func (x *Index) All() []Record {
	return slices.Clone(x.records)
}

// FindBestMatch finds the record an asset reference points at. Empty
// arguments are skipped. The strategies are tried in order and the first
// hit wins:
//
//  1. content hash
//  2. remote version id
//  3. name or alias equal to name, or to name with spaces and underscores
//     swapped, compared exactly after NFC normalization
//  4. the same comparison ignoring case
func (x *Index) FindBestMatch(hash, remoteVersionID, name string) (Record, bool) {
	if hash != "" {
		if i, ok := x.byHash[hash]; ok {
			return x.records[i], true
		}
	}
	if remoteVersionID != "" {
		if i, ok := x.byRemote[remoteVersionID]; ok {
			return x.records[i], true
		}
	}
	if name == "" {
		return Record{}, false
	}

	key := norm.NFC.String(name)
	i, ok := x.names.Get(key)
	if !ok {
		i = x.scanName(key)
		x.names.Add(key, i)
	}
	if i < 0 {
		return Record{}, false
	}
	return x.records[i], true
}

// scanName returns the index of the first record matching name, or -1.
func (x *Index) scanName(name string) int {
	candidates := nameVariants(name)
	for i, r := range x.records {
		if slices.Contains(candidates, r.Name) || (r.Alias != "" && slices.Contains(candidates, r.Alias)) {
			return i
		}
	}

	for j, c := range candidates {
		candidates[j] = strings.ToLower(c)
	}
	for i, r := range x.records {
		if slices.Contains(candidates, strings.ToLower(r.Name)) ||
			(r.Alias != "" && slices.Contains(candidates, strings.ToLower(r.Alias))) {
			return i
		}
	}
	return -1
}

func nameVariants(name string) []string {
	variants := []string{name}
	for _, v := range []string{
		strings.ReplaceAll(name, " ", "_"),
		strings.ReplaceAll(name, "_", " "),
	} {
		if !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}
