package locate

import (
	"sort"
	"strings"
)

// ReferenceRow is one row of the location reference table.
type ReferenceRow struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Extra       string `json:"extra,omitempty"`
	Description string `json:"description"`
}

// Location is a storage location code and its description.
type Location struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Index holds the normalized reference table and its lookup buckets. It is
// immutable once built.
type Index struct {
	entries map[string]Location
	keys    []string // normalized names in first-seen order

	byChar map[byte][]string
	byWord map[string][]string

	sorted     map[string]string // sorted key -> normalized name
	sortedKeys []string
}

// BuildIndex normalizes every row and indexes it. A later row with the same
// normalized name replaces the earlier location.
func BuildIndex(rows []ReferenceRow, norm *Normalizer) *Index {
	idx := &Index{
		entries: make(map[string]Location, len(rows)),
		byChar:  map[byte][]string{},
		byWord:  map[string][]string{},
		sorted:  map[string]string{},
	}
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		code := strings.TrimSpace(row.Code)
		if name == "" || code == "" {
			continue
		}
		key := norm.Normalize(name)
		if key == "" {
			continue
		}
		if _, seen := idx.entries[key]; !seen {
			idx.keys = append(idx.keys, key)
			idx.byChar[key[0]] = append(idx.byChar[key[0]], key)
			if first := strings.Fields(key)[0]; len(first) > 1 {
				idx.byWord[first] = append(idx.byWord[first], key)
			}
		}
		idx.entries[key] = Location{Code: code, Description: strings.TrimSpace(row.Description)}

		if sk := SortedKey(key); sk != "" {
			if _, seen := idx.sorted[sk]; !seen {
				idx.sortedKeys = append(idx.sortedKeys, sk)
			}
			idx.sorted[sk] = key
		}
	}
	sort.Strings(idx.sortedKeys)
	return idx
}

// Len returns the number of distinct normalized names.
func (idx *Index) Len() int { return len(idx.keys) }

// Get returns the location for an exact normalized name.
func (idx *Index) Get(key string) (Location, bool) {
	loc, ok := idx.entries[key]
	return loc, ok
}

// candidates returns the names worth scoring against query: its first-word
// bucket, widened by the first-character bucket when that is small, or the
// whole table when both are empty.
func (idx *Index) candidates(query string, floor int) []string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil
	}
	out := append([]string(nil), idx.byWord[words[0]]...)
	if len(out) < floor {
		seen := make(map[string]bool, len(out))
		for _, k := range out {
			seen[k] = true
		}
		for _, k := range idx.byChar[query[0]] {
			if !seen[k] {
				out = append(out, k)
			}
		}
	}
	if len(out) == 0 {
		return idx.keys
	}
	return out
}
