// Package catalog holds the lookup tables the editor consults: the growable
// unit-code and VAT-exemption registries and the read-only reference tables.
package catalog

import (
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Entry is one code/label pair
type Entry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Registry is an append-only, insertion-ordered code list.
// It is shared by every document loaded in the process, so it is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry creates a registry seeded with entries
func NewRegistry(seed []Entry) *Registry {
	r := &Registry{index: make(map[string]int, len(seed))}
	for _, e := range seed {
		r.AddIfAbsent(e.Code, e.Label)
	}
	return r
}

// AddIfAbsent registers code unless already known. Reports whether it was added.
func (r *Registry) AddIfAbsent(code, label string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[code]; ok {
		return false
	}
	if label == "" {
		label = code
	}
	r.index[code] = len(r.entries)
	r.entries = append(r.entries, Entry{Code: code, Label: label})
	return true
}

// Has reports whether code is registered
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[code]
	return ok
}

// Label returns the label for code
func (r *Registry) Label(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[code]
	if !ok {
		return "", false
	}
	return r.entries[i].Label, true
}

// Entries returns a snapshot in insertion order
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Codes returns the registered codes in insertion order
func (r *Registry) Codes() []string {
	return lo.Map(r.Entries(), func(e Entry, _ int) string { return e.Code })
}

// Len returns the number of entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Lookup finds code in a read-only table
func Lookup(table []Entry, code string) (string, bool) {
	e, ok := lo.Find(table, func(e Entry) bool { return e.Code == code })
	return e.Label, ok
}
