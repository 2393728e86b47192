package totals

import (
	"sort"

	"github.com/rezonia/efactura-editor/internal/model"
)

// OverrideTracker remembers which VAT rows were edited by hand, together with
// the bucket key each row had when it was first frozen
type OverrideTracker struct {
	rows map[string]model.VATKey
}

// NewOverrideTracker creates an empty tracker
func NewOverrideTracker() *OverrideTracker {
	return &OverrideTracker{rows: make(map[string]model.VATKey)}
}

// MarkManual freezes the row with the given id. origin is the key of the
// bucket the row stands for; a row frozen earlier keeps its first origin.
func (t *OverrideTracker) MarkManual(id string, origin model.VATKey) {
	if id == "" {
		return
	}
	if _, ok := t.rows[id]; ok {
		return
	}
	t.rows[id] = origin
}

// IsManual reports whether the row is frozen
func (t *OverrideTracker) IsManual(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.rows[id]
	return ok
}

// Origin returns the bucket key a frozen row stands for
func (t *OverrideTracker) Origin(id string) (model.VATKey, bool) {
	if t == nil {
		return model.VATKey{}, false
	}
	key, ok := t.rows[id]
	return key, ok
}

// Forget drops a single row, used when the row itself is deleted
func (t *OverrideTracker) Forget(id string) {
	delete(t.rows, id)
}

// ClearAll unfreezes every row
func (t *OverrideTracker) ClearAll() {
	t.rows = make(map[string]model.VATKey)
}

// Len returns the number of frozen rows
func (t *OverrideTracker) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IDs returns the frozen row ids in sorted order
func (t *OverrideTracker) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Origins returns a copy of the origin key of every frozen row
func (t *OverrideTracker) Origins() map[string]model.VATKey {
	if t == nil || len(t.rows) == 0 {
		return nil
	}
	out := make(map[string]model.VATKey, len(t.rows))
	for id, key := range t.rows {
		out[id] = key
	}
	return out
}
