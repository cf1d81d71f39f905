package replay

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
)

var (
	ErrNilKey      = errors.New("replay: nil key")
	ErrInvalidKind = errors.New("replay: invalid op kind")
)

// Entry is the last write seen for a key, either a value or a tombstone.
type Entry struct {
	Value     []byte
	Tombstone bool
	// Offset is the log offset of the record that produced this entry.
	Offset int64
}

// Table is the last-writer-wins state of a replayed log.
type Table struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		m: make(map[string]Entry),
	}
}

// Get returns the entry for key, including tombstones.
func (t *Table) Get(key []byte) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.m[string(key)]
	return e, ok
}

// Apply records o as the latest write for its key. Records handed out by the
// decoder are not reused, so values are stored without copying.
func (t *Table) Apply(o op.Op, offset int64) error {
	if o.Key == nil {
		return ErrNilKey
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch o.Kind {
	case op.KindPut:
		t.m[string(o.Key)] = Entry{Value: o.Value, Offset: offset}
	case op.KindDelete:
		t.m[string(o.Key)] = Entry{Tombstone: true, Offset: offset}
	default:
		return ErrInvalidKind
	}
	return nil
}

// Len returns the number of keys, tombstones included.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Keys returns every key in byte order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.m))
}

// Snapshot returns a copy of the current state (for tests/debugging).
func (t *Table) Snapshot() map[string]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Entry, len(t.m))
	for k, e := range t.m {
		out[k] = Entry{Value: slices.Clone(e.Value), Tombstone: e.Tombstone, Offset: e.Offset}
	}
	return out
}
