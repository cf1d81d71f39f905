package testutil

import (
	"path/filepath"
	"testing"

	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
)

// Pair is one key/value seeded into a store domain.
type Pair struct {
	Domain string
	Key    string
	Value  string
}

// SetupTestStore creates an on-disk pebble store under a temp dir, seeds it with
// pairs, closes it, and returns its path.
func SetupTestStore(t *testing.T, pairs ...Pair) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osquery.db")

	kv, err := store.Open(path, store.Options{Writable: true})
	tst.RequireNoError(t, err)
	for _, p := range pairs {
		tst.RequireNoError(t, kv.Put(p.Domain, []byte(p.Key), []byte(p.Value)))
	}
	tst.RequireNoError(t, kv.Close())
	return path
}

// OpenTestStore opens path read-only and closes it when the test ends.
func OpenTestStore(t *testing.T, path string) *store.PebbleStore {
	t.Helper()
	kv, err := store.Open(path, store.Options{})
	tst.RequireNoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}
