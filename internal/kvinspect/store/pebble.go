package store

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/julianstephens/go-utils/helpers"

	"github.com/julianstephens/kvinspect/internal/kvinspect/errorutil"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// domainSep separates the domain name from the user key. Pebble has no column
// families, so each domain is the key range [domain 0x00, domain 0x01).
const domainSep = 0x00

// Options configures how a PebbleStore is opened.
type Options struct {
	// Domains lists the domains to expose; DefaultDomains() if empty.
	Domains []string

	// Writable opens the store for writes. Inspection opens read-only.
	Writable bool

	// FS overrides the filesystem; nil uses the OS filesystem.
	FS vfs.FS

	Logger logger.Logger
}

// PebbleStore is a KeyValueStore backed by a pebble database.
type PebbleStore struct {
	mu       sync.RWMutex
	db       *pebble.DB
	path     string
	domains  []string
	writable bool
	closed   bool
	lg       logger.Logger
}

var _ KeyValueStore = (*PebbleStore)(nil)

// Open opens the store at path. A read-only open of a path that does not exist
// fails with ErrStoreNotFound.
func Open(path string, opts Options) (*PebbleStore, error) {
	lg := logger.OrNop(opts.Logger)

	domains := opts.Domains
	if len(domains) == 0 {
		domains = DefaultDomains()
	}
	for _, d := range domains {
		if err := validateDomain(d); err != nil {
			return nil, &StoreError{Err: ErrInvalidDomain, Op: "open", Path: path, Coordinates: errorutil.InDomain(d)}
		}
	}

	if opts.FS == nil && !opts.Writable && !helpers.Exists(path) {
		lg.Warn("store path does not exist", "path", path)
		return nil, &StoreError{Err: ErrStoreNotFound, Op: "open", Path: path}
	}

	pOpts := &pebble.Options{
		ReadOnly:         !opts.Writable,
		ErrorIfNotExists: !opts.Writable,
	}
	if opts.FS != nil {
		pOpts.FS = opts.FS
	}

	db, err := pebble.Open(path, pOpts)
	if err != nil {
		lg.Error("failed to open store", err, "path", path, "writable", opts.Writable)
		return nil, &StoreError{Err: ErrStoreOpen, Op: "open", Path: path, Cause: err}
	}

	lg.Info("store opened", "path", path, "writable", opts.Writable, "domains", len(domains))
	return &PebbleStore{
		db:       db,
		path:     path,
		domains:  slices.Clone(domains),
		writable: opts.Writable,
		lg:       lg,
	}, nil
}

// Path returns the directory the store was opened from.
func (s *PebbleStore) Path() string {
	return s.path
}

// Domains returns the configured domains in dump order.
func (s *PebbleStore) Domains() []string {
	return slices.Clone(s.domains)
}

// Scan iterates domain in key order. ctx is checked between pairs.
func (s *PebbleStore) Scan(ctx context.Context, domain string, fn ScanFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return &StoreError{Err: ErrStoreClosed, Op: "scan", Coordinates: errorutil.InDomain(domain)}
	}
	if !slices.Contains(s.domains, domain) {
		return &StoreError{Err: ErrUnknownDomain, Op: "scan", Coordinates: errorutil.InDomain(domain)}
	}

	lower := domainPrefix(domain)
	upper := append([]byte(domain), domainSep+1)

	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return &StoreError{Err: ErrScan, Op: "scan", Coordinates: errorutil.InDomain(domain), Cause: err}
	}

	count := 0
	for valid := it.First(); valid; valid = it.Next() {
		if err := ctx.Err(); err != nil {
			_ = it.Close()
			return err
		}
		if err := fn(it.Key()[len(lower):], it.Value()); err != nil {
			_ = it.Close()
			return err
		}
		count++
	}

	iterErr := it.Error()
	closeErr := it.Close()
	if err := errors.Join(iterErr, closeErr); err != nil {
		return &StoreError{Err: ErrScan, Op: "scan", Coordinates: errorutil.InDomain(domain), Cause: err}
	}

	s.lg.Debug("domain scanned", "domain", domain, "pairs", count)
	return nil
}

// Get returns a copy of the value stored under key in domain.
func (s *PebbleStore) Get(domain string, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, &StoreError{Err: ErrStoreClosed, Op: "get"}
	}
	if !slices.Contains(s.domains, domain) {
		return nil, false, &StoreError{Err: ErrUnknownDomain, Op: "get", Coordinates: errorutil.InDomain(domain)}
	}

	value, closer, err := s.db.Get(domainKey(domain, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StoreError{Err: ErrScan, Op: "get", Coordinates: errorutil.InDomain(domain), Cause: err}
	}
	defer func() { _ = closer.Close() }()

	return bytes.Clone(value), true, nil
}

// Put stores key/value in domain. Requires a writable store.
func (s *PebbleStore) Put(domain string, key, value []byte) error {
	return s.write("put", domain, func(db *pebble.DB) error {
		return db.Set(domainKey(domain, key), value, pebble.Sync)
	})
}

// Delete removes key from domain. Requires a writable store.
func (s *PebbleStore) Delete(domain string, key []byte) error {
	return s.write("delete", domain, func(db *pebble.DB) error {
		return db.Delete(domainKey(domain, key), pebble.Sync)
	})
}

// Close closes the underlying database. Closing twice is a no-op.
func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return &StoreError{Err: ErrStoreClosed, Op: "close", Path: s.path, Cause: err}
	}
	s.lg.Debug("store closed", "path", s.path)
	return nil
}

func (s *PebbleStore) write(op string, domain string, fn func(db *pebble.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return &StoreError{Err: ErrStoreClosed, Op: op}
	}
	if !s.writable {
		return &StoreError{Err: ErrReadOnly, Op: op, Path: s.path}
	}
	if !slices.Contains(s.domains, domain) {
		return &StoreError{Err: ErrUnknownDomain, Op: op, Coordinates: errorutil.InDomain(domain)}
	}
	if err := fn(s.db); err != nil {
		return &StoreError{Err: ErrWrite, Op: op, Coordinates: errorutil.InDomain(domain), Cause: err}
	}
	return nil
}

func validateDomain(domain string) error {
	if domain == "" || strings.IndexByte(domain, domainSep) >= 0 {
		return ErrInvalidDomain
	}
	return nil
}

func domainPrefix(domain string) []byte {
	return append([]byte(domain), domainSep)
}

func domainKey(domain string, key []byte) []byte {
	k := make([]byte, 0, len(domain)+1+len(key))
	k = append(k, domain...)
	k = append(k, domainSep)
	return append(k, key...)
}
