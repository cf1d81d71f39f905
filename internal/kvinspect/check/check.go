package check

import (
	"bytes"
	"context"
	"errors"

	"github.com/julianstephens/go-utils/checksum"

	"github.com/julianstephens/kvinspect/internal/kvinspect/replay"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
	"github.com/julianstephens/kvinspect/internal/logger"
)

var ErrNilTable = errors.New("check: nil replay table")

type FindingKind uint8

const (
	// FindingMissing: the log's last write is a value the store does not have.
	FindingMissing FindingKind = iota + 1
	// FindingMismatch: both sides have the key with different values.
	FindingMismatch
	// FindingDeletedPresent: the log deleted the key but the store still has it.
	FindingDeletedPresent
	// FindingUnexpected: the store has a key the log never wrote.
	FindingUnexpected
)

func (k FindingKind) String() string {
	switch k {
	case FindingMissing:
		return "missing"
	case FindingMismatch:
		return "mismatch"
	case FindingDeletedPresent:
		return "deleted-present"
	case FindingUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Finding is one disagreement between the replayed log and the store.
// Digests are CRC32C of the value on each side; zero when that side has no value.
type Finding struct {
	Kind        FindingKind
	Domain      string
	Key         []byte
	LogDigest   uint32
	StoreDigest uint32
	// LogOffset is the offset of the log record that last touched Key, or -1.
	LogOffset int64
}

type Options struct {
	// ReportUnexpected also reports store keys the log never wrote. Off by default
	// because logs are usually rotated and cover only recent writes.
	ReportUnexpected bool
	Logger           logger.Logger
}

type Summary struct {
	Domain    string `json:"domain"`
	Checked   int    `json:"checked"`
	Matched   int    `json:"matched"`
	Findings  int    `json:"findings"`
	StoreKeys int    `json:"store_keys"`
}

// EmitFunc receives findings as they are produced.
type EmitFunc func(Finding) error

// Digest returns the fingerprint used to compare values.
func Digest(value []byte) uint32 {
	return checksum.CRC32C(value)
}

// Run compares the replayed log state with one store domain. Findings for keys
// present in the store are emitted in store order, followed by missing keys in
// byte order.
func Run(ctx context.Context, kv store.KeyValueStore, domain string, table *replay.Table, opts Options, emit EmitFunc) (*Summary, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	lg := logger.OrNop(opts.Logger)

	sum := &Summary{Domain: domain}
	seen := make(map[string]struct{}, table.Len())
	report := func(f Finding) error {
		sum.Findings++
		if emit == nil {
			return nil
		}
		return emit(f)
	}

	lg.Info("cross-checking store domain", "domain", domain, "log_keys", table.Len())

	err := kv.Scan(ctx, domain, func(key, value []byte) error {
		sum.StoreKeys++
		entry, ok := table.Get(key)
		if !ok {
			if !opts.ReportUnexpected {
				return nil
			}
			return report(Finding{
				Kind:        FindingUnexpected,
				Domain:      domain,
				Key:         bytes.Clone(key),
				StoreDigest: Digest(value),
				LogOffset:   -1,
			})
		}

		seen[string(key)] = struct{}{}
		sum.Checked++
		if entry.Tombstone {
			return report(Finding{
				Kind:        FindingDeletedPresent,
				Domain:      domain,
				Key:         bytes.Clone(key),
				StoreDigest: Digest(value),
				LogOffset:   entry.Offset,
			})
		}
		if !bytes.Equal(entry.Value, value) {
			return report(Finding{
				Kind:        FindingMismatch,
				Domain:      domain,
				Key:         bytes.Clone(key),
				LogDigest:   Digest(entry.Value),
				StoreDigest: Digest(value),
				LogOffset:   entry.Offset,
			})
		}
		sum.Matched++
		return nil
	})
	if err != nil {
		lg.Error("store scan failed", err, "domain", domain)
		return sum, err
	}

	for _, key := range table.Keys() {
		if _, ok := seen[key]; ok {
			continue
		}
		entry, _ := table.Get([]byte(key))
		sum.Checked++
		if entry.Tombstone {
			sum.Matched++
			continue
		}
		if err := report(Finding{
			Kind:      FindingMissing,
			Domain:    domain,
			Key:       []byte(key),
			LogDigest: Digest(entry.Value),
			LogOffset: entry.Offset,
		}); err != nil {
			return sum, err
		}
	}

	lg.Info("cross-check complete",
		"domain", domain,
		"checked", sum.Checked,
		"matched", sum.Matched,
		"findings", sum.Findings,
	)
	return sum, nil
}
