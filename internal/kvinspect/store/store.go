package store

import (
	"context"
)

// Domain names used by the agent. DefaultDomain holds keys written outside any
// named domain.
const (
	DefaultDomain        = "default"
	DomainConfigurations = "configurations"
	DomainQueries        = "queries"
	DomainEvents         = "events"
	DomainCarves         = "carves"
	DomainLogs           = "logs"
)

// DefaultDomains returns the agent's domains in dump order.
func DefaultDomains() []string {
	return []string{
		DefaultDomain,
		DomainConfigurations,
		DomainQueries,
		DomainEvents,
		DomainCarves,
		DomainLogs,
	}
}

// ScanFunc receives each pair of a domain in store order. key and value are only
// valid for the duration of the call. Returning an error stops the scan and the
// error is returned from Scan unchanged.
type ScanFunc func(key, value []byte) error

// KeyValueStore is an ordered source of (key, value) pairs per domain.
type KeyValueStore interface {
	// Domains returns the domains the store exposes, in dump order.
	Domains() []string

	// Scan calls fn for every pair in domain in the store's iteration order.
	Scan(ctx context.Context, domain string, fn ScanFunc) error
}

// DomainStats summarises one domain.
type DomainStats struct {
	Domain     string `json:"domain"`
	Keys       int64  `json:"keys"`
	KeyBytes   int64  `json:"key_bytes"`
	ValueBytes int64  `json:"value_bytes"`
}

// Stat scans domain and returns its totals.
func Stat(ctx context.Context, kv KeyValueStore, domain string) (DomainStats, error) {
	st := DomainStats{Domain: domain}
	err := kv.Scan(ctx, domain, func(key, value []byte) error {
		st.Keys++
		st.KeyBytes += int64(len(key))
		st.ValueBytes += int64(len(value))
		return nil
	})
	return st, err
}
