// Package report renders decoded log records, store pairs, and cross-check
// findings. Keys and values are raw bytes; rendering decides how to show them.
package report

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/check"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
)

// Header opens a report.
type Header struct {
	RunID   string    `json:"run"`
	Command string    `json:"command"`
	Source  string    `json:"source"`
	Started time.Time `json:"started"`
}

// NewHeader stamps a header with a fresh run id.
func NewHeader(command, source string) Header {
	return Header{
		RunID:   ksuid.New().String(),
		Command: command,
		Source:  source,
		Started: time.Now().UTC(),
	}
}

// Summary closes a report. Zero fields are omitted by the JSON sink.
type Summary struct {
	Records int            `json:"records,omitempty"`
	Puts    int            `json:"puts,omitempty"`
	Deletes int            `json:"deletes,omitempty"`
	Unknown int            `json:"unknown,omitempty"`
	Bytes   int64          `json:"bytes,omitempty"`
	Tail    string         `json:"tail,omitempty"`
	Error   string         `json:"error,omitempty"`
	Pairs   int            `json:"pairs,omitempty"`
	Check   *check.Summary `json:"check,omitempty"`
}

// Sink receives report events in order: Begin, any number of items, End.
type Sink interface {
	Begin(h Header) error
	Record(rec aof.Record, kind op.Kind) error
	Pair(domain string, key, value []byte) error
	Finding(f check.Finding) error
	Stats(st store.DomainStats) error
	End(s Summary) error
}

// Format selects a Sink implementation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)
