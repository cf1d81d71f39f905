package testutil

import (
	"bytes"
	"context"
	"errors"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/check"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/replay"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// TestingT is a minimal interface for test assertions.
type TestingT interface {
	Fatalf(format string, args ...any)
}

// ReplayHarness replays a Log and optionally cross-checks it against a store.
type ReplayHarness struct {
	log      *Log
	mapping  op.Mapping
	opts     []aof.DecoderOption
	lg       logger.Logger
	result   *replay.Result
	err      error
	findings []check.Finding
	summary  *check.Summary
}

// NewHarness creates a harness for log using the default opcode table.
func NewHarness(log *Log) *ReplayHarness {
	return &ReplayHarness{
		log:     log,
		mapping: op.DefaultMapping(),
		lg:      logger.NoOpLogger{},
	}
}

func (h *ReplayHarness) WithMapping(m op.Mapping) *ReplayHarness {
	h.mapping = m
	return h
}

func (h *ReplayHarness) WithDecoderOptions(opts ...aof.DecoderOption) *ReplayHarness {
	h.opts = append(h.opts, opts...)
	return h
}

func (h *ReplayHarness) WithLogger(lg logger.Logger) *ReplayHarness {
	h.lg = lg
	return h
}

// Replay decodes the log and applies it to a fresh table.
func (h *ReplayHarness) Replay() error {
	dec := aof.NewDecoder(bytes.NewReader(h.log.Bytes()), h.opts...)
	h.result, h.err = replay.Replay(dec, h.mapping, h.lg, nil)
	return h.err
}

// Check cross-checks the replayed state against domain of kv.
func (h *ReplayHarness) Check(kv store.KeyValueStore, domain string, opts check.Options) error {
	if h.result == nil {
		return errors.New("no replay result available; call Replay first")
	}
	h.findings = nil
	var err error
	h.summary, err = check.Run(context.Background(), kv, domain, h.result.Table, opts, func(f check.Finding) error {
		h.findings = append(h.findings, f)
		return nil
	})
	return err
}

func (h *ReplayHarness) AssertReplaySuccess(t TestingT) {
	if h.err != nil {
		t.Fatalf("expected replay to succeed, but got error: %v", h.err)
	}
}

// AssertReplayError asserts that replay failed with an error matching target.
func (h *ReplayHarness) AssertReplayError(t TestingT, target error) {
	if h.err == nil {
		t.Fatalf("expected replay to fail with %v, but it succeeded", target)
	}
	if !errors.Is(h.err, target) {
		t.Fatalf("expected replay error %v, got %v", target, h.err)
	}
}

func (h *ReplayHarness) AssertTailStatus(t TestingT, expected replay.TailStatus) {
	h.requireResult(t)
	if h.result.TailStatus != expected {
		t.Fatalf("expected TailStatus=%v, got %v", expected, h.result.TailStatus)
	}
}

func (h *ReplayHarness) AssertLastValid(t TestingT, expected int64) {
	h.requireResult(t)
	if h.result.LastValid != expected {
		t.Fatalf("expected LastValid=%d, got %d", expected, h.result.LastValid)
	}
}

func (h *ReplayHarness) AssertCounts(t TestingT, records, puts, deletes, unknown int) {
	h.requireResult(t)
	r := h.result
	if r.Records != records || r.Puts != puts || r.Deletes != deletes || r.Unknown != unknown {
		t.Fatalf("expected records=%d puts=%d deletes=%d unknown=%d, got records=%d puts=%d deletes=%d unknown=%d",
			records, puts, deletes, unknown, r.Records, r.Puts, r.Deletes, r.Unknown)
	}
}

// AssertEntry asserts the replayed value of key. Pass nil to assert the key is
// absent or deleted.
func (h *ReplayHarness) AssertEntry(t TestingT, key, expected []byte) {
	h.requireResult(t)
	entry, ok := h.result.Table.Get(key)
	if expected == nil {
		if ok && !entry.Tombstone {
			t.Fatalf("expected key %q to be absent or deleted, got %q", key, entry.Value)
		}
		return
	}
	if !ok || entry.Tombstone {
		t.Fatalf("expected key %q with value %q, but key was not found", key, expected)
	}
	if !bytes.Equal(entry.Value, expected) {
		t.Fatalf("expected key %q with value %q, got %q", key, expected, entry.Value)
	}
}

// AssertFindings asserts the kinds and keys of the cross-check findings, in order.
func (h *ReplayHarness) AssertFindings(t TestingT, expected ...check.Finding) {
	if h.summary == nil {
		t.Fatalf("no check summary available; call Check first")
	}
	if len(h.findings) != len(expected) {
		t.Fatalf("expected %d findings, got %d: %+v", len(expected), len(h.findings), h.findings)
	}
	for i, want := range expected {
		got := h.findings[i]
		if got.Kind != want.Kind || !bytes.Equal(got.Key, want.Key) {
			t.Fatalf("finding %d: expected %v %q, got %v %q", i, want.Kind, want.Key, got.Kind, got.Key)
		}
	}
}

func (h *ReplayHarness) Result() *replay.Result {
	return h.result
}

func (h *ReplayHarness) Summary() *check.Summary {
	return h.summary
}

func (h *ReplayHarness) requireResult(t TestingT) {
	if h.result == nil {
		t.Fatalf("no replay result available; call Replay first")
	}
}
