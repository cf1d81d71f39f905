package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
)

// LogEntry is one record appended to a Log.
type LogEntry struct {
	Opcode uint8
	Key    []byte
	Value  []byte
}

// Log builds an append-only log in memory for tests.
type Log struct {
	entries []LogEntry
	buf     []byte
}

// NewLog creates an empty log builder.
func NewLog() *Log {
	return &Log{}
}

// Record appends a record with an arbitrary opcode.
func (l *Log) Record(opcode uint8, key, value []byte) *Log {
	e := LogEntry{
		Opcode: opcode,
		Key:    append([]byte{}, key...),
		Value:  append([]byte{}, value...),
	}
	l.entries = append(l.entries, e)
	l.buf = aof.AppendRecord(l.buf, e.Opcode, e.Key, e.Value)
	return l
}

// Put appends a put using the default opcode table.
func (l *Log) Put(key, value []byte) *Log {
	return l.Record(op.OpcodePut, key, value)
}

// Delete appends a delete using the default opcode table.
func (l *Log) Delete(key []byte) *Log {
	return l.Record(op.OpcodeDelete, key, nil)
}

// Raw appends bytes that are not a record, e.g. a torn tail.
func (l *Log) Raw(b ...byte) *Log {
	l.buf = append(l.buf, b...)
	return l
}

// Bytes returns the encoded log.
func (l *Log) Bytes() []byte {
	return slices.Clone(l.buf)
}

// Records returns the entries appended with Record, Put, or Delete.
func (l *Log) Records() []LogEntry {
	return slices.Clone(l.entries)
}

// WriteFile writes the log to name inside a test temp dir and returns its path.
func (l *Log) WriteFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	tst.RequireNoError(t, os.WriteFile(path, l.buf, 0o600))
	return path
}
