package report

import (
	"encoding/hex"
	"io"

	"github.com/julianstephens/go-utils/jsonutil"
	"github.com/tidwall/pretty"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/check"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
)

type JSONOptions struct {
	// Pretty indents each event; otherwise events are written as JSON lines.
	Pretty bool
	// Color adds terminal colors. Only meaningful with Pretty.
	Color bool
}

// JSONSink writes one JSON object per event, each tagged with the run id.
type JSONSink struct {
	w    io.Writer
	opts JSONOptions
	run  string
}

var _ Sink = (*JSONSink)(nil)

func NewJSONSink(w io.Writer, opts JSONOptions) *JSONSink {
	return &JSONSink{w: w, opts: opts}
}

// bytesField carries raw bytes as text when printable, hex otherwise.
type bytesField struct {
	Text *string `json:"text,omitempty"`
	Hex  *string `json:"hex,omitempty"`
	Len  int     `json:"len"`
}

func newBytesField(b []byte) bytesField {
	f := bytesField{Len: len(b)}
	if IsText(b) {
		s := string(b)
		f.Text = &s
	} else {
		h := hex.EncodeToString(b)
		f.Hex = &h
	}
	return f
}

type recordEvent struct {
	Type   string     `json:"type"`
	Run    string     `json:"run"`
	Offset int64      `json:"offset"`
	Opcode uint8      `json:"opcode"`
	Kind   string     `json:"kind"`
	Key    bytesField `json:"key"`
	Value  bytesField `json:"value"`
}

type pairEvent struct {
	Type   string     `json:"type"`
	Run    string     `json:"run"`
	Domain string     `json:"domain"`
	Key    bytesField `json:"key"`
	Value  bytesField `json:"value"`
}

type findingEvent struct {
	Type        string     `json:"type"`
	Run         string     `json:"run"`
	Kind        string     `json:"kind"`
	Domain      string     `json:"domain"`
	Key         bytesField `json:"key"`
	LogDigest   uint32     `json:"log_crc32c,omitempty"`
	StoreDigest uint32     `json:"store_crc32c,omitempty"`
	LogOffset   int64      `json:"log_offset"`
}

type statsEvent struct {
	Type string `json:"type"`
	Run  string `json:"run"`
	store.DomainStats
}

type beginEvent struct {
	Type string `json:"type"`
	Header
}

type endEvent struct {
	Type string `json:"type"`
	Run  string `json:"run"`
	Summary
}

func (s *JSONSink) Begin(h Header) error {
	s.run = h.RunID
	return s.write(beginEvent{Type: "begin", Header: h})
}

func (s *JSONSink) Record(rec aof.Record, kind op.Kind) error {
	return s.write(recordEvent{
		Type:   "record",
		Run:    s.run,
		Offset: rec.Offset,
		Opcode: rec.Header.Opcode,
		Kind:   kind.String(),
		Key:    newBytesField(rec.Key),
		Value:  newBytesField(rec.Value),
	})
}

func (s *JSONSink) Pair(domain string, key, value []byte) error {
	return s.write(pairEvent{
		Type:   "pair",
		Run:    s.run,
		Domain: domain,
		Key:    newBytesField(key),
		Value:  newBytesField(value),
	})
}

func (s *JSONSink) Finding(f check.Finding) error {
	return s.write(findingEvent{
		Type:        "finding",
		Run:         s.run,
		Kind:        f.Kind.String(),
		Domain:      f.Domain,
		Key:         newBytesField(f.Key),
		LogDigest:   f.LogDigest,
		StoreDigest: f.StoreDigest,
		LogOffset:   f.LogOffset,
	})
}

func (s *JSONSink) Stats(st store.DomainStats) error {
	return s.write(statsEvent{Type: "stats", Run: s.run, DomainStats: st})
}

func (s *JSONSink) End(sum Summary) error {
	return s.write(endEvent{Type: "end", Run: s.run, Summary: sum})
}

func (s *JSONSink) write(v any) error {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		return err
	}
	if s.opts.Pretty {
		data = pretty.Pretty(data)
		if s.opts.Color {
			data = pretty.Color(data, pretty.TerminalStyle)
		}
	} else {
		data = append(pretty.Ugly(data), '\n')
	}
	_, err = s.w.Write(data)
	return err
}
