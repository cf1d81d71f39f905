package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/check"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
)

type TextOptions struct {
	// MaxValueLen clips rendered values; 0 prints them whole.
	MaxValueLen int
	// Quiet suppresses per-item lines and prints only the summary.
	Quiet bool
}

// TextSink writes one line per item. Store pairs use the "Saw k -> v" layout
// of the agent's own dump tooling.
type TextSink struct {
	w    io.Writer
	opts TextOptions
}

var _ Sink = (*TextSink)(nil)

func NewTextSink(w io.Writer, opts TextOptions) *TextSink {
	return &TextSink{w: w, opts: opts}
}

func (s *TextSink) Begin(h Header) error {
	return s.printf("# %s %s run=%s\n", h.Command, h.Source, h.RunID)
}

func (s *TextSink) Record(rec aof.Record, kind op.Kind) error {
	if s.opts.Quiet {
		return nil
	}
	return s.printf("Saw %s -> %s (op=%s/0x%02x at=%d)\n",
		Clip(rec.Key, 0), Clip(rec.Value, s.opts.MaxValueLen), kind, rec.Header.Opcode, rec.Offset)
}

func (s *TextSink) Pair(domain string, key, value []byte) error {
	if s.opts.Quiet {
		return nil
	}
	if domain == store.DefaultDomain {
		return s.printf("Saw %s -> %s\n", Text(key), Clip(value, s.opts.MaxValueLen))
	}
	return s.printf("Column family %s Saw %s -> %s\n", domain, Text(key), Clip(value, s.opts.MaxValueLen))
}

func (s *TextSink) Finding(f check.Finding) error {
	line := fmt.Sprintf("%s %s %s", f.Kind, f.Domain, Text(f.Key))
	if f.Kind == check.FindingMissing || f.Kind == check.FindingMismatch {
		line += fmt.Sprintf(" log=crc32c:%08x", f.LogDigest)
	}
	if f.Kind != check.FindingMissing {
		line += fmt.Sprintf(" store=crc32c:%08x", f.StoreDigest)
	}
	if f.LogOffset >= 0 {
		line += fmt.Sprintf(" at=%d", f.LogOffset)
	}
	return s.printf("%s\n", line)
}

func (s *TextSink) Stats(st store.DomainStats) error {
	return s.printf("%-16s %s keys, %s in keys, %s in values\n",
		st.Domain,
		humanize.Comma(st.Keys),
		humanize.Bytes(uint64(st.KeyBytes)),   //nolint:gosec
		humanize.Bytes(uint64(st.ValueBytes)), //nolint:gosec
	)
}

func (s *TextSink) End(sum Summary) error {
	if sum.Records > 0 || sum.Tail != "" {
		if err := s.printf("records=%s puts=%s deletes=%s unknown=%s size=%s tail=%s\n",
			humanize.Comma(int64(sum.Records)),
			humanize.Comma(int64(sum.Puts)),
			humanize.Comma(int64(sum.Deletes)),
			humanize.Comma(int64(sum.Unknown)),
			humanize.Bytes(uint64(sum.Bytes)), //nolint:gosec
			sum.Tail,
		); err != nil {
			return err
		}
	}
	if sum.Pairs > 0 {
		if err := s.printf("pairs=%s\n", humanize.Comma(int64(sum.Pairs))); err != nil {
			return err
		}
	}
	if c := sum.Check; c != nil {
		if err := s.printf("domain=%s checked=%d matched=%d findings=%d store_keys=%d\n",
			c.Domain, c.Checked, c.Matched, c.Findings, c.StoreKeys); err != nil {
			return err
		}
	}
	if sum.Error != "" {
		return s.printf("error: %s\n", sum.Error)
	}
	return nil
}

func (s *TextSink) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(s.w, format, args...)
	return err
}
