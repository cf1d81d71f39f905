package report

import (
	"fmt"
	"io"
	"strings"
)

// ParseFormat accepts "text" or "json", case-insensitively. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", s)
	}
}

// Options selects and configures a Sink.
type Options struct {
	Format      Format
	MaxValueLen int
	Quiet       bool
	Pretty      bool
	Color       bool
}

// New returns the sink for opts.Format. An empty format means text.
func New(w io.Writer, opts Options) (Sink, error) {
	switch opts.Format {
	case "", FormatText:
		return NewTextSink(w, TextOptions{MaxValueLen: opts.MaxValueLen, Quiet: opts.Quiet}), nil
	case FormatJSON:
		return NewJSONSink(w, JSONOptions{Pretty: opts.Pretty, Color: opts.Color}), nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", opts.Format)
	}
}
