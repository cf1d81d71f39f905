package aof

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"math"

	"github.com/julianstephens/kvinspect/internal/kvinspect/errorutil"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// payloads above this size are read incrementally so memory tracks the bytes
// actually present in the stream, not the declared length.
const eagerReadLimit = 1 << 20

type decoderState uint8

const (
	stateReady decoderState = iota
	stateDone
	stateFailed
)

// Decoder reads framed records from an io.Reader, one record per call to Next.
// A Decoder is not safe for concurrent use; open independent readers instead.
type Decoder struct {
	r          io.Reader
	offset     int64
	count      int
	maxPayload uint64
	state      decoderState
	err        error
	lg         logger.Logger
	hdr        [HeaderSize]byte
}

type DecoderOption func(*Decoder)

// WithMaxPayloadSize bounds each declared key or value length. Zero disables the bound.
func WithMaxPayloadSize(n uint64) DecoderOption {
	return func(d *Decoder) {
		d.maxPayload = n
	}
}

// WithLogger attaches a logger for terminal conditions.
func WithLogger(lg logger.Logger) DecoderOption {
	return func(d *Decoder) {
		if lg != nil {
			d.lg = lg
		}
	}
}

// NewDecoder creates a new Decoder that reads records from the given io.Reader.
// The caller keeps ownership of r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		r:          r,
		maxPayload: DefaultMaxPayloadSize,
		lg:         logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next decodes the next record. It returns io.EOF when the stream ends exactly on
// a record boundary. Any other error is terminal and is returned again by every
// later call; no partial record is ever returned.
//
// Both declared lengths are checked against the bound before the key is read, so
// an oversized value is reported as PayloadTooLarge even when the key is also short.
func (d *Decoder) Next() (Record, error) {
	switch d.state {
	case stateDone:
		return Record{}, io.EOF
	case stateFailed:
		return Record{}, d.err
	}

	start := d.offset

	n, err := io.ReadFull(d.r, d.hdr[:])
	d.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			d.state = stateDone
			d.lg.Debug("aof stream complete", "records", d.count, "bytes", d.offset)
			return Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, d.fail(&ParseError{
				Coordinates: errorutil.At(start, d.count),
				Kind:        KindTruncatedHeader,
				Want:        HeaderSize,
				Have:        uint64(n), //nolint:gosec
				Err:         io.ErrUnexpectedEOF,
			})
		}
		return Record{}, d.fail(d.ioError(start, FieldNone, 0, err))
	}

	h, err := DecodeHeader(d.hdr[:])
	if err != nil {
		return Record{}, d.fail(err)
	}

	if err := d.checkLength(start, h, FieldKey, h.KeyLen); err != nil {
		return Record{}, d.fail(err)
	}
	if err := d.checkLength(start, h, FieldValue, h.ValueLen); err != nil {
		return Record{}, d.fail(err)
	}

	key, err := d.readPayload(start, h, FieldKey, h.KeyLen)
	if err != nil {
		return Record{}, d.fail(err)
	}
	value, err := d.readPayload(start, h, FieldValue, h.ValueLen)
	if err != nil {
		return Record{}, d.fail(err)
	}

	d.count++
	return Record{
		Header: h,
		Key:    key,
		Value:  value,
		Offset: start,
	}, nil
}

// All returns the remaining records as a single-use sequence. A terminal error is
// yielded once with a zero Record; a clean end of stream is not yielded.
func (d *Decoder) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := d.Next()
			if err != nil {
				if !IsCleanEOF(err) {
					yield(Record{}, err)
				}
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Offset returns the number of bytes consumed from the underlying reader.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Count returns the number of records decoded so far.
func (d *Decoder) Count() int {
	return d.count
}

// Err returns the terminal error, or nil if the decoder has not failed.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) fail(err error) error {
	d.state = stateFailed
	d.err = err
	d.lg.Warn("aof stream failed", "records", d.count, "offset", d.offset, "reason", err.Error())
	return err
}

func (d *Decoder) checkLength(start int64, h RecordHeader, field Field, declared uint64) error {
	if d.maxPayload == 0 || declared <= d.maxPayload {
		return nil
	}
	return &ParseError{
		Coordinates: errorutil.At(start, d.count),
		Kind:        KindPayloadTooLarge,
		Field:       field,
		Opcode:      h.Opcode,
		Declared:    declared,
		Want:        d.maxPayload,
		Have:        declared,
		Err:         ErrPayloadTooLarge,
	}
}

func (d *Decoder) readPayload(start int64, h RecordHeader, field Field, declared uint64) ([]byte, error) {
	if declared <= eagerReadLimit {
		buf := make([]byte, declared)
		n, err := io.ReadFull(d.r, buf)
		d.offset += int64(n)
		if err != nil {
			return nil, d.payloadError(start, h, field, declared, uint64(n), err) //nolint:gosec
		}
		return buf, nil
	}

	limit := int64(math.MaxInt64)
	if declared < math.MaxInt64 {
		limit = int64(declared)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(d.r, limit))
	d.offset += n
	if err != nil {
		return nil, d.payloadError(start, h, field, declared, uint64(n), err) //nolint:gosec
	}
	if uint64(n) < declared { //nolint:gosec
		return nil, d.payloadError(start, h, field, declared, uint64(n), io.ErrUnexpectedEOF) //nolint:gosec
	}
	return buf.Bytes(), nil
}

func (d *Decoder) payloadError(start int64, h RecordHeader, field Field, declared, have uint64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ParseError{
			Coordinates: errorutil.At(start, d.count),
			Kind:        KindTruncatedPayload,
			Field:       field,
			Opcode:      h.Opcode,
			Declared:    declared,
			Want:        declared,
			Have:        have,
			Err:         io.ErrUnexpectedEOF,
		}
	}
	pe := d.ioError(start, field, declared, err)
	pe.Opcode = h.Opcode
	pe.Have = have
	return pe
}

func (d *Decoder) ioError(start int64, field Field, declared uint64, err error) *ParseError {
	return &ParseError{
		Coordinates: errorutil.At(start, d.count),
		Kind:        KindIO,
		Field:       field,
		Declared:    declared,
		Want:        declared,
		Err:         err,
	}
}
