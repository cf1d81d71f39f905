package aof

import (
	"errors"
	"fmt"
	"io"

	"github.com/julianstephens/kvinspect/internal/kvinspect/errorutil"
)

var (
	ErrTruncatedHeader  = errors.New("aof: truncated header")
	ErrTruncatedPayload = errors.New("aof: truncated payload")
	ErrPayloadTooLarge  = errors.New("aof: payload too large")
	ErrIO               = errors.New("aof: read failed")
)

type ParseErrorKind uint8

const (
	KindTruncatedHeader ParseErrorKind = iota
	KindTruncatedPayload
	KindPayloadTooLarge
	KindIO
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindTruncatedHeader:
		return "truncated_header"
	case KindTruncatedPayload:
		return "truncated_payload"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindIO:
		return "io_error"
	default:
		return "unknown"
	}
}

// Field names the payload a truncation or size error refers to.
type Field uint8

const (
	FieldNone Field = iota
	FieldKey
	FieldValue
)

func (f Field) String() string {
	switch f {
	case FieldKey:
		return "key"
	case FieldValue:
		return "value"
	default:
		return "none"
	}
}

type ParseError struct {
	*errorutil.Coordinates
	Kind  ParseErrorKind
	Field Field
	// Opcode is the raw opcode of the failing record, valid once the header was read.
	Opcode uint8
	// Declared is the declared length of Field, if any.
	Declared uint64
	Want     uint64
	Have     uint64
	Err      error
}

func (e *ParseError) Error() string {
	cause := "<nil>"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	coords := ""
	if e.Coordinates != nil {
		coords = " " + e.FormatCoordinates()
	}
	return fmt.Sprintf("aof parse error kind=%s%s field=%s op=0x%02x declared=%d want=%d have=%d: %s",
		e.Kind.String(), coords, e.Field.String(), e.Opcode, e.Declared, e.Want, e.Have, cause)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrTruncatedHeader:
		return e.Kind == KindTruncatedHeader
	case ErrTruncatedPayload:
		return e.Kind == KindTruncatedPayload
	case ErrPayloadTooLarge:
		return e.Kind == KindPayloadTooLarge
	case ErrIO:
		return e.Kind == KindIO
	}
	return false
}

func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCleanEOF reports whether err marks a log that ended on a record boundary.
func IsCleanEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// IsTruncation reports whether err marks a log cut off mid-record.
func IsTruncation(err error) bool {
	return errors.Is(err, ErrTruncatedHeader) || errors.Is(err, ErrTruncatedPayload)
}
