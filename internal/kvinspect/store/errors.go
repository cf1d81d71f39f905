package store

import (
	"errors"
	"fmt"

	"github.com/julianstephens/kvinspect/internal/kvinspect/errorutil"
)

var (
	ErrStoreNotFound = errors.New("store: no such store path")
	ErrStoreOpen     = errors.New("store: open failed")
	ErrStoreClosed   = errors.New("store: closed")
	ErrReadOnly      = errors.New("store: opened read-only")
	ErrUnknownDomain = errors.New("store: unknown domain")
	ErrInvalidDomain = errors.New("store: invalid domain name")
	ErrScan          = errors.New("store: scan failed")
	ErrWrite         = errors.New("store: write failed")
)

// StoreError wraps store-level failures with context.
// It preserves a stable sentinel in Err so callers can errors.Is against it.
type StoreError struct {
	*errorutil.Coordinates
	Err error

	Path string

	// Op is a short label for where the error occurred: "open", "scan", "put", "delete", "close".
	Op string

	Cause error
}

func (e *StoreError) Error() string {
	msg := e.Err.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Coordinates != nil {
		if coords := e.FormatCoordinates(); coords != "" {
			msg += " " + coords
		}
	}
	if e.Path != "" {
		msg += " path=" + e.Path
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
