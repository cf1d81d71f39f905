package testutil

import "io"

// Error is a simple test error implementation
type Error struct {
	Message string
}

// Error returns the error message
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a new test error with the given message
func NewError(msg string) *Error {
	return &Error{Message: msg}
}

// FailingReader serves Data and then fails every read with Err.
type FailingReader struct {
	Data []byte
	Err  error
}

func (f *FailingReader) Read(p []byte) (int, error) {
	if len(f.Data) == 0 {
		if f.Err == nil {
			return 0, io.EOF
		}
		return 0, f.Err
	}
	n := copy(p, f.Data)
	f.Data = f.Data[n:]
	return n, nil
}
