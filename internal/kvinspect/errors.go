package kvinspect

import (
	"errors"
	"fmt"
)

type ConfigErrorKind int

const (
	ConfigErrorKindNotFound ConfigErrorKind = iota + 1
	ConfigErrorKindDecode
	ConfigErrorKindEncode
	ConfigErrorKindWrite
	ConfigErrorKindAlreadyExists
	ConfigErrorKindUnsupportedVersion
	ConfigErrorKindInvalid
)

var (
	ErrConfigNotFound           = errors.New("config: file not found")
	ErrConfigDecode             = errors.New("config: unable to decode from JSON")
	ErrConfigEncode             = errors.New("config: unable to encode to JSON")
	ErrConfigWrite              = errors.New("config: unable to write to file")
	ErrConfigAlreadyExists      = errors.New("config: file already exists")
	ErrConfigUnsupportedVersion = errors.New("config: unsupported version")
	ErrConfigInvalid            = errors.New("config: invalid value")
)

type ConfigError struct {
	Kind ConfigErrorKind
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config error (%s): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *ConfigError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case ConfigErrorKindNotFound:
		sentinel = ErrConfigNotFound
	case ConfigErrorKindDecode:
		sentinel = ErrConfigDecode
	case ConfigErrorKindEncode:
		sentinel = ErrConfigEncode
	case ConfigErrorKindWrite:
		sentinel = ErrConfigWrite
	case ConfigErrorKindAlreadyExists:
		sentinel = ErrConfigAlreadyExists
	case ConfigErrorKindUnsupportedVersion:
		sentinel = ErrConfigUnsupportedVersion
	case ConfigErrorKindInvalid:
		sentinel = ErrConfigInvalid
	}
	if sentinel == nil {
		return []error{e.Err}
	}
	return []error{sentinel, e.Err}
}
