package op

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Kind is the meaning a caller assigns to an opcode.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPut
	KindDelete
)

// Default opcodes written by the agent.
const (
	OpcodePut    uint8 = 1
	OpcodeDelete uint8 = 2
)

var ErrInvalidKind = errors.New("op: invalid kind")

func (k Kind) String() string {
	switch k {
	case KindPut:
		return "put"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "put", "set":
		return KindPut, nil
	case "delete", "del", "remove":
		return KindDelete, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Op is a decoded record with its opcode resolved.
type Op struct {
	Kind   Kind
	Opcode uint8
	Key    []byte
	Value  []byte // ignored for delete
}

// Mapping resolves opcodes to kinds. Opcodes missing from the mapping are KindUnknown.
type Mapping map[uint8]Kind

// DefaultMapping returns the agent's opcode table.
func DefaultMapping() Mapping {
	return Mapping{
		OpcodePut:    KindPut,
		OpcodeDelete: KindDelete,
	}
}

// Resolve returns the kind for opcode.
func (m Mapping) Resolve(opcode uint8) Kind {
	if k, ok := m[opcode]; ok {
		return k
	}
	return KindUnknown
}

// Opcode returns the lowest opcode mapped to kind.
func (m Mapping) Opcode(kind Kind) (uint8, bool) {
	for _, code := range slices.Sorted(maps.Keys(m)) {
		if m[code] == kind {
			return code, true
		}
	}
	return 0, false
}

// ParseMapping builds a Mapping from config entries such as {"1": "put", "2": "delete"}.
// Opcode strings accept decimal or 0x-prefixed hex.
func ParseMapping(entries map[string]string) (Mapping, error) {
	m := make(Mapping, len(entries))
	for code, name := range entries {
		n, err := strconv.ParseUint(code, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("op: invalid opcode %q: %w", code, err)
		}
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		m[uint8(n)] = kind
	}
	return m, nil
}

// Entries is the inverse of ParseMapping.
func (m Mapping) Entries() map[string]string {
	out := make(map[string]string, len(m))
	for code, kind := range m {
		out[strconv.Itoa(int(code))] = kind.String()
	}
	return out
}
