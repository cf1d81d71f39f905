package errorutil

import (
	"fmt"
	"strings"
)

// Coordinates holds positional information (byte offset, record index, store domain)
// used in error formatting across the kvinspect packages.
type Coordinates struct {
	// Offset is the byte offset within the log where the failing record starts.
	Offset *int64

	// Index is the zero-based position of the failing record in the log.
	Index *int

	// Domain is the store domain being scanned when the error occurred.
	Domain *string
}

// At builds Coordinates for a log position.
func At(offset int64, index int) *Coordinates {
	return &Coordinates{Offset: &offset, Index: &index}
}

// InDomain builds Coordinates for a store domain.
func InDomain(domain string) *Coordinates {
	return &Coordinates{Domain: &domain}
}

// FormatCoordinates returns "at=X rec=Y domain=Z", including only non-nil values.
// Returns an empty string if all coordinates are nil.
func (c *Coordinates) FormatCoordinates() string {
	if c == nil {
		return ""
	}

	var parts []string
	if c.Offset != nil {
		parts = append(parts, fmt.Sprintf("at=%d", *c.Offset))
	}
	if c.Index != nil {
		parts = append(parts, fmt.Sprintf("rec=%d", *c.Index))
	}
	if c.Domain != nil {
		parts = append(parts, fmt.Sprintf("domain=%s", *c.Domain))
	}
	return strings.Join(parts, " ")
}

// String implements the Stringer interface for Coordinates.
func (c *Coordinates) String() string {
	return c.FormatCoordinates()
}
