// Package adminsecret validates and carries the ephemeral admin code
// (ePSKc) a Thread Border Router displays to a user during commercial
// commissioning.
package adminsecret

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalid is returned when a candidate admin code does not match
// ^[0-9]{6,12}$ after trimming ASCII whitespace.
var ErrInvalid = errors.New("admin code must be 6-12 decimal digits")

var pattern = regexp.MustCompile(`^[0-9]{6,12}$`)

// Code holds a validated admin code as raw ASCII bytes. It is never
// logged and must be zeroized via Zero once the handshake that
// consumes it completes.
type Code struct {
	bytes []byte
}

// Parse trims surrounding whitespace and validates against
// ^[0-9]{6,12}$. On failure it returns ErrInvalid.
func Parse(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	if !pattern.MatchString(trimmed) {
		return Code{}, ErrInvalid
	}
	return Code{bytes: []byte(trimmed)}, nil
}

// Bytes returns the admin code as ASCII bytes, suitable for
// installation as an EC-JPAKE shared secret. The caller must not
// retain the returned slice past the handshake.
func (c Code) Bytes() []byte {
	return c.bytes
}

// Zero overwrites the underlying bytes so the admin code does not
// linger in memory past the handshake that consumes it.
func (c *Code) Zero() {
	for i := range c.bytes {
		c.bytes[i] = 0
	}
	c.bytes = nil
}
