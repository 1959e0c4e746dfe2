// Package model provides the value types shared by the trees, the directory
// and the loaders: dialing codes, packed rates and vendor identifiers.
package model

import (
	"fmt"
	"strings"
)

// MaxCodeLength is the longest dialing code accepted by ParseCode.
const MaxCodeLength = 16

// Code is a validated string of decimal digits identifying a dialing prefix.
// The zero value is the empty code, which only the root of a tree carries.
type Code struct {
	digits string
}

// ParseCode trims surrounding spaces and validates the remaining digits.
func ParseCode(text string) (Code, error) {
	s := strings.Trim(text, " ")
	if s == "" || len(s) > MaxCodeLength {
		return Code{}, fmt.Errorf("%w: %q", ErrInvalidCode, text)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Code{}, fmt.Errorf("%w: %q", ErrInvalidCode, text)
		}
	}
	return Code{digits: s}, nil
}

// MustParseCode is like ParseCode but panics on invalid input.
// Use this only for literals known to be valid.
func MustParseCode(text string) Code {
	c, err := ParseCode(text)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return c
}

// Len returns the number of digits.
func (c Code) Len() int {
	return len(c.digits)
}

// DigitAt returns the numeric value (0-9) of the digit at index i.
func (c Code) DigitAt(i int) int {
	return int(c.digits[i] - '0')
}

// Slice returns n digits starting at start. Both are clamped to the code's
// end, so slicing past it yields the empty code.
func (c Code) Slice(start, n int) Code {
	start = min(max(start, 0), len(c.digits))
	end := min(start+max(n, 0), len(c.digits))
	return Code{digits: c.digits[start:end]}
}

// Prefix returns the first n digits.
func (c Code) Prefix(n int) Code {
	return c.Slice(0, n)
}

// HasPrefix reports whether p is a prefix of c.
func (c Code) HasPrefix(p Code) bool {
	return strings.HasPrefix(c.digits, p.digits)
}

// IsZero reports whether c is the empty root code.
func (c Code) IsZero() bool {
	return c.digits == ""
}

// Compare orders codes lexicographically by their digits.
func (c Code) Compare(other Code) int {
	return strings.Compare(c.digits, other.digits)
}

// String returns the digits.
func (c Code) String() string {
	return c.digits
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.digits), nil
}
