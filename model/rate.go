package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	maxRateLength = 19 // nine digits, a dot, nine digits
	maxPartLength = 9
)

// fractionScale[n] normalises an n-digit fraction to nine digits.
var fractionScale = [maxPartLength + 1]uint64{
	0, 100000000, 10000000, 1000000, 100000, 10000, 1000, 100, 10, 1,
}

// Rate is a decimal rate packed into one word: the integer part in the high
// 32 bits and the fraction, normalised to nine digits, in the low 32 bits.
// Comparing two packed rates compares their numeric values.
type Rate uint64

// EmptyRate marks the absence of a rate.
const EmptyRate Rate = math.MaxUint64

// ParseRate parses text of the form "<integer>.<fraction>". Both parts are
// limited to nine digits once trailing zeros are dropped, so "1.01" and
// "1.010000" produce the same Rate.
func ParseRate(text string) (Rate, error) {
	invalid := fmt.Errorf("%w: %q", ErrInvalidRate, text)
	if len(text) < 2 || len(text) > maxRateLength {
		return EmptyRate, invalid
	}
	if !isDigit(text[0]) {
		return EmptyRate, invalid
	}

	s := text
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 || dot > maxPartLength || len(s)-dot-1 > maxPartLength {
		return EmptyRate, invalid
	}
	high, ok := parseDigits(s[:dot])
	if !ok {
		return EmptyRate, invalid
	}
	fraction := s[dot+1:]
	low, ok := parseDigits(fraction)
	if !ok {
		return EmptyRate, invalid
	}
	low *= fractionScale[len(fraction)]

	return Rate(high<<32 | low), nil
}

// MustParseRate is like ParseRate but panics on invalid input.
func MustParseRate(text string) Rate {
	r, err := ParseRate(text)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return r
}

// IsEmpty reports whether r is EmptyRate.
func (r Rate) IsEmpty() bool {
	return r == EmptyRate
}

// Compare orders rates numerically.
func (r Rate) Compare(other Rate) int {
	switch {
	case r < other:
		return -1
	case r > other:
		return 1
	}
	return 0
}

// String formats the rate with trailing fraction zeros removed. An all-zero
// fraction keeps the dot ("1."). EmptyRate formats as "".
func (r Rate) String() string {
	if r.IsEmpty() {
		return ""
	}
	high := uint64(r) >> 32
	low := uint64(r) & 0xFFFFFFFF

	buf := make([]byte, 0, maxRateLength+1)
	buf = strconv.AppendUint(buf, high, 10)
	buf = append(buf, '.')
	if low != 0 {
		frac := strconv.FormatUint(low, 10)
		for i := len(frac); i < maxPartLength; i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, strings.TrimRight(frac, "0")...)
	}
	return string(buf)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RateRecord is a rate together with the dates it applies between.
type RateRecord struct {
	Rate          Rate
	EffectiveDate int64
	EndDate       int64
}

// EmptyRecord is the payload of tree nodes that carry no rate.
var EmptyRecord = RateRecord{Rate: EmptyRate}

// IsEmpty reports whether the record carries no rate.
func (r RateRecord) IsEmpty() bool {
	return r.Rate.IsEmpty()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func parseDigits(s string) (uint64, bool) {
	var v uint64
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		v = v*10 + uint64(s[i]-'0')
	}
	return v, true
}
