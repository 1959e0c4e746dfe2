package model

import (
	"fmt"
	"strconv"
)

// VendorID identifies a rate provider.
type VendorID int

// ParseVendorID parses a decimal vendor identifier. Trailing garbage is rejected.
func ParseVendorID(text string) (VendorID, error) {
	id, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVendorID, text)
	}
	return VendorID(id), nil
}

// String returns the decimal form of the id.
func (id VendorID) String() string {
	return strconv.Itoa(int(id))
}
