package model

import "errors"

// Errors returned by parsing and lookup. Callers match them with errors.Is;
// the returned errors wrap these with the offending input.
var (
	ErrInvalidCode       = errors.New("invalid code")
	ErrInvalidRate       = errors.New("invalid rate")
	ErrInvalidVendorID   = errors.New("invalid vendor id")
	ErrInvalidRegionName = errors.New("invalid region name")
	ErrUnknownRegion     = errors.New("unknown region")
	ErrUnknownVendor     = errors.New("unknown vendor")
)
