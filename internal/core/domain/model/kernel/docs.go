// Package kernel holds the value objects shared by every dispatch aggregate:
// identifiers, geocoordinates, calendar dates and zone identifiers.
//
// All of them are immutable. Zero values are invalid and fail Validate, so an
// aggregate can tell a missing value from a constructed one.
package kernel
