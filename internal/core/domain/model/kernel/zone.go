package kernel

import (
	"strings"

	"dispatch/internal/pkg/errs"
)

// Zone is a coarse geographic partition bounding driver eligibility.
type Zone string

const maxZoneLength = 64

func NewZone(s string) (Zone, error) {
	z := strings.TrimSpace(s)
	if z == "" {
		return "", errs.NewValueIsRequiredError("zone")
	}
	if len(z) > maxZoneLength {
		return "", errs.NewValueIsOutOfRangeError("zone length", len(z), 1, maxZoneLength)
	}
	return Zone(z), nil
}

func (z Zone) String() string {
	return string(z)
}
