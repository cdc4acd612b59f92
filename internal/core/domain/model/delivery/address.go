package delivery

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// Address is the drop-off point of a delivery.
type Address struct {
	text     string
	location kernel.Location
	zone     kernel.Zone
	guard    guard.ConstructorGuard
}

func NewAddress(text string, location kernel.Location, zone kernel.Zone) (Address, error) {
	var textErr, zoneErr error
	text = strings.TrimSpace(text)
	if text == "" {
		textErr = errs.NewValueIsRequiredError("address")
	}
	if zone == "" {
		zoneErr = errs.NewValueIsRequiredError("zone")
	}

	if err := errors.Join(textErr, location.Validate(), zoneErr); err != nil {
		return Address{}, err
	}

	return Address{
		text:     text,
		location: location,
		zone:     zone,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Text() string {
	return a.text
}

func (a Address) Location() kernel.Location {
	return a.location
}

func (a Address) Zone() kernel.Zone {
	return a.zone
}
