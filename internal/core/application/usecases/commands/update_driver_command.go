package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateDriverCommandIsNotConstructed = errors.New(
	"UpdateDriverCommand must be created via NewUpdateDriverCommand constructor",
)

// DriverChanges lists the fields to change. Nil fields are left untouched.
type DriverChanges struct {
	Status          *driver.Status
	Phone           *string
	VehicleType     *driver.VehicleType
	VehiclePlate    *string
	MaxCapacityKg   *float64
	Zones           []kernel.Zone
	Location        *kernel.Location
	LocationAddress string
}

func (c DriverChanges) isEmpty() bool {
	return c.Status == nil && c.Phone == nil && c.VehicleType == nil && c.VehiclePlate == nil &&
		c.MaxCapacityKg == nil && c.Zones == nil && c.Location == nil
}

// UpdateDriverCommand is an administrative change of a driver: status (including
// suspension and reinstatement), contact, vehicle, capacity, zones or position.
type UpdateDriverCommand struct {
	driverID kernel.UUID
	changes  DriverChanges

	guard guard.ConstructorGuard
}

func NewUpdateDriverCommand(driverID kernel.UUID, changes DriverChanges) (UpdateDriverCommand, error) {
	if err := driverID.Validate(); err != nil {
		return UpdateDriverCommand{}, err
	}
	if changes.isEmpty() {
		return UpdateDriverCommand{}, errs.NewValidationError(driverID.String(), "nothing to update")
	}
	return UpdateDriverCommand{
		driverID: driverID,
		changes:  changes,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateDriverCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDriverCommandIsNotConstructed)
}

func (c UpdateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c UpdateDriverCommand) Changes() DriverChanges {
	return c.changes
}
