package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/retry"
)

type UpdateDriverCommandHandler struct {
	uowFactory DriverUoWFactory
	clock      ports.Clock
}

func NewUpdateDriverCommandHandler(uowFactory DriverUoWFactory, clock ports.Clock) UpdateDriverCommandHandler {
	return UpdateDriverCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle applies the changes atomically: either all of them are stored or none.
func (h UpdateDriverCommandHandler) Handle(ctx context.Context, cmd UpdateDriverCommand) (*driver.Driver, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *driver.Driver
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		d, err := h.handle(ctx, cmd)
		result = d
		return err
	})
	return result, err
}

func (h UpdateDriverCommandHandler) handle(ctx context.Context, cmd UpdateDriverCommand) (*driver.Driver, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DriverRepository()
	d, err := repo.Get(ctx, cmd.DriverID())
	if err != nil {
		return nil, err
	}

	if err = applyDriverChanges(d, cmd.Changes(), h.clock()); err != nil {
		return nil, err
	}

	if err = repo.Update(ctx, d); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func applyDriverChanges(d *driver.Driver, c DriverChanges, now time.Time) error {
	var problems []error

	if c.Phone != nil {
		problems = append(problems, d.SetPhone(*c.Phone))
	}
	if c.VehicleType != nil || c.VehiclePlate != nil {
		vehicle, plate := d.VehicleType(), d.VehiclePlate()
		if c.VehicleType != nil {
			vehicle = *c.VehicleType
		}
		if c.VehiclePlate != nil {
			plate = *c.VehiclePlate
		}
		problems = append(problems, d.SetVehicle(vehicle, plate))
	}
	if c.MaxCapacityKg != nil {
		problems = append(problems, d.SetMaxCapacity(*c.MaxCapacityKg))
	}
	if c.Zones != nil {
		problems = append(problems, d.SetZones(c.Zones))
	}
	if c.Location != nil {
		problems = append(problems, d.UpdateLocation(*c.Location, c.LocationAddress, now))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if c.Status != nil {
		if err := d.ChangeStatus(*c.Status, now); err != nil {
			return err
		}
	}

	d.Touch(now)
	return nil
}
