package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrOptimizeRoutesCommandIsNotConstructed = errors.New(
	"OptimizeRoutesCommand must be created via NewOptimizeRoutesCommand constructor",
)

// OptimizeRoutesCommand asks for routes over the pending deliveries of an order date,
// optionally restricted to a single driver.
//
// Example:
//
//	cmd, err := NewOptimizeRoutesCommand(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), nil)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	// result.Routes are planned, result.UnassignedDeliveryIDs stay pending
type OptimizeRoutesCommand struct {
	date     time.Time
	driverID *kernel.UUID

	guard guard.ConstructorGuard
}

func NewOptimizeRoutesCommand(date time.Time, driverID *kernel.UUID) (OptimizeRoutesCommand, error) {
	if date.IsZero() {
		return OptimizeRoutesCommand{}, errs.NewValueIsRequiredError("date")
	}

	command := OptimizeRoutesCommand{
		date:  kernel.DateOf(date),
		guard: guard.NewConstructorGuard(),
	}
	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return OptimizeRoutesCommand{}, err
		}
		id := *driverID
		command.driverID = &id
	}
	return command, nil
}

func (c OptimizeRoutesCommand) Validate() error {
	return c.guard.Validate(ErrOptimizeRoutesCommandIsNotConstructed)
}

func (c OptimizeRoutesCommand) Date() time.Time {
	return c.date
}

func (c OptimizeRoutesCommand) DriverID() *kernel.UUID {
	return c.driverID
}
