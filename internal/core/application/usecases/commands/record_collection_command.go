package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrRecordCollectionCommandIsNotConstructed = errors.New(
	"RecordCollectionCommand must be created via NewRecordCollectionCommand constructor",
)

// RecordCollectionCommand appends the cash a driver collected for one delivery
// to their record of the day.
type RecordCollectionCommand struct {
	driverID   kernel.UUID
	date       time.Time
	deliveryID kernel.UUID
	amount     int64

	guard guard.ConstructorGuard
}

func NewRecordCollectionCommand(
	driverID kernel.UUID,
	date time.Time,
	deliveryID kernel.UUID,
	amount int64,
) (RecordCollectionCommand, error) {
	var dateErr, amountErr error
	if date.IsZero() {
		dateErr = errs.NewValueIsRequiredError("date")
	}
	if amount < 0 {
		amountErr = errs.NewValueIsOutOfRangeError("amount", amount, 0, "unbounded")
	}

	if err := errors.Join(driverID.Validate(), deliveryID.Validate(), dateErr, amountErr); err != nil {
		return RecordCollectionCommand{}, err
	}

	return RecordCollectionCommand{
		driverID:   driverID,
		date:       kernel.DateOf(date),
		deliveryID: deliveryID,
		amount:     amount,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c RecordCollectionCommand) Validate() error {
	return c.guard.Validate(ErrRecordCollectionCommandIsNotConstructed)
}

func (c RecordCollectionCommand) DriverID() kernel.UUID {
	return c.driverID
}

func (c RecordCollectionCommand) Date() time.Time {
	return c.date
}

func (c RecordCollectionCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c RecordCollectionCommand) Amount() int64 {
	return c.amount
}
