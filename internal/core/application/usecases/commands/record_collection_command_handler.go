package commands

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/retry"
)

// RecordCollectionCommandHandler appends a collection entry for a delivered
// cash-payment delivery, on the order date of that delivery. The first entry of a
// (date, driver) pair creates the record; two first entries racing each other are
// resolved by the single conflict retry.
type RecordCollectionCommandHandler struct {
	uowFactory CashUoWFactory
	clock      ports.Clock
}

func NewRecordCollectionCommandHandler(uowFactory CashUoWFactory, clock ports.Clock) RecordCollectionCommandHandler {
	return RecordCollectionCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h RecordCollectionCommandHandler) Handle(ctx context.Context, cmd RecordCollectionCommand) (*cash.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *cash.Record
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		rec, err := h.handle(ctx, cmd)
		result = rec
		return err
	})
	return result, err
}

func (h RecordCollectionCommandHandler) handle(ctx context.Context, cmd RecordCollectionCommand) (*cash.Record, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	d, err := uow.DeliveryRepository().Get(ctx, cmd.DeliveryID())
	if err != nil {
		return nil, err
	}
	if err = collectable(d, cmd); err != nil {
		return nil, err
	}

	records := uow.CashRepository()
	amount := cmd.Amount()
	err = appendCash(ctx, records, cmd.DriverID(), cmd.Date(), d.RouteID(), d.ID(), &amount, h.clock())
	if err != nil {
		return nil, err
	}

	rec, err := records.GetByDriverDate(ctx, cmd.DriverID(), cmd.Date())
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return rec, nil
}

func collectable(d *delivery.Delivery, cmd RecordCollectionCommand) error {
	if owner := d.DriverID(); owner != nil && !owner.IsEqual(cmd.DriverID()) {
		return errs.NewValidationError(d.ID().String(), "delivery belongs to driver "+owner.String())
	}
	if !d.Order().IsCash() {
		return errs.NewValidationError(d.ID().String(),
			fmt.Sprintf("cash collected on a %s payment order", d.Order().Payment()))
	}
	if d.Status() != delivery.Delivered {
		return errs.NewInvalidStateError("delivery", d.ID().String(), d.Status().String(), "cash is recorded for delivered deliveries only")
	}
	if orderDate := kernel.DateOf(d.Order().Date()); !orderDate.Equal(cmd.Date()) {
		return errs.NewValidationError(d.ID().String(), "cash must be booked on the order date "+kernel.FormatDate(orderDate))
	}
	return nil
}
