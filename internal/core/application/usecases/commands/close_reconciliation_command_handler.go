package commands

import (
	"context"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/retry"
)

// CloseReconciliationResult is the closed record with the figures it was closed on.
type CloseReconciliationResult struct {
	Record  *cash.Record
	Summary cash.Summary
}

// CloseReconciliationCommandHandler recomputes the expected cash of the record's driver
// and date and closes the record against it. Callers are expected to be authorized
// before reaching this handler.
type CloseReconciliationCommandHandler struct {
	uowFactory CashUoWFactory
	clock      ports.Clock
	tolerance  int64
}

func NewCloseReconciliationCommandHandler(
	uowFactory CashUoWFactory,
	clock ports.Clock,
	tolerance int64,
) CloseReconciliationCommandHandler {
	return CloseReconciliationCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		tolerance:  tolerance,
	}
}

func (h CloseReconciliationCommandHandler) Handle(
	ctx context.Context,
	cmd CloseReconciliationCommand,
) (CloseReconciliationResult, error) {
	if err := cmd.Validate(); err != nil {
		return CloseReconciliationResult{}, err
	}

	var result CloseReconciliationResult
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		r, err := h.handle(ctx, cmd)
		result = r
		return err
	})
	return result, err
}

func (h CloseReconciliationCommandHandler) handle(
	ctx context.Context,
	cmd CloseReconciliationCommand,
) (CloseReconciliationResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CloseReconciliationResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	records := uow.CashRepository()
	rec, err := records.Get(ctx, cmd.RecordID())
	if err != nil {
		return CloseReconciliationResult{}, err
	}

	expected, err := uow.DeliveryRepository().ExpectedCash(ctx, rec.DriverID(), rec.Date())
	if err != nil {
		return CloseReconciliationResult{}, err
	}

	if err = rec.Close(expected, h.tolerance, cmd.Note(), cmd.Override(), h.clock()); err != nil {
		return CloseReconciliationResult{}, err
	}
	if err = records.Update(ctx, rec); err != nil {
		return CloseReconciliationResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CloseReconciliationResult{}, err
	}

	return CloseReconciliationResult{
		Record:  rec,
		Summary: rec.Evaluate(expected, h.tolerance),
	}, nil
}
