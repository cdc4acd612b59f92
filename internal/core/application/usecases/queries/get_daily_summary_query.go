package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrGetDailySummaryQueryIsNotConstructed = errors.New(
	"GetDailySummaryQuery must be created via NewGetDailySummaryQuery constructor",
)

// GetDailySummaryQuery reconciles the cash records of a date, optionally of one driver.
//
// Example:
//
//	query, err := NewGetDailySummaryQuery(kernel.DateOf(time.Now()), nil)
//	if err != nil {
//	    return err
//	}
//	lines, err := handler.Handle(ctx, query)
//	for _, l := range lines {
//	    fmt.Printf("%s: %d of %d (%s)\n", l.Record.DriverID(), l.Summary.Collected, l.Summary.Expected, l.Summary.Status)
//	}
type GetDailySummaryQuery struct {
	date     time.Time
	driverID *kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetDailySummaryQuery(date time.Time, driverID *kernel.UUID) (GetDailySummaryQuery, error) {
	var dateErr, driverErr error
	if date.IsZero() {
		dateErr = errs.NewValueIsRequiredError("date")
	}
	if driverID != nil {
		driverErr = driverID.Validate()
	}
	if err := errors.Join(dateErr, driverErr); err != nil {
		return GetDailySummaryQuery{}, err
	}

	return GetDailySummaryQuery{
		date:     kernel.DateOf(date),
		driverID: driverID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetDailySummaryQuery) Validate() error {
	return q.guard.Validate(ErrGetDailySummaryQueryIsNotConstructed)
}

func (q GetDailySummaryQuery) Date() time.Time {
	return q.date
}

func (q GetDailySummaryQuery) DriverID() *kernel.UUID {
	return q.driverID
}

// DailySummaryLine is one record with its expected cash recomputed at read time.
type DailySummaryLine struct {
	Record  *cash.Record
	Summary cash.Summary
}

type GetDailySummaryQueryHandler struct {
	readers   ReaderFactory
	tolerance int64
}

// NewGetDailySummaryQueryHandler classifies records against tolerance, in minor units.
func NewGetDailySummaryQueryHandler(readers ReaderFactory, tolerance int64) GetDailySummaryQueryHandler {
	return GetDailySummaryQueryHandler{readers: readers, tolerance: tolerance}
}

func (h GetDailySummaryQueryHandler) Handle(ctx context.Context, query GetDailySummaryQuery) ([]DailySummaryLine, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	reader := h.readers.Create()
	records, err := reader.CashRepository().ListByDate(ctx, query.Date(), query.DriverID())
	if err != nil {
		return nil, err
	}

	lines := make([]DailySummaryLine, 0, len(records))
	for _, rec := range records {
		expected, err := reader.DeliveryRepository().ExpectedCash(ctx, rec.DriverID(), rec.Date())
		if err != nil {
			return nil, err
		}
		lines = append(lines, DailySummaryLine{Record: rec, Summary: rec.Evaluate(expected, h.tolerance)})
	}
	return lines, nil
}
