package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var ErrGetDeliveriesQueryIsNotConstructed = errors.New(
	"GetDeliveriesQuery must be created via NewGetDeliveriesQuery constructor",
)

// DeliveryCriteria narrows a delivery listing. Dates are order dates, inclusive.
type DeliveryCriteria struct {
	Statuses []delivery.Status
	DriverID *kernel.UUID
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// GetDeliveriesQuery lists ledger entries, newest first.
//
// Example:
//
//	from := kernel.DateOf(time.Now())
//	query, err := NewGetDeliveriesQuery(DeliveryCriteria{
//	    Statuses: []delivery.Status{delivery.Pending, delivery.Assigned},
//	    DateFrom: &from,
//	}, 50, 0)
//	if err != nil {
//	    return err
//	}
//	page, err := handler.Handle(ctx, query)
type GetDeliveriesQuery struct {
	filter ports.DeliveryFilter

	guard guard.ConstructorGuard
}

func NewGetDeliveriesQuery(criteria DeliveryCriteria, limit, offset int) (GetDeliveriesQuery, error) {
	filter, err := deliveryFilter(criteria, limit, offset)
	if err != nil {
		return GetDeliveriesQuery{}, err
	}
	return GetDeliveriesQuery{filter: filter, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveriesQueryIsNotConstructed)
}

func (q GetDeliveriesQuery) Filter() ports.DeliveryFilter {
	return q.filter
}

func deliveryFilter(c DeliveryCriteria, limit, offset int) (ports.DeliveryFilter, error) {
	page, pageErr := NewPage(limit, offset)

	statusErrs := make([]error, 0, len(c.Statuses))
	for _, s := range c.Statuses {
		statusErrs = append(statusErrs, s.Validate())
	}

	var driverErr error
	if c.DriverID != nil {
		driverErr = c.DriverID.Validate()
	}

	if err := errors.Join(pageErr, errors.Join(statusErrs...), driverErr, checkDateRange(c.DateFrom, c.DateTo)); err != nil {
		return ports.DeliveryFilter{}, err
	}

	return ports.DeliveryFilter{
		Statuses: c.Statuses,
		DriverID: c.DriverID,
		Search:   strings.TrimSpace(c.Search),
		DateFrom: dayOrNil(c.DateFrom),
		DateTo:   dayOrNil(c.DateTo),
		Page:     page,
	}, nil
}

func dayOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := kernel.DateOf(*t)
	return &d
}

type GetDeliveriesQueryHandler struct {
	readers ReaderFactory
}

func NewGetDeliveriesQueryHandler(readers ReaderFactory) GetDeliveriesQueryHandler {
	return GetDeliveriesQueryHandler{readers: readers}
}

func (h GetDeliveriesQueryHandler) Handle(ctx context.Context, query GetDeliveriesQuery) (ListResult[*delivery.Delivery], error) {
	if err := query.Validate(); err != nil {
		return ListResult[*delivery.Delivery]{}, err
	}

	items, total, err := h.readers.Create().DeliveryRepository().List(ctx, query.Filter())
	if err != nil {
		return ListResult[*delivery.Delivery]{}, err
	}
	return ListResult[*delivery.Delivery]{Items: items, Total: total}, nil
}
