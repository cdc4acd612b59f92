package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var ErrGetDriverDeliveriesQueryIsNotConstructed = errors.New(
	"GetDriverDeliveriesQuery must be created via NewGetDriverDeliveriesQuery constructor",
)

// GetDriverDeliveriesQuery lists the deliveries a driver owns or owned, newest first.
type GetDriverDeliveriesQuery struct {
	driverID kernel.UUID
	filter   ports.DeliveryFilter

	guard guard.ConstructorGuard
}

func NewGetDriverDeliveriesQuery(
	driverID kernel.UUID,
	statuses []delivery.Status,
	dateFrom, dateTo *time.Time,
	limit, offset int,
) (GetDriverDeliveriesQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetDriverDeliveriesQuery{}, err
	}

	filter, err := deliveryFilter(DeliveryCriteria{
		Statuses: statuses,
		DriverID: &driverID,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}, limit, offset)
	if err != nil {
		return GetDriverDeliveriesQuery{}, err
	}

	return GetDriverDeliveriesQuery{
		driverID: driverID,
		filter:   filter,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetDriverDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetDriverDeliveriesQueryIsNotConstructed)
}

type GetDriverDeliveriesQueryHandler struct {
	readers ReaderFactory
}

func NewGetDriverDeliveriesQueryHandler(readers ReaderFactory) GetDriverDeliveriesQueryHandler {
	return GetDriverDeliveriesQueryHandler{readers: readers}
}

// Handle returns ObjectNotFoundError for an unknown driver rather than an empty page.
func (h GetDriverDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetDriverDeliveriesQuery,
) (ListResult[*delivery.Delivery], error) {
	if err := query.Validate(); err != nil {
		return ListResult[*delivery.Delivery]{}, err
	}

	reader := h.readers.Create()
	if _, err := reader.DriverRepository().Get(ctx, query.driverID); err != nil {
		return ListResult[*delivery.Delivery]{}, err
	}

	items, total, err := reader.DeliveryRepository().List(ctx, query.filter)
	if err != nil {
		return ListResult[*delivery.Delivery]{}, err
	}
	return ListResult[*delivery.Delivery]{Items: items, Total: total}, nil
}
