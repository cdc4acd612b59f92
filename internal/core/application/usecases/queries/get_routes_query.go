package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var ErrGetRoutesQueryIsNotConstructed = errors.New(
	"GetRoutesQuery must be created via NewGetRoutesQuery constructor",
)

// GetRoutesQuery lists routes with their stops, newest first.
type GetRoutesQuery struct {
	filter ports.RouteFilter

	guard guard.ConstructorGuard
}

func NewGetRoutesQuery(date *time.Time, status *route.Status, driverID *kernel.UUID, limit, offset int) (GetRoutesQuery, error) {
	page, pageErr := NewPage(limit, offset)

	var statusErr, driverErr error
	if status != nil {
		statusErr = status.Validate()
	}
	if driverID != nil {
		driverErr = driverID.Validate()
	}
	if err := errors.Join(pageErr, statusErr, driverErr); err != nil {
		return GetRoutesQuery{}, err
	}

	return GetRoutesQuery{
		filter: ports.RouteFilter{
			Date:     dayOrNil(date),
			Status:   status,
			DriverID: driverID,
			Page:     page,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (q GetRoutesQuery) Validate() error {
	return q.guard.Validate(ErrGetRoutesQueryIsNotConstructed)
}

func (q GetRoutesQuery) Filter() ports.RouteFilter {
	return q.filter
}

type GetRoutesQueryHandler struct {
	readers ReaderFactory
}

func NewGetRoutesQueryHandler(readers ReaderFactory) GetRoutesQueryHandler {
	return GetRoutesQueryHandler{readers: readers}
}

func (h GetRoutesQueryHandler) Handle(ctx context.Context, query GetRoutesQuery) (ListResult[*route.Route], error) {
	if err := query.Validate(); err != nil {
		return ListResult[*route.Route]{}, err
	}

	items, total, err := h.readers.Create().RouteRepository().List(ctx, query.Filter())
	if err != nil {
		return ListResult[*route.Route]{}, err
	}
	return ListResult[*route.Route]{Items: items, Total: total}, nil
}
