package queries

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var ErrGetDriversQueryIsNotConstructed = errors.New(
	"GetDriversQuery must be created via NewGetDriversQuery constructor",
)

// GetDriversQuery lists the registry ordered by name. Search matches name, phone or plate.
type GetDriversQuery struct {
	filter ports.DriverFilter

	guard guard.ConstructorGuard
}

func NewGetDriversQuery(status *driver.Status, zone string, search string, limit, offset int) (GetDriversQuery, error) {
	page, pageErr := NewPage(limit, offset)

	var statusErr error
	if status != nil {
		statusErr = status.Validate()
	}

	var (
		z       *kernel.Zone
		zoneErr error
	)
	if zone != "" {
		var valid kernel.Zone
		valid, zoneErr = kernel.NewZone(zone)
		z = &valid
	}

	if err := errors.Join(pageErr, statusErr, zoneErr); err != nil {
		return GetDriversQuery{}, err
	}

	return GetDriversQuery{
		filter: ports.DriverFilter{
			Status: status,
			Zone:   z,
			Search: strings.TrimSpace(search),
			Page:   page,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (q GetDriversQuery) Validate() error {
	return q.guard.Validate(ErrGetDriversQueryIsNotConstructed)
}

func (q GetDriversQuery) Filter() ports.DriverFilter {
	return q.filter
}

type GetDriversQueryHandler struct {
	readers ReaderFactory
}

func NewGetDriversQueryHandler(readers ReaderFactory) GetDriversQueryHandler {
	return GetDriversQueryHandler{readers: readers}
}

func (h GetDriversQueryHandler) Handle(ctx context.Context, query GetDriversQuery) (ListResult[*driver.Driver], error) {
	if err := query.Validate(); err != nil {
		return ListResult[*driver.Driver]{}, err
	}

	items, total, err := h.readers.Create().DriverRepository().List(ctx, query.Filter())
	if err != nil {
		return ListResult[*driver.Driver]{}, err
	}
	return ListResult[*driver.Driver]{Items: items, Total: total}, nil
}
