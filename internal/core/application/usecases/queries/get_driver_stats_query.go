package queries

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetDriverStatsQueryIsNotConstructed = errors.New(
	"GetDriverStatsQuery must be created via NewGetDriverStatsQuery constructor",
)

type GetDriverStatsQuery struct {
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetDriverStatsQuery(driverID kernel.UUID) (GetDriverStatsQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetDriverStatsQuery{}, err
	}
	return GetDriverStatsQuery{driverID: driverID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDriverStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetDriverStatsQueryIsNotConstructed)
}

// DriverStatsResponse is the performance card of one driver over their whole history.
type DriverStatsResponse struct {
	DriverID             kernel.UUID
	Status               driver.Status
	Rating               decimal.Decimal
	TotalDeliveries      int
	SuccessfulDeliveries int
	SuccessRate          float64
	TotalRoutes          int
	CompletedRoutes      int
	CancelledRoutes      int
	CashCollected        int64
}

type GetDriverStatsQueryHandler struct {
	readers ReaderFactory
}

func NewGetDriverStatsQueryHandler(readers ReaderFactory) GetDriverStatsQueryHandler {
	return GetDriverStatsQueryHandler{readers: readers}
}

func (h GetDriverStatsQueryHandler) Handle(ctx context.Context, query GetDriverStatsQuery) (DriverStatsResponse, error) {
	if err := query.Validate(); err != nil {
		return DriverStatsResponse{}, err
	}

	reader := h.readers.Create()
	d, err := reader.DriverRepository().Get(ctx, query.driverID)
	if err != nil {
		return DriverStatsResponse{}, err
	}

	id := d.ID()
	routes := reader.RouteRepository()
	countRoutes := func(status *route.Status) (int, error) {
		_, total, err := routes.List(ctx, ports.RouteFilter{DriverID: &id, Status: status, Page: ports.Page{Limit: 1}})
		return total, err
	}

	completed, cancelled := route.Completed, route.Cancelled
	totalRoutes, err := countRoutes(nil)
	if err != nil {
		return DriverStatsResponse{}, err
	}
	completedRoutes, err := countRoutes(&completed)
	if err != nil {
		return DriverStatsResponse{}, err
	}
	cancelledRoutes, err := countRoutes(&cancelled)
	if err != nil {
		return DriverStatsResponse{}, err
	}

	stats, err := reader.DeliveryRepository().Stats(ctx, ports.StatsFilter{DriverID: &id})
	if err != nil {
		return DriverStatsResponse{}, err
	}

	return DriverStatsResponse{
		DriverID:             id,
		Status:               d.Status(),
		Rating:               d.Rating(),
		TotalDeliveries:      d.TotalDeliveries(),
		SuccessfulDeliveries: d.SuccessfulDeliveries(),
		SuccessRate:          d.SuccessRate(),
		TotalRoutes:          totalRoutes,
		CompletedRoutes:      completedRoutes,
		CancelledRoutes:      cancelledRoutes,
		CashCollected:        stats.CashCollected,
	}, nil
}
