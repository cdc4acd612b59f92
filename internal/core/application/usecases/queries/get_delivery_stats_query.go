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

var ErrGetDeliveryStatsQueryIsNotConstructed = errors.New(
	"GetDeliveryStatsQuery must be created via NewGetDeliveryStatsQuery constructor",
)

type GetDeliveryStatsQuery struct {
	filter ports.StatsFilter

	guard guard.ConstructorGuard
}

func NewGetDeliveryStatsQuery(dateFrom, dateTo *time.Time, driverID *kernel.UUID) (GetDeliveryStatsQuery, error) {
	var driverErr error
	if driverID != nil {
		driverErr = driverID.Validate()
	}
	if err := errors.Join(driverErr, checkDateRange(dateFrom, dateTo)); err != nil {
		return GetDeliveryStatsQuery{}, err
	}

	return GetDeliveryStatsQuery{
		filter: ports.StatsFilter{
			DateFrom: dayOrNil(dateFrom),
			DateTo:   dayOrNil(dateTo),
			DriverID: driverID,
		},
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (q GetDeliveryStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryStatsQueryIsNotConstructed)
}

func (q GetDeliveryStatsQuery) Filter() ports.StatsFilter {
	return q.filter
}

// DeliveryStatsResponse reports counts per status, the share of deliveries that arrived
// by their estimate and the cash collected, in minor units.
type DeliveryStatsResponse struct {
	Total         int
	ByStatus      map[delivery.Status]int
	OnTimeRate    float64
	CashCollected int64
}

type GetDeliveryStatsQueryHandler struct {
	readers ReaderFactory
}

func NewGetDeliveryStatsQueryHandler(readers ReaderFactory) GetDeliveryStatsQueryHandler {
	return GetDeliveryStatsQueryHandler{readers: readers}
}

func (h GetDeliveryStatsQueryHandler) Handle(ctx context.Context, query GetDeliveryStatsQuery) (DeliveryStatsResponse, error) {
	if err := query.Validate(); err != nil {
		return DeliveryStatsResponse{}, err
	}

	stats, err := h.readers.Create().DeliveryRepository().Stats(ctx, query.Filter())
	if err != nil {
		return DeliveryStatsResponse{}, err
	}

	byStatus := make(map[delivery.Status]int, len(delivery.AllStatuses()))
	for _, s := range delivery.AllStatuses() {
		byStatus[s] = stats.ByStatus[s]
	}

	var onTime float64
	if stats.WithEstimate > 0 {
		onTime = float64(stats.OnTime) / float64(stats.WithEstimate)
	}

	return DeliveryStatsResponse{
		Total:         stats.Total,
		ByStatus:      byStatus,
		OnTimeRate:    onTime,
		CashCollected: stats.CashCollected,
	}, nil
}
