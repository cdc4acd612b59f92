package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrListEligibleDriversQueryIsNotConstructed = errors.New(
	"ListEligibleDriversQuery must be created via NewListEligibleDriversQuery constructor",
)

// ListEligibleDriversQuery asks which drivers could take requiredKg in zone on date.
type ListEligibleDriversQuery struct {
	zone       kernel.Zone
	requiredKg float64
	date       time.Time

	guard guard.ConstructorGuard
}

func NewListEligibleDriversQuery(zone string, requiredKg float64, date time.Time) (ListEligibleDriversQuery, error) {
	z, zoneErr := kernel.NewZone(zone)

	var kgErr error
	if requiredKg < 0 {
		kgErr = errs.NewValueIsInvalidErrorWithCause("required capacity", fmt.Errorf("%g kg is negative", requiredKg))
	}

	var dateErr error
	if date.IsZero() {
		dateErr = errs.NewValueIsRequiredError("date")
	}

	if err := errors.Join(zoneErr, kgErr, dateErr); err != nil {
		return ListEligibleDriversQuery{}, err
	}

	return ListEligibleDriversQuery{
		zone:       z,
		requiredKg: requiredKg,
		date:       kernel.DateOf(date),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ListEligibleDriversQuery) Validate() error {
	return q.guard.Validate(ErrListEligibleDriversQueryIsNotConstructed)
}

// EligibleDriver is a driver and the capacity still free on the requested date.
type EligibleDriver struct {
	Driver      *driver.Driver
	RemainingKg float64
}

// ListEligibleDriversQueryHandler applies the same eligibility rules as route optimization.
type ListEligibleDriversQueryHandler struct {
	readers          ReaderFactory
	multiRoutePerDay bool
}

func NewListEligibleDriversQueryHandler(readers ReaderFactory, multiRoutePerDay bool) ListEligibleDriversQueryHandler {
	return ListEligibleDriversQueryHandler{readers: readers, multiRoutePerDay: multiRoutePerDay}
}

// Handle returns eligible drivers ranked by remaining capacity, rating and id.
func (h ListEligibleDriversQueryHandler) Handle(ctx context.Context, query ListEligibleDriversQuery) ([]EligibleDriver, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	reader := h.readers.Create()
	drivers, err := reader.DriverRepository().ListByStatus(ctx, driver.Available, driver.Busy)
	if err != nil {
		return nil, err
	}
	routes, err := reader.RouteRepository().ListByDate(ctx, query.date, route.Planned, route.Active, route.Completed)
	if err != nil {
		return nil, err
	}

	zone := query.zone
	candidates := services.NewDriverEligibility(h.multiRoutePerDay).
		Candidates(drivers, services.LoadsOf(routes), &zone, query.requiredKg)

	out := make([]EligibleDriver, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, EligibleDriver{Driver: c.Driver, RemainingKg: c.RemainingKg})
	}
	return out, nil
}
