package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

type RouteFilter struct {
	Date     *time.Time
	Status   *route.Status
	DriverID *kernel.UUID
	Page     Page
}

// RouteRepository defines the persistence contract for routes and their stops.
type RouteRepository interface {
	// Add persists a route with its stops. A delivery may have a pending stop on
	// one route only; a second one is rejected with ConcurrentModificationError.
	Add(ctx context.Context, aggregate *route.Route) error

	// Update is a compare-and-swap on the route version and rewrites stop statuses.
	Update(ctx context.Context, aggregate *route.Route) error

	Get(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// ListByDate returns routes of a date in the given statuses (all when none given).
	ListByDate(ctx context.Context, date time.Time, statuses ...route.Status) ([]*route.Route, error)

	// List returns one page, newest first, and the total number of matches.
	List(ctx context.Context, filter RouteFilter) ([]*route.Route, int, error)

	// HasLiveRoute reports whether the driver owns a planned or active route other than exclude.
	HasLiveRoute(ctx context.Context, driverID kernel.UUID, exclude kernel.UUID) (bool, error)
}
