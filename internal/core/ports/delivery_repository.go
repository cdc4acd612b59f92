// Package ports defines the contracts between the dispatch core and its
// infrastructure: repositories, the unit of work, the optimization lease and
// the geo cost oracle.
package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
)

// Page is an offset window over a sorted list.
type Page struct {
	Limit  int
	Offset int
}

// PendingFilter selects pending deliveries of an order date in delivery number order.
// AfterNumber is the keyset cursor: only numbers strictly greater are returned.
type PendingFilter struct {
	Date        time.Time
	Zone        *kernel.Zone
	AfterNumber string
	Limit       int
}

// DeliveryFilter selects deliveries for listings. Dates are order dates, inclusive.
// Search matches the delivery number or the address text, case-insensitively.
type DeliveryFilter struct {
	Statuses []delivery.Status
	DriverID *kernel.UUID
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     Page
}

type StatsFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	DriverID *kernel.UUID
}

// DeliveryStats aggregates deliveries matching a StatsFilter. Money is minor units.
type DeliveryStats struct {
	Total    int
	ByStatus map[delivery.Status]int
	// OnTime counts delivered deliveries that arrived no later than their estimate.
	OnTime int
	// WithEstimate counts delivered deliveries that had an estimate at all.
	WithEstimate  int
	CashCollected int64
}

// DeliveryRepository defines the persistence contract for the delivery ledger.
type DeliveryRepository interface {
	// Add persists a new delivery. A second live delivery for the same order is rejected
	// with a ValidationError.
	Add(ctx context.Context, aggregate *delivery.Delivery) error

	// Update writes the delivery when its stored version still equals aggregate.Version(),
	// then advances the version. A stale write returns ConcurrentModificationError.
	Update(ctx context.Context, aggregate *delivery.Delivery) error

	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// ExistsActiveForOrder reports whether the order already has a non-cancelled delivery.
	ExistsActiveForOrder(ctx context.Context, orderID kernel.UUID) (bool, error)

	ListPending(ctx context.Context, filter PendingFilter) ([]*delivery.Delivery, error)

	// List returns one page and the total number of matches, newest first.
	List(ctx context.Context, filter DeliveryFilter) ([]*delivery.Delivery, int, error)

	Stats(ctx context.Context, filter StatsFilter) (DeliveryStats, error)

	// ExpectedCash sums the order totals of delivered cash-payment deliveries
	// of a driver for an order date.
	ExpectedCash(ctx context.Context, driverID kernel.UUID, date time.Time) (int64, error)
}
