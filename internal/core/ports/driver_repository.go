package ports

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// DriverFilter selects drivers for listings. Search matches name, phone or plate.
type DriverFilter struct {
	Status *driver.Status
	Zone   *kernel.Zone
	Search string
	Page   Page
}

// DriverRepository defines the persistence contract for the driver registry.
type DriverRepository interface {
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update is a compare-and-swap on the driver version, like DeliveryRepository.Update.
	Update(ctx context.Context, aggregate *driver.Driver) error

	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// List returns one page ordered by name and the total number of matches.
	List(ctx context.Context, filter DriverFilter) ([]*driver.Driver, int, error)

	// ListByStatus returns every driver in one of the statuses, ordered by id.
	ListByStatus(ctx context.Context, statuses ...driver.Status) ([]*driver.Driver, error)
}
