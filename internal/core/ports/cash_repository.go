package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"
)

// CashRepository defines the persistence contract for cash collection records.
type CashRepository interface {
	// Add creates a record and its entries. Only one record may exist per (date, driver);
	// losing that race returns ConcurrentModificationError.
	Add(ctx context.Context, aggregate *cash.Record) error

	// AddEntry inserts one collection entry. Appends do not touch the record row.
	AddEntry(ctx context.Context, entry cash.Entry) error

	// Update writes the closing fields with a compare-and-swap on the record version.
	Update(ctx context.Context, aggregate *cash.Record) error

	Get(ctx context.Context, id kernel.UUID) (*cash.Record, error)

	// GetByDriverDate returns ObjectNotFoundError when the driver has no record for the date.
	GetByDriverDate(ctx context.Context, driverID kernel.UUID, date time.Time) (*cash.Record, error)

	// ListByDate returns the records of a date, optionally of one driver.
	ListByDate(ctx context.Context, date time.Time, driverID *kernel.UUID) ([]*cash.Record, error)
}
