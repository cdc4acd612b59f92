package postgres

import (
	"fmt"

	"dispatch/internal/adapters/out/postgres/cashrepo"
	"dispatch/internal/adapters/out/postgres/deliveryrepo"
	"dispatch/internal/adapters/out/postgres/driverrepo"
	"dispatch/internal/adapters/out/postgres/routerepo"

	"gorm.io/gorm"
)

// partialIndexes are the constraints AutoMigrate cannot express from struct tags.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + deliveryrepo.LiveOrderIndex +
		` ON deliveries (order_id) WHERE status <> 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + routerepo.PendingStopIndex +
		` ON route_stops (delivery_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_deliveries_pending_by_date
		ON deliveries (order_date, number) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_zones ON drivers USING GIN (zones)`,
}

// Migrate creates or updates the dispatch schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&driverrepo.DriverDTO{},
		&deliveryrepo.DeliveryDTO{},
		&routerepo.RouteDTO{},
		&routerepo.StopDTO{},
		&cashrepo.RecordDTO{},
		&cashrepo.EntryDTO{},
		&LeaseDTO{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
