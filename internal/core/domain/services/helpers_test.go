package services_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

func newDriver(t *testing.T, capacityKg float64, rating string, zones ...kernel.Zone) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(driver.Profile{
		UserID:        kernel.NewUUID(),
		Name:          "Dana",
		Phone:         "+4930123456",
		VehicleType:   driver.Van,
		VehiclePlate:  "b-dx-100",
		MaxCapacityKg: capacityKg,
		Zones:         zones,
	}, now)
	require.NoError(t, err)

	s := d.Snapshot()
	s.Rating = decimal.RequireFromString(rating)
	d, err = driver.Restore(s)
	require.NoError(t, err)
	return d
}

func withStatus(t *testing.T, d *driver.Driver, status driver.Status) *driver.Driver {
	t.Helper()

	s := d.Snapshot()
	s.Status = status
	out, err := driver.Restore(s)
	require.NoError(t, err)
	return out
}

func newDelivery(t *testing.T, zone kernel.Zone, weightKg float64, priority delivery.Priority, created time.Time) *delivery.Delivery {
	t.Helper()

	ref, err := delivery.NewOrderRef(kernel.NewUUID(), now, 1000, delivery.Cash, weightKg)
	require.NoError(t, err)
	addr, err := delivery.NewAddress("1 Dock Rd", kernel.MustNewLocation(52.5, 13.4), zone)
	require.NoError(t, err)
	d, err := delivery.NewDelivery(ref, addr, priority, created)
	require.NoError(t, err)
	return d
}

func ids(ds []*delivery.Delivery) []kernel.UUID {
	out := make([]kernel.UUID, len(ds))
	for i, d := range ds {
		out[i] = d.ID()
	}
	return out
}
