package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDeliveryCommandHandler(t *testing.T) {
	t.Run("new deliveries are pending and numbered", func(t *testing.T) {
		e := newEnv()

		d := e.addDelivery(t, "A", 3.5, paidBy(delivery.Cash, 12500))

		assert.Equal(t, delivery.Pending, d.Status())
		assert.Regexp(t, `^DLV-20240501-[0-9A-F]{8}$`, d.Number())
		assert.Equal(t, kernel.Zone("A"), d.Zone())
		assert.Nil(t, d.DriverID())
		assert.Equal(t, d.ID(), e.delivery(t, d.ID()).ID())
	})

	t.Run("zone is resolved from the location", func(t *testing.T) {
		e := newEnv()
		loc := kernel.MustNewLocation(52.53, 13.41)
		ref, err := delivery.NewOrderRef(kernel.NewUUID(), orderDate, 900, delivery.Card, 1)
		require.NoError(t, err)
		cmd, err := commands.NewCreateDeliveryCommand(ref, "1 Market Sq", loc, "", delivery.High)
		require.NoError(t, err)

		resolver := services.NewGridZoneResolver(0)
		d, err := commands.NewCreateDeliveryCommandHandler(e.deliveryFactory(), resolver, fixedClock).Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, resolver.Resolve(loc), d.Zone())
	})

	t.Run("one live delivery per order", func(t *testing.T) {
		e := newEnv()
		ref, err := delivery.NewOrderRef(kernel.NewUUID(), orderDate, 900, delivery.Card, 1)
		require.NoError(t, err)
		cmd, err := commands.NewCreateDeliveryCommand(ref, "1 Market Sq", depot, "A", delivery.Normal)
		require.NoError(t, err)
		handler := commands.NewCreateDeliveryCommandHandler(e.deliveryFactory(), services.NewGridZoneResolver(0), fixedClock)

		first, err := handler.Handle(t.Context(), cmd)
		require.NoError(t, err)
		_, err = handler.Handle(t.Context(), cmd)
		require.True(t, errs.IsValidation(err))

		transition(t, e, first.ID(), delivery.Cancelled, nil)
		second, err := handler.Handle(t.Context(), cmd)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID(), second.ID())
	})

	t.Run("not constructed", func(t *testing.T) {
		e := newEnv()
		_, err := commands.NewCreateDeliveryCommandHandler(e.deliveryFactory(), services.NewGridZoneResolver(0), fixedClock).
			Handle(t.Context(), commands.CreateDeliveryCommand{})
		require.ErrorIs(t, err, commands.ErrCreateDeliveryCommandIsNotConstructed)
	})
}

func TestCreateDriverCommandHandler(t *testing.T) {
	e := newEnv()

	d := e.addDriver(t, 250, "A", "B")

	assert.Equal(t, driver.Available, d.Status())
	assert.True(t, d.Rating().Equal(driver.DefaultRating))
	assert.Equal(t, []kernel.Zone{"A", "B"}, d.Zones())
	assert.InDelta(t, 250.0, e.driver(t, d.ID()).MaxCapacityKg(), 1e-9)
}

func TestCreateDriverCommandHandler_InvalidProfile(t *testing.T) {
	e := newEnv()
	cmd, err := commands.NewCreateDriverCommand(driver.Profile{
		UserID:        kernel.NewUUID(),
		Name:          "",
		Phone:         "+4915112345678",
		VehicleType:   driver.Van,
		VehiclePlate:  "B-X-1",
		MaxCapacityKg: -1,
	})
	require.NoError(t, err)

	_, err = commands.NewCreateDriverCommandHandler(e.driverFactory(), fixedClock).Handle(t.Context(), cmd)

	require.True(t, errs.IsValidation(err))
}

func TestUpdateDriverCommandHandler(t *testing.T) {
	update := func(t *testing.T, e *env, id kernel.UUID, c commands.DriverChanges) (*driver.Driver, error) {
		t.Helper()
		cmd, err := commands.NewUpdateDriverCommand(id, c)
		require.NoError(t, err)
		return commands.NewUpdateDriverCommandHandler(e.driverFactory(), fixedClock).Handle(t.Context(), cmd)
	}

	t.Run("profile fields", func(t *testing.T) {
		e := newEnv()
		d := e.addDriver(t, 100, "A")
		capacity := 80.0
		phone := "+4915100000000"

		got, err := update(t, e, d.ID(), commands.DriverChanges{
			MaxCapacityKg: &capacity,
			Phone:         &phone,
			Zones:         []kernel.Zone{"C"},
		})

		require.NoError(t, err)
		assert.InDelta(t, 80.0, got.MaxCapacityKg(), 1e-9)
		stored := e.driver(t, d.ID())
		assert.Equal(t, phone, stored.Phone())
		assert.Equal(t, []kernel.Zone{"C"}, stored.Zones())
	})

	t.Run("suspend and reinstate", func(t *testing.T) {
		e := newEnv()
		d := e.addDriver(t, 100, "A")
		suspended, available := driver.Suspended, driver.Available

		got, err := update(t, e, d.ID(), commands.DriverChanges{Status: &suspended})
		require.NoError(t, err)
		assert.Equal(t, driver.Suspended, got.Status())
		require.ErrorIs(t, got.CanTakeRoute(), errs.ErrDriverUnavailable)

		got, err = update(t, e, d.ID(), commands.DriverChanges{Status: &available})
		require.NoError(t, err)
		assert.Equal(t, driver.Available, got.Status())
	})

	t.Run("invalid capacity leaves the driver untouched", func(t *testing.T) {
		e := newEnv()
		d := e.addDriver(t, 100, "A")
		capacity := -5.0

		_, err := update(t, e, d.ID(), commands.DriverChanges{MaxCapacityKg: &capacity})

		require.True(t, errs.IsValidation(err))
		assert.InDelta(t, 100.0, e.driver(t, d.ID()).MaxCapacityKg(), 1e-9)
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, err := commands.NewUpdateDriverCommand(kernel.NewUUID(), commands.DriverChanges{})
		require.True(t, errs.IsValidation(err))
	})

	t.Run("unknown driver", func(t *testing.T) {
		e := newEnv()
		available := driver.Available

		_, err := update(t, e, kernel.NewUUID(), commands.DriverChanges{Status: &available})

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
