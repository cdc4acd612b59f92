package services_test

import (
	"testing"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverEligibility_Candidates(t *testing.T) {
	zoneA := kernel.Zone("A")
	available := newDriver(t, 50, "4", "A")
	otherZone := newDriver(t, 50, "5", "B")
	small := newDriver(t, 10, "5", "A")
	busy := withStatus(t, newDriver(t, 80, "5", "A"), driver.Busy)
	suspended := withStatus(t, newDriver(t, 80, "5", "A"), driver.Suspended)
	offline := withStatus(t, newDriver(t, 80, "5", "A"), driver.Offline)
	routed := newDriver(t, 60, "5", "A")

	drivers := []*driver.Driver{available, otherZone, small, busy, suspended, offline, routed}
	loads := map[kernel.UUID]services.DriverLoad{
		routed.ID(): {Routes: 1, PlannedKg: 45},
		busy.ID():   {Routes: 1, PlannedKg: 20},
	}

	t.Run("single_route_per_day", func(t *testing.T) {
		got := services.NewDriverEligibility(false).Candidates(drivers, loads, &zoneA, 20)

		assert.Len(t, got, 1)
		assert.Equal(t, available.ID(), got[0].Driver.ID())
		assert.InDelta(t, 50, got[0].RemainingKg, 1e-9)
	})

	t.Run("multi_route_per_day", func(t *testing.T) {
		got := services.NewDriverEligibility(true).Candidates(drivers, loads, &zoneA, 20)

		assert.Len(t, got, 2)
		assert.Equal(t, busy.ID(), got[0].Driver.ID())
		assert.InDelta(t, 60, got[0].RemainingKg, 1e-9)
		assert.Equal(t, available.ID(), got[1].Driver.ID())
	})

	t.Run("any_zone", func(t *testing.T) {
		got := services.NewDriverEligibility(false).Candidates(drivers, loads, nil, 0)

		assert.Len(t, got, 3)
		// otherZone and available share capacity; rating decides
		assert.Equal(t, otherZone.ID(), got[0].Driver.ID())
		assert.Equal(t, available.ID(), got[1].Driver.ID())
		assert.Equal(t, small.ID(), got[2].Driver.ID())
	})
}

func TestLoadsOf(t *testing.T) {
	// Given
	driverID := kernel.NewUUID()
	stops := func(kg ...float64) []route.Stop {
		out := make([]route.Stop, len(kg))
		for i, w := range kg {
			out[i] = route.Stop{
				DeliveryID: kernel.NewUUID(),
				Sequence:   i,
				WeightKg:   w,
				Location:   kernel.MustNewLocation(52.5, 13.4),
			}
		}
		return out
	}

	planned, err := route.NewRoute(now, "r1", driverID, stops(10, 5), 0, now)
	require.NoError(t, err)
	cancelled, err := route.NewRoute(now, "r2", driverID, stops(40), 0, now)
	require.NoError(t, err)
	_, err = cancelled.Cancel("weather", now)
	require.NoError(t, err)

	// When
	loads := services.LoadsOf([]*route.Route{planned, cancelled})

	// Then
	assert.Equal(t, services.DriverLoad{Routes: 1, PlannedKg: 15}, loads[driverID])
	assert.Len(t, loads, 1)
}
