package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lease"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oracleFunc func(ctx context.Context, points []kernel.Location) (ports.CostMatrix, error)

func (f oracleFunc) CostMatrix(ctx context.Context, points []kernel.Location) (ports.CostMatrix, error) {
	return f(ctx, points)
}

func TestOptimizeRoutesCommandHandler_CapacityScenario(t *testing.T) {
	// Given
	e := newEnv()
	d := e.addDriver(t, 50, "A")
	x := e.addDelivery(t, "A", 10)
	y := e.addDelivery(t, "A", 45)

	// When
	result := e.optimize(t)

	// Then
	require.Len(t, result.Routes, 1)
	rt := result.Routes[0]
	assert.True(t, rt.DriverID().IsEqual(d.ID()))
	require.Len(t, rt.Stops(), 1)
	assert.True(t, rt.Stops()[0].DeliveryID.IsEqual(x.ID()))
	assert.Equal(t, []kernel.UUID{y.ID()}, result.UnassignedDeliveryIDs)
	assert.False(t, result.FallbackUsed)

	assignedX := e.delivery(t, x.ID())
	assert.Equal(t, delivery.Assigned, assignedX.Status())
	require.NotNil(t, assignedX.RouteID())
	assert.True(t, assignedX.RouteID().IsEqual(rt.ID()))
	assert.Equal(t, delivery.Pending, e.delivery(t, y.ID()).Status())

	stored := e.route(t, rt.ID())
	assert.Equal(t, route.Planned, stored.Status())
	assert.Equal(t, 1, stored.TotalDeliveries())
}

func TestOptimizeRoutesCommandHandler_IdempotentOnPendingDeliveries(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDriver(t, 100, "B")
	for range 3 {
		e.addDelivery(t, "A", 5)
		e.addDelivery(t, "B", 5)
	}

	// When
	first := e.optimize(t)
	second := e.optimize(t)
	third := e.optimize(t)

	// Then
	require.Len(t, first.Routes, 2)
	assert.Empty(t, first.UnassignedDeliveryIDs)
	assert.Empty(t, second.Routes)
	assert.Empty(t, second.UnassignedDeliveryIDs)
	assert.Empty(t, third.Routes)

	seen := make(map[kernel.UUID]kernel.UUID)
	for _, rt := range first.Routes {
		for _, s := range rt.Stops() {
			_, dup := seen[s.DeliveryID]
			assert.False(t, dup, "delivery %s is on two routes", s.DeliveryID)
			seen[s.DeliveryID] = rt.ID()
		}
	}
	assert.Len(t, seen, 6)
}

func TestOptimizeRoutesCommandHandler_ConcurrentRunsNeverShareDeliveries(t *testing.T) {
	// Given
	e := newEnv()
	for range 3 {
		e.addDriver(t, 20, "A")
	}
	for range 8 {
		e.addDelivery(t, "A", 10)
	}

	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)
	handler := e.optimizer(commands.OptimizeRoutesConfig{LeaseWait: 5 * time.Second}, nil)

	// When
	const runs = 6
	var wg sync.WaitGroup
	errCh := make(chan error, runs)
	for range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), cmd)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	// Then
	for err := range errCh {
		require.NoError(t, err)
	}

	routes, err := e.uows.Create().RouteRepository().ListByDate(t.Context(), orderDate)
	require.NoError(t, err)
	require.Len(t, routes, 3)

	owners := make(map[kernel.UUID]kernel.UUID)
	for _, rt := range routes {
		var load float64
		for _, s := range rt.Stops() {
			prev, dup := owners[s.DeliveryID]
			assert.False(t, dup, "delivery %s on routes %s and %s", s.DeliveryID, prev, rt.ID())
			owners[s.DeliveryID] = rt.ID()
			load += s.WeightKg
		}
		assert.LessOrEqual(t, load, 20.0)
	}
	assert.Len(t, owners, 8-2, "two deliveries exceed the fleet capacity")
}

func TestOptimizeRoutesCommandHandler_RouteLoadNeverExceedsCapacity(t *testing.T) {
	// Given
	e := newEnv()
	drivers := map[kernel.UUID]*driver.Driver{}
	for _, capacity := range []float64{12, 25, 40} {
		d := e.addDriver(t, capacity, "A", "B")
		drivers[d.ID()] = d
	}
	weights := []float64{7.5, 3, 11, 19, 2.25, 8, 14, 6, 9.5, 1}
	for i, w := range weights {
		zone := kernel.Zone("A")
		if i%3 == 0 {
			zone = "B"
		}
		e.addDelivery(t, zone, w)
	}

	// When
	result := e.optimize(t)

	// Then
	require.NotEmpty(t, result.Routes)
	for _, rt := range result.Routes {
		var load float64
		for _, s := range rt.Stops() {
			load += s.WeightKg
		}
		assert.LessOrEqual(t, load, drivers[rt.DriverID()].MaxCapacityKg())
	}
}

func TestOptimizeRoutesCommandHandler_StopOrderAndETA(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	far := e.addDelivery(t, "A", 1, at(52.5600, 13.4050))
	near := e.addDelivery(t, "A", 1, at(52.5250, 13.4050))
	middle := e.addDelivery(t, "A", 1, at(52.5400, 13.4050))

	cfg := commands.OptimizeRoutesConfig{ShiftStart: 8 * time.Hour, ServiceTime: 5 * time.Minute}
	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	// When
	result, err := e.optimizer(cfg, nil).Handle(t.Context(), cmd)

	// Then
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	stops := result.Routes[0].Stops()
	require.Len(t, stops, 3)
	assert.Equal(t, []kernel.UUID{near.ID(), middle.ID(), far.ID()},
		[]kernel.UUID{stops[0].DeliveryID, stops[1].DeliveryID, stops[2].DeliveryID})

	eta := orderDate.Add(8 * time.Hour)
	legs := 0
	for i, s := range stops {
		if i > 0 {
			eta = eta.Add(5 * time.Minute)
		}
		eta = eta.Add(time.Duration(s.LegDurationS) * time.Second)
		legs += s.LegDurationS
		assert.Equal(t, eta, s.PlannedArrival, "stop %d", i)

		estimated := e.delivery(t, s.DeliveryID).EstimatedAt()
		require.NotNil(t, estimated)
		assert.Equal(t, eta, *estimated)
	}
	assert.Equal(t, legs+3*300, result.Routes[0].EstimatedDurationS())
}

func TestOptimizeRoutesCommandHandler_OracleFailureUsesFallback(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)

	failing := oracleFunc(func(context.Context, []kernel.Location) (ports.CostMatrix, error) {
		return ports.CostMatrix{}, errors.New("upstream unavailable")
	})
	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	// When
	result, err := e.optimizer(commands.OptimizeRoutesConfig{}, failing).Handle(t.Context(), cmd)

	// Then
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	require.Len(t, result.Routes, 1)
	assert.Positive(t, result.Routes[0].TotalDistanceM())
}

func TestOptimizeRoutesCommandHandler_OracleTimeoutUsesFallback(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)

	slow := oracleFunc(func(ctx context.Context, _ []kernel.Location) (ports.CostMatrix, error) {
		<-ctx.Done()
		return ports.CostMatrix{}, ctx.Err()
	})
	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	// When
	result, err := e.optimizer(commands.OptimizeRoutesConfig{OracleTimeout: 20 * time.Millisecond}, slow).
		Handle(t.Context(), cmd)

	// Then
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	assert.Len(t, result.Routes, 1)
}

func TestOptimizeRoutesCommandHandler_MalformedOracleMatrixUsesFallback(t *testing.T) {
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)

	short := oracleFunc(func(context.Context, []kernel.Location) (ports.CostMatrix, error) {
		return ports.CostMatrix{Distances: [][]int{{0}}, Durations: [][]int{{0}}}, nil
	})
	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	result, err := e.optimizer(commands.OptimizeRoutesConfig{}, short).Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
}

func TestOptimizeRoutesCommandHandler_LeaseHeldByAnotherRun(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)

	other, err := lease.New(orderDate, "other-holder", time.Hour, clockNow)
	require.NoError(t, err)
	require.NoError(t, e.leases.TryAcquire(t.Context(), other))

	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	// When
	_, err = e.optimizer(commands.OptimizeRoutesConfig{LeaseWait: 50 * time.Millisecond}, nil).Handle(t.Context(), cmd)

	// Then
	require.ErrorIs(t, err, errs.ErrInvalidState)
	pending, err := e.uows.Create().DeliveryRepository().ListPending(t.Context(), ports.PendingFilter{Date: orderDate})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestOptimizeRoutesCommandHandler_ReleasesLease(t *testing.T) {
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)

	e.optimize(t)

	l, err := lease.New(orderDate, "next-holder", time.Minute, clockNow)
	require.NoError(t, err)
	assert.NoError(t, e.leases.TryAcquire(t.Context(), l))
}

func TestOptimizeRoutesCommandHandler_SingleDriver(t *testing.T) {
	t.Run("suspended driver is unavailable", func(t *testing.T) {
		e := newEnv()
		d := e.addDriver(t, 100, "A")
		e.addDelivery(t, "A", 3)

		suspended := driver.Suspended
		upd, err := commands.NewUpdateDriverCommand(d.ID(), commands.DriverChanges{Status: &suspended})
		require.NoError(t, err)
		_, err = commands.NewUpdateDriverCommandHandler(e.driverFactory(), fixedClock).Handle(t.Context(), upd)
		require.NoError(t, err)

		id := d.ID()
		cmd, err := commands.NewOptimizeRoutesCommand(orderDate, &id)
		require.NoError(t, err)

		_, err = e.optimizer(commands.OptimizeRoutesConfig{}, nil).Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrDriverUnavailable)
	})

	t.Run("only the requested driver receives routes", func(t *testing.T) {
		e := newEnv()
		e.addDriver(t, 100, "A")
		chosen := e.addDriver(t, 10, "A")
		e.addDelivery(t, "A", 6)
		e.addDelivery(t, "A", 6)

		id := chosen.ID()
		cmd, err := commands.NewOptimizeRoutesCommand(orderDate, &id)
		require.NoError(t, err)

		result, err := e.optimizer(commands.OptimizeRoutesConfig{}, nil).Handle(t.Context(), cmd)

		require.NoError(t, err)
		require.Len(t, result.Routes, 1)
		assert.True(t, result.Routes[0].DriverID().IsEqual(chosen.ID()))
		assert.Len(t, result.UnassignedDeliveryIDs, 1)
	})
}

func TestOptimizeRoutesCommandHandler_DriverWithRouteIsNotReused(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 100, "A")
	e.addDelivery(t, "A", 3)
	first := e.optimize(t)
	require.Len(t, first.Routes, 1)

	late := e.addDelivery(t, "A", 3)

	// When
	second := e.optimize(t)

	// Then
	assert.Empty(t, second.Routes)
	assert.Equal(t, []kernel.UUID{late.ID()}, second.UnassignedDeliveryIDs)
}

func TestOptimizeRoutesCommandHandler_MultiRoutePerDay(t *testing.T) {
	// Given
	e := newEnv()
	e.addDriver(t, 10, "A")
	e.addDelivery(t, "A", 6)
	first := e.optimize(t)
	require.Len(t, first.Routes, 1)

	fits := e.addDelivery(t, "A", 4)
	tooHeavy := e.addDelivery(t, "A", 5)

	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	// When
	result, err := e.optimizer(commands.OptimizeRoutesConfig{MultiRoutePerDay: true}, nil).Handle(t.Context(), cmd)

	// Then
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	require.Len(t, result.Routes[0].Stops(), 1)
	assert.True(t, result.Routes[0].Stops()[0].DeliveryID.IsEqual(fits.ID()))
	assert.Equal(t, []kernel.UUID{tooHeavy.ID()}, result.UnassignedDeliveryIDs)
}

func TestOptimizeRoutesCommandHandler_NothingPending(t *testing.T) {
	e := newEnv()
	e.addDriver(t, 100, "A")

	result := e.optimize(t)

	assert.Empty(t, result.Routes)
	assert.Empty(t, result.UnassignedDeliveryIDs)
}

func TestOptimizeRoutesCommandHandler_NotConstructed(t *testing.T) {
	e := newEnv()

	_, err := e.optimizer(commands.OptimizeRoutesConfig{}, nil).Handle(t.Context(), commands.OptimizeRoutesCommand{})

	require.ErrorIs(t, err, commands.ErrOptimizeRoutesCommandIsNotConstructed)
}

func TestNewOptimizeRoutesCommand(t *testing.T) {
	_, err := commands.NewOptimizeRoutesCommand(time.Time{}, nil)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	cmd, err := commands.NewOptimizeRoutesCommand(time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, orderDate, cmd.Date())
	assert.Nil(t, cmd.DriverID())
}
