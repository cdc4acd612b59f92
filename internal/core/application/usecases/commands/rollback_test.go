package commands_test

import (
	"errors"
	"testing"
	"time"

	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errConnReset = errors.New("connection reset by peer")

func TestOptimizeRoutesCommandHandler_Handle_RouteAddFails(t *testing.T) {
	ctx := t.Context()
	e := newEnv()
	drv := e.addDriver(t, 100, "A")
	first := e.addDelivery(t, "A", 2, at(52.521, 13.41))
	second := e.addDelivery(t, "A", 3, at(52.523, 13.41))

	backend := e.uows.Create()
	routes := new(MockRouteRepository)
	uow := &MockUoW{backend: backend}

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("DeliveryRepository").Return(backend.DeliveryRepository()).Once(),
		uow.On("RouteRepository").Return(routes).Once(),
		routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).Return(errConnReset).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	// the first unit of work only reads pending deliveries and drivers
	factory := new(MockUoWFactory)
	factory.On("Create").Return(e.uows.Create()).Once()
	factory.On("Create").Return(uow).Once()

	handler := commands.NewOptimizeRoutesCommandHandler(
		factory,
		e.leases,
		nil,
		geo.NewHaversineOracle(30),
		fixedClock,
		commands.OptimizeRoutesConfig{LeaseTTL: time.Minute, Depot: depot, ShiftStart: 8 * time.Hour},
		zap.NewNop(),
	)
	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)

	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Empty(t, result.Routes)
	assert.ElementsMatch(t, []kernel.UUID{first.ID(), second.ID()}, result.UnassignedDeliveryIDs)

	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	routes.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)

	for _, d := range []*delivery.Delivery{first, second} {
		stored := e.delivery(t, d.ID())
		assert.Equal(t, delivery.Pending, stored.Status())
		assert.Nil(t, stored.RouteID())
		assert.Nil(t, stored.DriverID())
	}
	stored, err := e.uows.Create().RouteRepository().ListByDate(ctx, orderDate)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, driver.Available, e.driver(t, drv.ID()).Status())

	// the lease was released, so a later run stores the route
	assert.Len(t, e.optimize(t).Routes, 1)
}

func TestCompleteStopCommandHandler_Handle_RouteUpdateFails(t *testing.T) {
	ctx := t.Context()
	e, rt, deliveries := plannedRoute(t, 2)
	e.startRoute(t, rt.ID())
	target := deliveries[0]
	before := e.delivery(t, target.ID())

	backend := e.uows.Create()
	loaded, err := backend.RouteRepository().Get(ctx, rt.ID())
	require.NoError(t, err)

	routes := new(MockRouteRepository)
	uow := &MockUoW{backend: backend}

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("RouteRepository").Return(routes).Once(),
		routes.On("Get", ctx, rt.ID()).Return(loaded, nil).Once(),
		uow.On("DeliveryRepository").Return(backend.DeliveryRepository()).Twice(),
		uow.On("CashRepository").Return(backend.CashRepository()).Once(),
		uow.On("RouteRepository").Return(routes).Once(),
		routes.On("Update", ctx, mock.AnythingOfType("*route.Route")).Return(errConnReset).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewCompleteStopCommand(rt.ID(), target.ID(), route.StopDelivered, "", amount(1000))
	require.NoError(t, err)

	_, err = commands.NewCompleteStopCommandHandler(factory, fixedClock).Handle(ctx, cmd)

	require.ErrorIs(t, err, errConnReset)
	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	routes.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)

	stored := e.delivery(t, target.ID())
	assert.Equal(t, before.Status(), stored.Status())
	assert.Equal(t, before.Version(), stored.Version())
	assert.Nil(t, stored.CashCollected())

	stop, ok := e.route(t, rt.ID()).Stop(target.ID())
	require.True(t, ok)
	assert.Equal(t, route.StopPending, stop.Status)

	_, err = e.uows.Create().CashRepository().GetByDriverDate(ctx, rt.DriverID(), orderDate)
	assert.True(t, errs.IsNotFound(err))
}

func TestCancelRouteCommandHandler_Handle_DriverUpdateFails(t *testing.T) {
	ctx := t.Context()
	e, rt, deliveries := plannedRoute(t, 2)
	e.startRoute(t, rt.ID())

	backend := e.uows.Create()
	loadedDriver, err := backend.DriverRepository().Get(ctx, rt.DriverID())
	require.NoError(t, err)
	require.Equal(t, driver.Busy, loadedDriver.Status())

	drivers := new(MockDriverRepository)
	uow := &MockUoW{backend: backend}

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("DeliveryRepository").Return(backend.DeliveryRepository()).Once(),
		uow.On("RouteRepository").Return(backend.RouteRepository()).Twice(),
		uow.On("DriverRepository").Return(drivers).Once(),
		drivers.On("Get", ctx, rt.DriverID()).Return(loadedDriver, nil).Once(),
		uow.On("RouteRepository").Return(backend.RouteRepository()).Once(),
		drivers.On("Update", ctx, mock.AnythingOfType("*driver.Driver")).Return(errConnReset).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewCancelRouteCommand(rt.ID(), "vehicle breakdown")
	require.NoError(t, err)

	_, err = commands.NewCancelRouteCommandHandler(factory, fixedClock).Handle(ctx, cmd)

	require.ErrorIs(t, err, errConnReset)
	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	drivers.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)

	storedRoute := e.route(t, rt.ID())
	assert.Equal(t, route.Active, storedRoute.Status())
	assert.Empty(t, storedRoute.CancellationReason())
	for _, d := range deliveries {
		stored := e.delivery(t, d.ID())
		assert.Equal(t, delivery.Assigned, stored.Status())
		assert.True(t, stored.IsOnRoute(rt.ID()))
	}
	assert.Equal(t, driver.Busy, e.driver(t, rt.DriverID()).Status())
}
