package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	orderDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clockNow  = time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	depot     = kernel.MustNewLocation(52.5200, 13.4050)
)

func fixedClock() time.Time {
	return clockNow
}

type factoryFunc[T any] func() T

func (f factoryFunc[T]) Create() T {
	return f()
}

// env wires command handlers to the in-memory backend.
type env struct {
	store  *memory.Store
	uows   *memory.UnitOfWorkFactory
	leases *memory.LeaseManager
}

func newEnv() *env {
	store := memory.NewStore()
	return &env{
		store:  store,
		uows:   memory.NewUnitOfWorkFactory(store),
		leases: memory.NewLeaseManager(),
	}
}

func (e *env) uowFactory() commands.UoWFactory {
	return factoryFunc[commands.UoW](func() commands.UoW { return e.uows.Create() })
}

func (e *env) cashFactory() commands.CashUoWFactory {
	return factoryFunc[commands.CashUoW](func() commands.CashUoW { return e.uows.Create() })
}

func (e *env) deliveryFactory() commands.DeliveryUoWFactory {
	return factoryFunc[commands.DeliveryUoW](func() commands.DeliveryUoW { return e.uows.Create() })
}

func (e *env) driverFactory() commands.DriverUoWFactory {
	return factoryFunc[commands.DriverUoW](func() commands.DriverUoW { return e.uows.Create() })
}

func (e *env) addDriver(t *testing.T, capacityKg float64, zones ...kernel.Zone) *driver.Driver {
	t.Helper()

	cmd, err := commands.NewCreateDriverCommand(driver.Profile{
		UserID:        kernel.NewUUID(),
		Name:          "Noor",
		Phone:         "+4915112345678",
		VehicleType:   driver.Van,
		VehiclePlate:  "B-NR-42",
		MaxCapacityKg: capacityKg,
		Zones:         zones,
	})
	require.NoError(t, err)

	d, err := commands.NewCreateDriverCommandHandler(e.driverFactory(), fixedClock).Handle(t.Context(), cmd)
	require.NoError(t, err)
	return d
}

type deliveryOpt func(*deliveryParams)

type deliveryParams struct {
	payment  delivery.PaymentMethod
	total    int64
	priority delivery.Priority
	location kernel.Location
}

func paidBy(p delivery.PaymentMethod, total int64) deliveryOpt {
	return func(s *deliveryParams) {
		s.payment = p
		s.total = total
	}
}

func at(lat, lon float64) deliveryOpt {
	return func(s *deliveryParams) {
		s.location = kernel.MustNewLocation(lat, lon)
	}
}

func (e *env) addDelivery(t *testing.T, zone kernel.Zone, weightKg float64, opts ...deliveryOpt) *delivery.Delivery {
	t.Helper()

	params := deliveryParams{
		payment:  delivery.Card,
		total:    2500,
		priority: delivery.Normal,
		location: kernel.MustNewLocation(52.5210, 13.4100),
	}
	for _, o := range opts {
		o(&params)
	}

	ref, err := delivery.NewOrderRef(kernel.NewUUID(), orderDate, params.total, params.payment, weightKg)
	require.NoError(t, err)
	cmd, err := commands.NewCreateDeliveryCommand(ref, "7 Canal St", params.location, zone.String(), params.priority)
	require.NoError(t, err)

	handler := commands.NewCreateDeliveryCommandHandler(e.deliveryFactory(), services.NewGridZoneResolver(0), fixedClock)
	d, err := handler.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return d
}

func (e *env) optimizer(cfg commands.OptimizeRoutesConfig, oracle ports.GeoCostOracle) commands.OptimizeRoutesCommandHandler {
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = time.Minute
	}
	if cfg.Depot == (kernel.Location{}) {
		cfg.Depot = depot
	}
	return commands.NewOptimizeRoutesCommandHandler(
		e.uowFactory(),
		e.leases,
		oracle,
		geo.NewHaversineOracle(30),
		fixedClock,
		cfg,
		zap.NewNop(),
	)
}

func (e *env) optimize(t *testing.T) commands.OptimizeRoutesResult {
	t.Helper()

	cmd, err := commands.NewOptimizeRoutesCommand(orderDate, nil)
	require.NoError(t, err)
	result, err := e.optimizer(commands.OptimizeRoutesConfig{ShiftStart: 8 * time.Hour}, nil).Handle(t.Context(), cmd)
	require.NoError(t, err)
	return result
}

func (e *env) delivery(t *testing.T, id kernel.UUID) *delivery.Delivery {
	t.Helper()
	d, err := e.uows.Create().DeliveryRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return d
}

func (e *env) driver(t *testing.T, id kernel.UUID) *driver.Driver {
	t.Helper()
	d, err := e.uows.Create().DriverRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return d
}

func (e *env) route(t *testing.T, id kernel.UUID) *route.Route {
	t.Helper()
	rt, err := e.uows.Create().RouteRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return rt
}

func (e *env) cashRecord(t *testing.T, driverID kernel.UUID) *cash.Record {
	t.Helper()
	rec, err := e.uows.Create().CashRepository().GetByDriverDate(t.Context(), driverID, orderDate)
	require.NoError(t, err)
	return rec
}

func (e *env) startRoute(t *testing.T, id kernel.UUID) *route.Route {
	t.Helper()
	cmd, err := commands.NewStartRouteCommand(id)
	require.NoError(t, err)
	rt, err := commands.NewStartRouteCommandHandler(e.uowFactory(), fixedClock).Handle(t.Context(), cmd)
	require.NoError(t, err)
	return rt
}

func (e *env) completeStop(
	t *testing.T,
	routeID, deliveryID kernel.UUID,
	outcome route.StopStatus,
	cash *int64,
) (*route.Route, error) {
	t.Helper()
	cmd, err := commands.NewCompleteStopCommand(routeID, deliveryID, outcome, "", cash)
	require.NoError(t, err)
	return commands.NewCompleteStopCommandHandler(e.uowFactory(), fixedClock).Handle(t.Context(), cmd)
}

func amount(v int64) *int64 {
	return &v
}
