package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// MockUoW records the transaction calls of a handler and forwards successful ones to
// backend, so writes staged through backend repositories are discarded on Rollback.
type MockUoW struct {
	mock.Mock
	backend ports.UnitOfWork
}

func (m *MockUoW) Begin(ctx context.Context) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return m.backend.Begin(ctx)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return m.backend.Commit(ctx)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return m.backend.Rollback(ctx)
}

func (m *MockUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

func (m *MockUoW) DriverRepository() ports.DriverRepository {
	args := m.Called()
	return args.Get(0).(ports.DriverRepository)
}

func (m *MockUoW) RouteRepository() ports.RouteRepository {
	args := m.Called()
	return args.Get(0).(ports.RouteRepository)
}

func (m *MockUoW) CashRepository() ports.CashRepository {
	args := m.Called()
	return args.Get(0).(ports.CashRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockRouteRepository struct{ mock.Mock }

func (m *MockRouteRepository) Add(ctx context.Context, rt *route.Route) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockRouteRepository) Update(ctx context.Context, rt *route.Route) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Route), args.Error(1)
}

func (m *MockRouteRepository) ListByDate(ctx context.Context, date time.Time, statuses ...route.Status) ([]*route.Route, error) {
	args := m.Called(ctx, date, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*route.Route), args.Error(1)
}

func (m *MockRouteRepository) List(ctx context.Context, filter ports.RouteFilter) ([]*route.Route, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*route.Route), args.Int(1), args.Error(2)
}

func (m *MockRouteRepository) HasLiveRoute(ctx context.Context, driverID kernel.UUID, exclude kernel.UUID) (bool, error) {
	args := m.Called(ctx, driverID, exclude)
	return args.Bool(0), args.Error(1)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) List(ctx context.Context, filter ports.DriverFilter) ([]*driver.Driver, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*driver.Driver), args.Int(1), args.Error(2)
}

func (m *MockDriverRepository) ListByStatus(ctx context.Context, statuses ...driver.Status) ([]*driver.Driver, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}
