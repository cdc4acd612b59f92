package commands

import (
	"context"

	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/retry"
)

// StartRouteCommandHandler activates a planned route and marks its driver busy.
// Suspended and offline drivers cannot start a route.
type StartRouteCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewStartRouteCommandHandler(uowFactory UoWFactory, clock ports.Clock) StartRouteCommandHandler {
	return StartRouteCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h StartRouteCommandHandler) Handle(ctx context.Context, cmd StartRouteCommand) (*route.Route, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *route.Route
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		rt, err := h.handle(ctx, cmd)
		result = rt
		return err
	})
	return result, err
}

func (h StartRouteCommandHandler) handle(ctx context.Context, cmd StartRouteCommand) (*route.Route, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock()

	rt, err := uow.RouteRepository().Get(ctx, cmd.RouteID())
	if err != nil {
		return nil, err
	}
	drv, err := uow.DriverRepository().Get(ctx, rt.DriverID())
	if err != nil {
		return nil, err
	}

	if err = rt.Start(now); err != nil {
		return nil, err
	}
	if err = drv.CanTakeRoute(); err != nil {
		return nil, err
	}
	if err = drv.MarkBusy(now); err != nil {
		return nil, err
	}

	if err = uow.RouteRepository().Update(ctx, rt); err != nil {
		return nil, err
	}
	if err = uow.DriverRepository().Update(ctx, drv); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	metrics.RouteTransition(rt.Status().String())

	return rt, nil
}
