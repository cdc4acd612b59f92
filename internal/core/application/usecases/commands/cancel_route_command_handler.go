package commands

import (
	"context"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/retry"
)

// CancelRouteCommandHandler cancels a planned or active route.
//
// Deliveries on still-open stops follow the route:
//   - assigned ones go back to pending and can be optimized again
//   - picked up or in transit ones are cancelled with the route's reason
//
// Delivered and failed stops keep their outcome. The driver becomes available
// unless another live route still needs them.
type CancelRouteCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewCancelRouteCommandHandler(uowFactory UoWFactory, clock ports.Clock) CancelRouteCommandHandler {
	return CancelRouteCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h CancelRouteCommandHandler) Handle(ctx context.Context, cmd CancelRouteCommand) (*route.Route, error) {
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

func (h CancelRouteCommandHandler) handle(ctx context.Context, cmd CancelRouteCommand) (*route.Route, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock()
	deliveries := uow.DeliveryRepository()

	rt, err := uow.RouteRepository().Get(ctx, cmd.RouteID())
	if err != nil {
		return nil, err
	}

	open, err := rt.Cancel(cmd.Reason(), now)
	if err != nil {
		return nil, err
	}

	for _, id := range open {
		d, err := deliveries.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !d.IsOnRoute(rt.ID()) {
			continue
		}

		switch d.Status() {
		case delivery.Assigned:
			err = d.Release(now)
		case delivery.PickedUp, delivery.InTransit:
			err = d.Cancel(cmd.Reason(), now)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if err = deliveries.Update(ctx, d); err != nil {
			return nil, err
		}
		metrics.DeliveryTransition(d.Status().String())
	}

	if err = uow.RouteRepository().Update(ctx, rt); err != nil {
		return nil, err
	}
	if err = afterRouteChange(ctx, uow, rt, now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return rt, nil
}
