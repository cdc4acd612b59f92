package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/retry"
)

// TransitionDeliveryCommandHandler applies a ledger transition and keeps the owning
// route consistent in the same unit of work:
//   - delivered / failed settle the route stop exactly like CompleteStop
//   - cancelled marks the stop cancelled
//   - pending (release) takes the stop off the route
//   - picked_up / in_transit require the route to be active
//
// Pending deliveries are assigned only by route optimization.
// A lost compare-and-swap race is retried once.
type TransitionDeliveryCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewTransitionDeliveryCommandHandler(uowFactory UoWFactory, clock ports.Clock) TransitionDeliveryCommandHandler {
	return TransitionDeliveryCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h TransitionDeliveryCommandHandler) Handle(ctx context.Context, cmd TransitionDeliveryCommand) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *delivery.Delivery
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		d, err := h.handle(ctx, cmd)
		result = d
		return err
	})
	return result, err
}

func (h TransitionDeliveryCommandHandler) handle(ctx context.Context, cmd TransitionDeliveryCommand) (*delivery.Delivery, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock()
	deliveries := uow.DeliveryRepository()

	d, err := deliveries.Get(ctx, cmd.DeliveryID())
	if err != nil {
		return nil, err
	}

	to := cmd.To()
	if !d.Status().CanTransitionTo(to) {
		return nil, errs.NewInvalidTransitionError("delivery", d.ID().String(), d.Status().String(), to.String())
	}
	if to == delivery.Assigned {
		return nil, errs.NewValidationError(d.ID().String(), "deliveries are assigned by route optimization")
	}

	var rt *route.Route
	if routeID := d.RouteID(); routeID != nil {
		if rt, err = uow.RouteRepository().Get(ctx, *routeID); err != nil {
			return nil, err
		}
	}

	switch to {
	case delivery.Delivered, delivery.Failed:
		if rt == nil {
			return nil, errs.NewInvalidStateError("delivery", d.ID().String(), d.Status().String(), "delivery is not on a route")
		}
		outcome := route.StopDelivered
		if to == delivery.Failed {
			outcome = route.StopFailed
		}
		if _, err = settleStop(ctx, uow, rt, d, outcome, cmd.Reason(), cmd.CashCollected(), now); err != nil {
			return nil, err
		}

	case delivery.PickedUp, delivery.InTransit:
		if rt == nil || rt.Status() != route.Active {
			state := "unrouted"
			if rt != nil {
				state = rt.Status().String()
			}
			return nil, errs.NewInvalidStateError("route", d.ID().String(), state, "the route must be started first")
		}
		if to == delivery.PickedUp {
			err = d.PickUp(now)
		} else {
			err = d.StartTransit(now)
		}
		if err != nil {
			return nil, err
		}
		if err = deliveries.Update(ctx, d); err != nil {
			return nil, err
		}
		metrics.DeliveryTransition(to.String())

	case delivery.Pending, delivery.Cancelled:
		if to == delivery.Pending {
			err = d.Release(now)
		} else {
			err = d.Cancel(cmd.Reason(), now)
		}
		if err != nil {
			return nil, err
		}
		if rt != nil {
			if err = h.takeOffRoute(ctx, uow, rt, d, now); err != nil {
				return nil, err
			}
		}
		if err = deliveries.Update(ctx, d); err != nil {
			return nil, err
		}
		metrics.DeliveryTransition(to.String())

	default:
		return nil, errs.NewInvalidTransitionError("delivery", d.ID().String(), d.Status().String(), to.String())
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// takeOffRoute cancels the stop of a released or cancelled delivery.
func (h TransitionDeliveryCommandHandler) takeOffRoute(
	ctx context.Context,
	uow UoW,
	rt *route.Route,
	d *delivery.Delivery,
	now time.Time,
) error {
	changed, err := rt.CancelStop(d.ID(), now)
	if err != nil || !changed {
		return err
	}
	if err = uow.RouteRepository().Update(ctx, rt); err != nil {
		return err
	}
	return afterRouteChange(ctx, uow, rt, now)
}
