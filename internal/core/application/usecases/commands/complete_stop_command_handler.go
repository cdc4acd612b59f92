package commands

import (
	"context"

	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/retry"
)

// CompleteStopCommandHandler settles one stop. Repeating an outcome already recorded
// changes nothing; the route completes when its last open stop is settled.
type CompleteStopCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewCompleteStopCommandHandler(uowFactory UoWFactory, clock ports.Clock) CompleteStopCommandHandler {
	return CompleteStopCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h CompleteStopCommandHandler) Handle(ctx context.Context, cmd CompleteStopCommand) (*route.Route, error) {
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

func (h CompleteStopCommandHandler) handle(ctx context.Context, cmd CompleteStopCommand) (*route.Route, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	rt, err := uow.RouteRepository().Get(ctx, cmd.RouteID())
	if err != nil {
		return nil, err
	}
	if _, ok := rt.Stop(cmd.DeliveryID()); !ok {
		return nil, errs.NewValidationError(rt.ID().String(), "delivery "+cmd.DeliveryID().String()+" is not a stop of this route")
	}

	d, err := uow.DeliveryRepository().Get(ctx, cmd.DeliveryID())
	if err != nil {
		return nil, err
	}
	if !d.IsOnRoute(rt.ID()) {
		return nil, errs.NewInvalidStateError("delivery", d.ID().String(), d.Status().String(), "delivery is no longer on this route")
	}

	changed, err := settleStop(ctx, uow, rt, d, cmd.Outcome(), cmd.Reason(), cmd.CashCollected(), h.clock())
	if err != nil {
		return nil, err
	}
	if !changed {
		return rt, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return rt, nil
}
