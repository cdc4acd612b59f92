package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"
)

// settleStop records a delivered or failed outcome on both the route stop and the
// delivery, books cash of a delivered cash-payment order and closes the route when it
// was the last open stop.
// It returns false when the stop already had this outcome.
func settleStop(
	ctx context.Context,
	uow UoW,
	rt *route.Route,
	d *delivery.Delivery,
	outcome route.StopStatus,
	reason string,
	collected *int64,
	now time.Time,
) (bool, error) {
	changed, err := rt.CompleteStop(d.ID(), outcome, now)
	if err != nil || !changed {
		return false, err
	}

	target := delivery.Delivered
	if outcome == route.StopFailed {
		target = delivery.Failed
	}
	if err = d.Settle(target, reason, collected, now); err != nil {
		return false, err
	}
	if err = uow.DeliveryRepository().Update(ctx, d); err != nil {
		return false, err
	}
	metrics.DeliveryTransition(target.String())

	if target == delivery.Delivered && d.Order().IsCash() {
		routeID := rt.ID()
		if err = appendCash(ctx, uow.CashRepository(), rt.DriverID(), d.Order().Date(), &routeID, d.ID(), d.CashCollected(), now); err != nil {
			return false, err
		}
	}

	if err = uow.RouteRepository().Update(ctx, rt); err != nil {
		return false, err
	}
	if err = afterRouteChange(ctx, uow, rt, now); err != nil {
		return false, err
	}
	return true, nil
}

// afterRouteChange releases the driver once the route reached a terminal status.
// A completed route also feeds every stop outcome into the driver's rating.
func afterRouteChange(ctx context.Context, uow UoW, rt *route.Route, now time.Time) error {
	if !rt.Status().IsTerminal() {
		return nil
	}
	metrics.RouteTransition(rt.Status().String())

	drivers := uow.DriverRepository()
	drv, err := drivers.Get(ctx, rt.DriverID())
	if err != nil {
		return err
	}

	if rt.Status() == route.Completed {
		for _, success := range rt.Outcomes() {
			drv.RecordOutcome(success, now)
		}
	}

	if err = releaseDriver(ctx, uow.RouteRepository(), drv, rt.ID(), now); err != nil {
		return err
	}
	return drivers.Update(ctx, drv)
}

// releaseDriver marks a busy driver available unless another live route still needs them.
func releaseDriver(ctx context.Context, routes ports.RouteRepository, drv *driver.Driver, finished kernel.UUID, now time.Time) error {
	if drv.Status() != driver.Busy {
		return nil
	}
	live, err := routes.HasLiveRoute(ctx, drv.ID(), finished)
	if err != nil || live {
		return err
	}
	return drv.MarkAvailable(now)
}

// appendCash adds one entry to the driver's record for date, creating the record on first use.
// A nil amount only opens the record, so cash owed but not reported still shows up in the
// daily summary.
func appendCash(
	ctx context.Context,
	repo ports.CashRepository,
	driverID kernel.UUID,
	date time.Time,
	routeID *kernel.UUID,
	deliveryID kernel.UUID,
	amount *int64,
	now time.Time,
) error {
	rec, err := repo.GetByDriverDate(ctx, driverID, date)
	if errs.IsNotFound(err) {
		if rec, err = cash.NewRecord(date, driverID, routeID, now); err != nil {
			return err
		}
		if amount != nil {
			if _, err = rec.Append(deliveryID, *amount, now); err != nil {
				return err
			}
		}
		return repo.Add(ctx, rec)
	}
	if err != nil || amount == nil {
		return err
	}

	entry, err := rec.Append(deliveryID, *amount, now)
	if err != nil {
		return err
	}
	return repo.AddEntry(ctx, entry)
}
