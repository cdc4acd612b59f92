package commands

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/retry"
)

// CreateDeliveryCommandHandler adds a pending delivery to the ledger. An order can
// have one live delivery; a new one is accepted only after the previous was cancelled.
type CreateDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	zones      services.ZoneResolver
	clock      ports.Clock
}

func NewCreateDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	zones services.ZoneResolver,
	clock ports.Clock,
) CreateDeliveryCommandHandler {
	return CreateDeliveryCommandHandler{
		uowFactory: uowFactory,
		zones:      zones,
		clock:      clock,
	}
}

func (h CreateDeliveryCommandHandler) Handle(ctx context.Context, cmd CreateDeliveryCommand) (*delivery.Delivery, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// a retry draws a new id, so a delivery number collision is not repeated
	var result *delivery.Delivery
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		d, err := h.handle(ctx, cmd)
		result = d
		return err
	})
	return result, err
}

func (h CreateDeliveryCommandHandler) handle(ctx context.Context, cmd CreateDeliveryCommand) (*delivery.Delivery, error) {
	zone := kernel.Zone(cmd.Zone())
	if zone == "" {
		zone = h.zones.Resolve(cmd.Location())
	}

	address, err := delivery.NewAddress(cmd.AddressText(), cmd.Location(), zone)
	if err != nil {
		return nil, err
	}
	d, err := delivery.NewDelivery(cmd.Order(), address, cmd.Priority(), h.clock())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()
	exists, err := repo.ExistsActiveForOrder(ctx, cmd.Order().OrderID())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.NewValidationError(cmd.Order().OrderID().String(),
			fmt.Sprintf("order %s already has a delivery", cmd.Order().OrderID()))
	}

	if err = repo.Add(ctx, d); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return d, nil
}
