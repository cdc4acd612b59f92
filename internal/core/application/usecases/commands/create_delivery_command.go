package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateDeliveryCommandIsNotConstructed = errors.New(
	"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
)

// CreateDeliveryCommand registers the delivery of one order in the ledger.
//
// Example:
//
//	ref, _ := delivery.NewOrderRef(orderID, orderDate, 12500, delivery.Cash, 3.2)
//	cmd, err := NewCreateDeliveryCommand(ref, "12 Harbour St", kernel.MustNewLocation(52.52, 13.40), "", delivery.Normal)
//	if err != nil {
//	    return fmt.Errorf("invalid delivery: %w", err)
//	}
//	d, err := handler.Handle(ctx, cmd)
type CreateDeliveryCommand struct { //nolint:recvcheck //using for validation
	order       delivery.OrderRef
	addressText string
	location    kernel.Location
	zone        string
	priority    delivery.Priority

	guard guard.ConstructorGuard
}

// NewCreateDeliveryCommand validates the input. zone may be empty, in which case
// the handler derives it from the location.
func NewCreateDeliveryCommand(
	order delivery.OrderRef,
	addressText string,
	location kernel.Location,
	zone string,
	priority delivery.Priority,
) (CreateDeliveryCommand, error) {
	command := CreateDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrder(order),
		command.setAddress(addressText, location),
		command.setZone(zone),
		command.setPriority(priority),
	); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return command, nil
}

func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

func (c CreateDeliveryCommand) Order() delivery.OrderRef {
	return c.order
}

func (c CreateDeliveryCommand) AddressText() string {
	return c.addressText
}

func (c CreateDeliveryCommand) Location() kernel.Location {
	return c.location
}

// Zone is empty when the zone has to be resolved from the location.
func (c CreateDeliveryCommand) Zone() string {
	return c.zone
}

func (c CreateDeliveryCommand) Priority() delivery.Priority {
	return c.priority
}

func (c *CreateDeliveryCommand) setOrder(order delivery.OrderRef) error {
	if err := order.Validate(); err != nil {
		return err
	}
	c.order = order
	return nil
}

func (c *CreateDeliveryCommand) setAddress(text string, location kernel.Location) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValidationError(c.order.OrderID().String(), "delivery address is required")
	}
	if err := location.Validate(); err != nil {
		return err
	}
	c.addressText = text
	c.location = location
	return nil
}

func (c *CreateDeliveryCommand) setZone(zone string) error {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil
	}
	z, err := kernel.NewZone(zone)
	if err != nil {
		return err
	}
	c.zone = z.String()
	return nil
}

func (c *CreateDeliveryCommand) setPriority(p delivery.Priority) error {
	valid, err := delivery.NewPriority(int(p))
	if err != nil {
		return err
	}
	c.priority = valid
	return nil
}
