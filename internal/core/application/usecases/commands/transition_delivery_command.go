package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrTransitionDeliveryCommandIsNotConstructed = errors.New(
	"TransitionDeliveryCommand must be created via NewTransitionDeliveryCommand constructor",
)

// TransitionDeliveryCommand moves a delivery along its state machine.
// Reason is kept for failed and cancelled deliveries; CashCollected only for delivered ones.
type TransitionDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID    kernel.UUID
	to            delivery.Status
	reason        string
	cashCollected *int64

	guard guard.ConstructorGuard
}

func NewTransitionDeliveryCommand(
	deliveryID kernel.UUID,
	to delivery.Status,
	reason string,
	cashCollected *int64,
) (TransitionDeliveryCommand, error) {
	command := TransitionDeliveryCommand{
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}

	var cashErr error
	if cashCollected != nil {
		if to != delivery.Delivered {
			cashErr = errs.NewValidationError(deliveryID.String(), "cash can only be collected on delivery")
		} else if *cashCollected < 0 {
			cashErr = errs.NewValidationError(deliveryID.String(), "cash collected cannot be negative")
		} else {
			amount := *cashCollected
			command.cashCollected = &amount
		}
	}

	if err := errors.Join(deliveryID.Validate(), to.Validate(), cashErr); err != nil {
		return TransitionDeliveryCommand{}, err
	}
	command.deliveryID = deliveryID
	command.to = to

	return command, nil
}

func (c TransitionDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrTransitionDeliveryCommandIsNotConstructed)
}

func (c TransitionDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c TransitionDeliveryCommand) To() delivery.Status {
	return c.to
}

func (c TransitionDeliveryCommand) Reason() string {
	return c.reason
}

func (c TransitionDeliveryCommand) CashCollected() *int64 {
	return c.cashCollected
}
