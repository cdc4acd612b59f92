package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCompleteStopCommandIsNotConstructed = errors.New(
	"CompleteStopCommand must be created via NewCompleteStopCommand constructor",
)

// CompleteStopCommand reports the outcome of one stop of an active route.
// Cash may accompany a delivered outcome only.
type CompleteStopCommand struct {
	routeID       kernel.UUID
	deliveryID    kernel.UUID
	outcome       route.StopStatus
	reason        string
	cashCollected *int64

	guard guard.ConstructorGuard
}

func NewCompleteStopCommand(
	routeID kernel.UUID,
	deliveryID kernel.UUID,
	outcome route.StopStatus,
	reason string,
	cashCollected *int64,
) (CompleteStopCommand, error) {
	var outcomeErr error
	if outcome != route.StopDelivered && outcome != route.StopFailed {
		outcomeErr = errs.NewValueIsInvalidError("outcome")
	}

	var cashErr error
	if cashCollected != nil {
		if outcome != route.StopDelivered {
			cashErr = errs.NewValidationError(deliveryID.String(), "cash can only be collected on delivery")
		} else if *cashCollected < 0 {
			cashErr = errs.NewValidationError(deliveryID.String(), "cash collected cannot be negative")
		}
	}

	if err := errors.Join(routeID.Validate(), deliveryID.Validate(), outcomeErr, cashErr); err != nil {
		return CompleteStopCommand{}, err
	}

	command := CompleteStopCommand{
		routeID:    routeID,
		deliveryID: deliveryID,
		outcome:    outcome,
		reason:     strings.TrimSpace(reason),
		guard:      guard.NewConstructorGuard(),
	}
	if cashCollected != nil {
		amount := *cashCollected
		command.cashCollected = &amount
	}
	return command, nil
}

func (c CompleteStopCommand) Validate() error {
	return c.guard.Validate(ErrCompleteStopCommandIsNotConstructed)
}

func (c CompleteStopCommand) RouteID() kernel.UUID {
	return c.routeID
}

func (c CompleteStopCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

func (c CompleteStopCommand) Outcome() route.StopStatus {
	return c.outcome
}

func (c CompleteStopCommand) Reason() string {
	return c.reason
}

func (c CompleteStopCommand) CashCollected() *int64 {
	return c.cashCollected
}
