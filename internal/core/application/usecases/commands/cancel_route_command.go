package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCancelRouteCommandIsNotConstructed = errors.New(
	"CancelRouteCommand must be created via NewCancelRouteCommand constructor",
)

const defaultCancellationReason = "route cancelled"

type CancelRouteCommand struct {
	routeID kernel.UUID
	reason  string

	guard guard.ConstructorGuard
}

func NewCancelRouteCommand(routeID kernel.UUID, reason string) (CancelRouteCommand, error) {
	if err := routeID.Validate(); err != nil {
		return CancelRouteCommand{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancellationReason
	}

	return CancelRouteCommand{
		routeID: routeID,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CancelRouteCommand) Validate() error {
	return c.guard.Validate(ErrCancelRouteCommandIsNotConstructed)
}

func (c CancelRouteCommand) RouteID() kernel.UUID {
	return c.routeID
}

func (c CancelRouteCommand) Reason() string {
	return c.reason
}
