package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrStartRouteCommandIsNotConstructed = errors.New(
	"StartRouteCommand must be created via NewStartRouteCommand constructor",
)

type StartRouteCommand struct {
	routeID kernel.UUID

	guard guard.ConstructorGuard
}

func NewStartRouteCommand(routeID kernel.UUID) (StartRouteCommand, error) {
	if err := routeID.Validate(); err != nil {
		return StartRouteCommand{}, err
	}

	return StartRouteCommand{
		routeID: routeID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c StartRouteCommand) Validate() error {
	return c.guard.Validate(ErrStartRouteCommandIsNotConstructed)
}

func (c StartRouteCommand) RouteID() kernel.UUID {
	return c.routeID
}
