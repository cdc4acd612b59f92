package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/pkg/guard"
)

var ErrCreateDriverCommandIsNotConstructed = errors.New(
	"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
)

// CreateDriverCommand onboards a driver. Field validation happens when the aggregate
// is built, so the command only carries the profile.
type CreateDriverCommand struct {
	profile driver.Profile

	guard guard.ConstructorGuard
}

func NewCreateDriverCommand(profile driver.Profile) (CreateDriverCommand, error) {
	if err := profile.UserID.Validate(); err != nil {
		return CreateDriverCommand{}, err
	}
	return CreateDriverCommand{
		profile: profile,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

func (c CreateDriverCommand) Profile() driver.Profile {
	return c.profile
}
