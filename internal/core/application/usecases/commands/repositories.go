package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	RouteRepoFactory interface {
		RouteRepository() ports.RouteRepository
	}

	CashRepoFactory interface {
		CashRepository() ports.CashRepository
	}

	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}

	DriverUoW interface {
		TxManager
		DriverRepoFactory
	}

	DriverUoWFactory interface {
		Create() DriverUoW
	}

	CashUoW interface {
		TxManager
		DeliveryRepoFactory
		CashRepoFactory
	}

	CashUoWFactory interface {
		Create() CashUoW
	}

	UoW interface {
		TxManager
		DeliveryRepoFactory
		DriverRepoFactory
		RouteRepoFactory
		CashRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
