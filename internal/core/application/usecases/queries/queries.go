// Package queries contains read operations for retrieving system state.
// Queries run without a transaction against the repositories of a fresh
// unit of work and return domain aggregates or small read models.
package queries

import (
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type (
	Reader interface {
		DeliveryRepository() ports.DeliveryRepository
		DriverRepository() ports.DriverRepository
		RouteRepository() ports.RouteRepository
		CashRepository() ports.CashRepository
	}

	ReaderFactory interface {
		Create() Reader
	}
)

// ListResult is one page of a listing and the number of all matches.
type ListResult[T any] struct {
	Items []T
	Total int
}

// NewPage checks a limit/offset pair. A zero limit means DefaultLimit.
func NewPage(limit, offset int) (ports.Page, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return ports.Page{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxLimit)
	}
	if offset < 0 {
		return ports.Page{}, errs.NewValueIsOutOfRangeError("offset", offset, 0, "unbounded")
	}
	return ports.Page{Limit: limit, Offset: offset}, nil
}

func checkDateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return errs.NewValidationError("date_to", "date_to is before date_from")
	}
	return nil
}
