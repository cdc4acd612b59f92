package queries

import (
	"context"
	"errors"
	"iter"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrListUnassignedQueryIsNotConstructed = errors.New(
	"ListUnassignedQuery must be created via NewListUnassignedQuery constructor",
)

const defaultUnassignedPageSize = 500

// ListUnassignedQuery selects the pending deliveries of an order date, optionally of one zone.
type ListUnassignedQuery struct {
	date time.Time
	zone *kernel.Zone

	guard guard.ConstructorGuard
}

func NewListUnassignedQuery(date time.Time, zone string) (ListUnassignedQuery, error) {
	if date.IsZero() {
		return ListUnassignedQuery{}, errs.NewValueIsRequiredError("date")
	}

	query := ListUnassignedQuery{
		date:  kernel.DateOf(date),
		guard: guard.NewConstructorGuard(),
	}
	if zone != "" {
		z, err := kernel.NewZone(zone)
		if err != nil {
			return ListUnassignedQuery{}, err
		}
		query.zone = &z
	}
	return query, nil
}

func (q ListUnassignedQuery) Validate() error {
	return q.guard.Validate(ErrListUnassignedQueryIsNotConstructed)
}

func (q ListUnassignedQuery) Date() time.Time {
	return q.date
}

func (q ListUnassignedQuery) Zone() *kernel.Zone {
	return q.zone
}

// ListUnassignedQueryHandler streams pending deliveries in delivery number order.
// Storage is read one keyset page at a time, so the sequence stays cheap on large days.
type ListUnassignedQueryHandler struct {
	readers  ReaderFactory
	pageSize int
}

// NewListUnassignedQueryHandler uses a default page size when pageSize is not positive.
func NewListUnassignedQueryHandler(readers ReaderFactory, pageSize int) ListUnassignedQueryHandler {
	if pageSize <= 0 {
		pageSize = defaultUnassignedPageSize
	}
	return ListUnassignedQueryHandler{readers: readers, pageSize: pageSize}
}

// Handle returns a lazy sequence. Ranging over it again restarts from the first page.
// An error is yielded once and ends the sequence.
func (h ListUnassignedQueryHandler) Handle(ctx context.Context, query ListUnassignedQuery) iter.Seq2[*delivery.Delivery, error] {
	return func(yield func(*delivery.Delivery, error) bool) {
		if err := query.Validate(); err != nil {
			yield(nil, err)
			return
		}

		repo := h.readers.Create().DeliveryRepository()
		filter := ports.PendingFilter{
			Date:  query.Date(),
			Zone:  query.Zone(),
			Limit: h.pageSize,
		}

		for {
			page, err := repo.ListPending(ctx, filter)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, d := range page {
				if !yield(d, nil) {
					return
				}
			}
			if len(page) < h.pageSize {
				return
			}
			filter.AfterNumber = page[len(page)-1].Number()
		}
	}
}
