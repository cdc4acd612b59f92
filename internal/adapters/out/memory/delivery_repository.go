package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type DeliveryRepository struct {
	uow *UnitOfWork
}

func (r *DeliveryRepository) Add(_ context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	r.uow.deliveries[aggregate.ID()] = staged[delivery.Snapshot]{snap: aggregate.Snapshot(), isNew: true}
	return r.uow.autocommit()
}

func (r *DeliveryRepository) Update(_ context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	st, ok := r.uow.deliveries[id]
	if !ok {
		committed, exists := r.committed(id)
		if !exists {
			return errs.NewObjectNotFoundError("delivery", id.String())
		}
		st = staged[delivery.Snapshot]{snap: committed, base: committed.Version}
	}
	if st.snap.Version != aggregate.Version() {
		return errs.NewConcurrentModificationError("delivery", id.String())
	}

	aggregate.NextVersion()
	st.snap = aggregate.Snapshot()
	r.uow.deliveries[id] = st
	return r.uow.autocommit()
}

func (r *DeliveryRepository) Get(_ context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if st, ok := r.uow.deliveries[id]; ok {
		return delivery.Restore(st.snap)
	}
	snap, ok := r.committed(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("delivery", id.String())
	}
	return delivery.Restore(snap)
}

func (r *DeliveryRepository) ExistsActiveForOrder(_ context.Context, orderID kernel.UUID) (bool, error) {
	for _, d := range r.view() {
		if d.Order.OrderID() == orderID && d.Status != delivery.Cancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *DeliveryRepository) ListPending(_ context.Context, filter ports.PendingFilter) ([]*delivery.Delivery, error) {
	day := kernel.DateOf(filter.Date)
	matches := make([]delivery.Snapshot, 0)
	for _, d := range r.view() {
		if d.Status != delivery.Pending || !kernel.DateOf(d.Order.Date()).Equal(day) {
			continue
		}
		if filter.Zone != nil && d.Address.Zone() != *filter.Zone {
			continue
		}
		if filter.AfterNumber != "" && d.Number <= filter.AfterNumber {
			continue
		}
		matches = append(matches, d)
	}
	slices.SortFunc(matches, func(a, b delivery.Snapshot) int { return cmp.Compare(a.Number, b.Number) })
	return restoreDeliveries(paginate(matches, filter.Limit, 0))
}

func (r *DeliveryRepository) List(_ context.Context, filter ports.DeliveryFilter) ([]*delivery.Delivery, int, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matches := make([]delivery.Snapshot, 0)
	for _, d := range r.view() {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, d.Status) {
			continue
		}
		if filter.DriverID != nil && (d.DriverID == nil || *d.DriverID != *filter.DriverID) {
			continue
		}
		if !inDateRange(d.Order.Date(), filter.DateFrom, filter.DateTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Number), search) &&
			!strings.Contains(strings.ToLower(d.Address.Text()), search) {
			continue
		}
		matches = append(matches, d)
	}
	slices.SortFunc(matches, func(a, b delivery.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Number, a.Number)
	})

	page, err := restoreDeliveries(paginate(matches, filter.Page.Limit, filter.Page.Offset))
	return page, len(matches), err
}

func (r *DeliveryRepository) Stats(_ context.Context, filter ports.StatsFilter) (ports.DeliveryStats, error) {
	stats := ports.DeliveryStats{ByStatus: make(map[delivery.Status]int)}
	for _, d := range r.view() {
		if filter.DriverID != nil && (d.DriverID == nil || *d.DriverID != *filter.DriverID) {
			continue
		}
		if !inDateRange(d.Order.Date(), filter.DateFrom, filter.DateTo) {
			continue
		}

		stats.Total++
		stats.ByStatus[d.Status]++
		if d.Status != delivery.Delivered {
			continue
		}
		if d.CashCollected != nil {
			stats.CashCollected += *d.CashCollected
		}
		if d.EstimatedAt != nil && d.DeliveredAt != nil {
			stats.WithEstimate++
			if !d.DeliveredAt.After(*d.EstimatedAt) {
				stats.OnTime++
			}
		}
	}
	return stats, nil
}

func (r *DeliveryRepository) ExpectedCash(_ context.Context, driverID kernel.UUID, date time.Time) (int64, error) {
	day := kernel.DateOf(date)
	var sum int64
	for _, d := range r.view() {
		if d.Status == delivery.Delivered && d.Order.IsCash() &&
			d.DriverID != nil && *d.DriverID == driverID &&
			kernel.DateOf(d.Order.Date()).Equal(day) {
			sum += d.Order.Total()
		}
	}
	return sum, nil
}

func (r *DeliveryRepository) committed(id kernel.UUID) (delivery.Snapshot, bool) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	snap, ok := r.uow.store.deliveries[id]
	return snap, ok
}

func (r *DeliveryRepository) view() map[kernel.UUID]delivery.Snapshot {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return overlay(r.uow.store.deliveries, r.uow.deliveries)
}

func restoreDeliveries(snaps []delivery.Snapshot) ([]*delivery.Delivery, error) {
	out := make([]*delivery.Delivery, 0, len(snaps))
	for _, s := range snaps {
		d, err := delivery.Restore(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func inDateRange(t time.Time, from, to *time.Time) bool {
	day := kernel.DateOf(t)
	if from != nil && day.Before(kernel.DateOf(*from)) {
		return false
	}
	if to != nil && day.After(kernel.DateOf(*to)) {
		return false
	}
	return true
}
