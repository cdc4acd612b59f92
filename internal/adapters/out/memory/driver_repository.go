package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type DriverRepository struct {
	uow *UnitOfWork
}

func (r *DriverRepository) Add(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	r.uow.drivers[aggregate.ID()] = staged[driver.Snapshot]{snap: aggregate.Snapshot(), isNew: true}
	return r.uow.autocommit()
}

func (r *DriverRepository) Update(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	st, ok := r.uow.drivers[id]
	if !ok {
		committed, exists := r.committed(id)
		if !exists {
			return errs.NewObjectNotFoundError("driver", id.String())
		}
		st = staged[driver.Snapshot]{snap: committed, base: committed.Version}
	}
	if st.snap.Version != aggregate.Version() {
		return errs.NewConcurrentModificationError("driver", id.String())
	}

	aggregate.NextVersion()
	st.snap = aggregate.Snapshot()
	r.uow.drivers[id] = st
	return r.uow.autocommit()
}

func (r *DriverRepository) Get(_ context.Context, id kernel.UUID) (*driver.Driver, error) {
	if st, ok := r.uow.drivers[id]; ok {
		return driver.Restore(st.snap)
	}
	snap, ok := r.committed(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("driver", id.String())
	}
	return driver.Restore(snap)
}

func (r *DriverRepository) List(_ context.Context, filter ports.DriverFilter) ([]*driver.Driver, int, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matches := make([]driver.Snapshot, 0)
	for _, d := range r.view() {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.Zone != nil && !slices.Contains(d.Zones, *filter.Zone) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(d.Phone), search) &&
			!strings.Contains(strings.ToLower(d.VehiclePlate), search) {
			continue
		}
		matches = append(matches, d)
	}
	slices.SortFunc(matches, func(a, b driver.Snapshot) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})

	page, err := restoreDrivers(paginate(matches, filter.Page.Limit, filter.Page.Offset))
	return page, len(matches), err
}

func (r *DriverRepository) ListByStatus(_ context.Context, statuses ...driver.Status) ([]*driver.Driver, error) {
	matches := make([]driver.Snapshot, 0)
	for _, d := range r.view() {
		if slices.Contains(statuses, d.Status) {
			matches = append(matches, d)
		}
	}
	slices.SortFunc(matches, func(a, b driver.Snapshot) int { return a.ID.Compare(b.ID) })
	return restoreDrivers(matches)
}

func (r *DriverRepository) committed(id kernel.UUID) (driver.Snapshot, bool) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	snap, ok := r.uow.store.drivers[id]
	return snap, ok
}

func (r *DriverRepository) view() map[kernel.UUID]driver.Snapshot {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return overlay(r.uow.store.drivers, r.uow.drivers)
}

func restoreDrivers(snaps []driver.Snapshot) ([]*driver.Driver, error) {
	out := make([]*driver.Driver, 0, len(snaps))
	for _, s := range snaps {
		d, err := driver.Restore(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
