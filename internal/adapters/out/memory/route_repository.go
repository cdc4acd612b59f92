package memory

import (
	"context"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type RouteRepository struct {
	uow *UnitOfWork
}

func (r *RouteRepository) Add(_ context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	r.uow.routes[aggregate.ID()] = staged[route.Snapshot]{snap: aggregate.Snapshot(), isNew: true}
	return r.uow.autocommit()
}

func (r *RouteRepository) Update(_ context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	st, ok := r.uow.routes[id]
	if !ok {
		committed, exists := r.committed(id)
		if !exists {
			return errs.NewObjectNotFoundError("route", id.String())
		}
		st = staged[route.Snapshot]{snap: committed, base: committed.Version}
	}
	if st.snap.Version != aggregate.Version() {
		return errs.NewConcurrentModificationError("route", id.String())
	}

	aggregate.NextVersion()
	st.snap = aggregate.Snapshot()
	r.uow.routes[id] = st
	return r.uow.autocommit()
}

func (r *RouteRepository) Get(_ context.Context, id kernel.UUID) (*route.Route, error) {
	if st, ok := r.uow.routes[id]; ok {
		return route.Restore(st.snap)
	}
	snap, ok := r.committed(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("route", id.String())
	}
	return route.Restore(snap)
}

func (r *RouteRepository) ListByDate(_ context.Context, date time.Time, statuses ...route.Status) ([]*route.Route, error) {
	day := kernel.DateOf(date)
	matches := make([]route.Snapshot, 0)
	for _, rt := range r.view() {
		if !rt.Date.Equal(day) {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, rt.Status) {
			continue
		}
		matches = append(matches, rt)
	}
	slices.SortFunc(matches, func(a, b route.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return restoreRoutes(matches)
}

func (r *RouteRepository) List(_ context.Context, filter ports.RouteFilter) ([]*route.Route, int, error) {
	matches := make([]route.Snapshot, 0)
	for _, rt := range r.view() {
		if filter.Date != nil && !rt.Date.Equal(kernel.DateOf(*filter.Date)) {
			continue
		}
		if filter.Status != nil && rt.Status != *filter.Status {
			continue
		}
		if filter.DriverID != nil && rt.DriverID != *filter.DriverID {
			continue
		}
		matches = append(matches, rt)
	}
	slices.SortFunc(matches, func(a, b route.Snapshot) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})

	page, err := restoreRoutes(paginate(matches, filter.Page.Limit, filter.Page.Offset))
	return page, len(matches), err
}

func (r *RouteRepository) HasLiveRoute(_ context.Context, driverID kernel.UUID, exclude kernel.UUID) (bool, error) {
	for id, rt := range r.view() {
		if id == exclude || rt.DriverID != driverID {
			continue
		}
		if rt.Status == route.Planned || rt.Status == route.Active {
			return true, nil
		}
	}
	return false, nil
}

func (r *RouteRepository) committed(id kernel.UUID) (route.Snapshot, bool) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	snap, ok := r.uow.store.routes[id]
	return snap, ok
}

func (r *RouteRepository) view() map[kernel.UUID]route.Snapshot {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return overlay(r.uow.store.routes, r.uow.routes)
}

func restoreRoutes(snaps []route.Snapshot) ([]*route.Route, error) {
	out := make([]*route.Route, 0, len(snaps))
	for _, s := range snaps {
		rt, err := route.Restore(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}
