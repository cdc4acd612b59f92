package memory

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var ErrNoTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return newUnitOfWork(f.store)
}

// UnitOfWork buffers writes until Commit. Outside Begin/Commit every write is
// committed immediately, like statements outside a database transaction.
// A UnitOfWork is not safe for concurrent use; the Store is.
type UnitOfWork struct {
	store *Store
	inTx  bool

	deliveries map[kernel.UUID]staged[delivery.Snapshot]
	drivers    map[kernel.UUID]staged[driver.Snapshot]
	routes     map[kernel.UUID]staged[route.Snapshot]
	records    map[kernel.UUID]staged[cash.Snapshot]
	entries    []cash.Entry
}

func newUnitOfWork(store *Store) *UnitOfWork {
	u := &UnitOfWork{store: store}
	u.reset()
	return u
}

func (u *UnitOfWork) reset() {
	u.deliveries = make(map[kernel.UUID]staged[delivery.Snapshot])
	u.drivers = make(map[kernel.UUID]staged[driver.Snapshot])
	u.routes = make(map[kernel.UUID]staged[route.Snapshot])
	u.records = make(map[kernel.UUID]staged[cash.Snapshot])
	u.entries = nil
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.inTx = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.inTx {
		return ErrNoTransaction
	}
	u.inTx = false
	defer u.reset()
	return u.flush()
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.inTx {
		return ErrNoTransaction
	}
	u.inTx = false
	u.reset()
	return nil
}

func (u *UnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	return &DeliveryRepository{uow: u}
}

func (u *UnitOfWork) DriverRepository() ports.DriverRepository {
	return &DriverRepository{uow: u}
}

func (u *UnitOfWork) RouteRepository() ports.RouteRepository {
	return &RouteRepository{uow: u}
}

func (u *UnitOfWork) CashRepository() ports.CashRepository {
	return &CashRepository{uow: u}
}

// autocommit flushes a single write made outside a transaction.
func (u *UnitOfWork) autocommit() error {
	if u.inTx {
		return nil
	}
	defer u.reset()
	return u.flush()
}

// flush validates every staged write against committed state and applies all of them, or none.
func (u *UnitOfWork) flush() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := u.checkDeliveries(); err != nil {
		return err
	}
	if err := checkVersions("driver", s.drivers, u.drivers, func(d driver.Snapshot) int64 { return d.Version }); err != nil {
		return err
	}
	if err := u.checkRoutes(); err != nil {
		return err
	}
	if err := u.checkCash(); err != nil {
		return err
	}

	for id, st := range u.deliveries {
		s.deliveries[id] = st.snap
	}
	for id, st := range u.drivers {
		s.drivers[id] = st.snap
	}
	for id, st := range u.routes {
		s.routes[id] = st.snap
	}
	for id, st := range u.records {
		if committed, ok := s.records[id]; ok {
			st.snap.Entries = committed.Entries
		}
		s.records[id] = st.snap
	}
	for _, e := range u.entries {
		rec := s.records[e.RecordID]
		rec.Entries = append(rec.Entries, e)
		s.records[e.RecordID] = rec
	}
	return nil
}

func checkVersions[T any](entity string, committed map[kernel.UUID]T, pending map[kernel.UUID]staged[T], version func(T) int64) error {
	for id, st := range pending {
		current, exists := committed[id]
		switch {
		case st.isNew && exists:
			return errs.NewConcurrentModificationError(entity, id.String())
		case !st.isNew && !exists:
			return errs.NewObjectNotFoundError(entity, id.String())
		case !st.isNew && version(current) != st.base:
			return errs.NewConcurrentModificationError(entity, id.String())
		}
	}
	return nil
}

func (u *UnitOfWork) checkDeliveries() error {
	s := u.store
	if err := checkVersions("delivery", s.deliveries, u.deliveries, func(d delivery.Snapshot) int64 { return d.Version }); err != nil {
		return err
	}

	for id, st := range u.deliveries {
		if !st.isNew {
			continue
		}
		for otherID, other := range s.deliveries {
			if otherID == id {
				continue
			}
			if other.Number == st.snap.Number {
				return errs.NewConcurrentModificationError("delivery", st.snap.Number)
			}
			if other.Status != delivery.Cancelled && other.Order.OrderID() == st.snap.Order.OrderID() {
				return errs.NewValidationError(id.String(), fmt.Sprintf("order %s already has a delivery", st.snap.Order.OrderID()))
			}
		}
	}
	return nil
}

func (u *UnitOfWork) checkRoutes() error {
	s := u.store
	if err := checkVersions("route", s.routes, u.routes, func(r route.Snapshot) int64 { return r.Version }); err != nil {
		return err
	}

	// a delivery can have a pending stop on one route only
	pendingStops := make(map[kernel.UUID]kernel.UUID)
	for id, r := range overlay(s.routes, u.routes) {
		for _, stop := range r.Stops {
			if stop.Status != route.StopPending {
				continue
			}
			if owner, dup := pendingStops[stop.DeliveryID]; dup && owner != id {
				return errs.NewConcurrentModificationError("delivery", stop.DeliveryID.String())
			}
			pendingStops[stop.DeliveryID] = id
		}
	}
	return nil
}

func (u *UnitOfWork) checkCash() error {
	s := u.store
	if err := checkVersions("cash record", s.records, u.records, func(r cash.Snapshot) int64 { return r.Version }); err != nil {
		return err
	}

	for id, st := range u.records {
		if !st.isNew {
			continue
		}
		for otherID, other := range s.records {
			if otherID != id && other.DriverID == st.snap.DriverID && other.Date.Equal(st.snap.Date) {
				return errs.NewConcurrentModificationError("cash record", id.String())
			}
		}
	}

	for _, e := range u.entries {
		rec, ok := s.records[e.RecordID]
		if !ok {
			return errs.NewObjectNotFoundError("cash record", e.RecordID.String())
		}
		for _, existing := range rec.Entries {
			if existing.DeliveryID == e.DeliveryID {
				return errs.NewValidationError(e.DeliveryID.String(), "cash for this delivery is already recorded")
			}
		}
	}
	return nil
}
