package memory

import (
	"context"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

type CashRepository struct {
	uow *UnitOfWork
}

func (r *CashRepository) Add(_ context.Context, aggregate *cash.Record) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	r.uow.records[aggregate.ID()] = staged[cash.Snapshot]{snap: aggregate.Snapshot(), isNew: true}
	return r.uow.autocommit()
}

func (r *CashRepository) AddEntry(_ context.Context, entry cash.Entry) error {
	if st, ok := r.uow.records[entry.RecordID]; ok && st.isNew {
		if !slices.ContainsFunc(st.snap.Entries, func(e cash.Entry) bool { return e.ID == entry.ID }) {
			st.snap.Entries = append(st.snap.Entries, entry)
			r.uow.records[entry.RecordID] = st
		}
		return r.uow.autocommit()
	}
	r.uow.entries = append(r.uow.entries, entry)
	return r.uow.autocommit()
}

func (r *CashRepository) Update(_ context.Context, aggregate *cash.Record) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	st, ok := r.uow.records[id]
	if !ok {
		committed, exists := r.committed(id)
		if !exists {
			return errs.NewObjectNotFoundError("cash record", id.String())
		}
		st = staged[cash.Snapshot]{snap: committed, base: committed.Version}
	}
	if st.snap.Version != aggregate.Version() {
		return errs.NewConcurrentModificationError("cash record", id.String())
	}

	aggregate.NextVersion()
	st.snap = aggregate.Snapshot()
	r.uow.records[id] = st
	return r.uow.autocommit()
}

func (r *CashRepository) Get(_ context.Context, id kernel.UUID) (*cash.Record, error) {
	snap, ok := r.view()[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("cash record", id.String())
	}
	return cash.Restore(snap)
}

func (r *CashRepository) GetByDriverDate(_ context.Context, driverID kernel.UUID, date time.Time) (*cash.Record, error) {
	day := kernel.DateOf(date)
	for _, rec := range r.view() {
		if rec.DriverID == driverID && rec.Date.Equal(day) {
			return cash.Restore(rec)
		}
	}
	return nil, errs.NewObjectNotFoundError("cash record", driverID.String()+"@"+kernel.FormatDate(day))
}

func (r *CashRepository) ListByDate(_ context.Context, date time.Time, driverID *kernel.UUID) ([]*cash.Record, error) {
	day := kernel.DateOf(date)
	matches := make([]cash.Snapshot, 0)
	for _, rec := range r.view() {
		if !rec.Date.Equal(day) {
			continue
		}
		if driverID != nil && rec.DriverID != *driverID {
			continue
		}
		matches = append(matches, rec)
	}
	slices.SortFunc(matches, func(a, b cash.Snapshot) int { return a.DriverID.Compare(b.DriverID) })

	out := make([]*cash.Record, 0, len(matches))
	for _, s := range matches {
		rec, err := cash.Restore(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *CashRepository) committed(id kernel.UUID) (cash.Snapshot, bool) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	snap, ok := r.uow.store.records[id]
	return snap, ok
}

// view overlays staged records and entries on committed records.
func (r *CashRepository) view() map[kernel.UUID]cash.Snapshot {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()

	out := make(map[kernel.UUID]cash.Snapshot, len(r.uow.store.records))
	for id, rec := range r.uow.store.records {
		rec.Entries = slices.Clone(rec.Entries)
		out[id] = rec
	}
	for id, st := range r.uow.records {
		snap := st.snap
		if committed, ok := r.uow.store.records[id]; ok {
			snap.Entries = slices.Clone(committed.Entries)
		}
		out[id] = snap
	}
	for _, e := range r.uow.entries {
		if rec, ok := out[e.RecordID]; ok {
			rec.Entries = append(rec.Entries, e)
			out[e.RecordID] = rec
		}
	}
	return out
}
