package cash

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

type Snapshot struct {
	ID          kernel.UUID
	Date        time.Time
	DriverID    kernel.UUID
	RouteID     *kernel.UUID
	Entries     []Entry
	Closed      bool
	Override    bool
	ClosingNote string
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		ID:          r.id,
		Date:        r.date,
		DriverID:    r.driverID,
		RouteID:     copyID(r.routeID),
		Entries:     r.Entries(),
		Closed:      r.closed,
		Override:    r.override,
		ClosingNote: r.closingNote,
		ClosedAt:    copyTime(r.closedAt),
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
		Version:     r.version,
	}
}

func Restore(s Snapshot) (*Record, error) {
	var problems []error
	seen := make(map[kernel.UUID]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		if _, dup := seen[e.DeliveryID]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("entries",
				fmt.Errorf("delivery %s is recorded twice", e.DeliveryID)))
		}
		seen[e.DeliveryID] = struct{}{}
		if e.Amount < 0 {
			problems = append(problems, errs.NewValueIsInvalidError("entry amount"))
		}
	}
	if s.Closed != (s.ClosedAt != nil) {
		problems = append(problems, errs.NewValueIsInvalidError("closed_at must be set exactly when the record is closed"))
	}

	if err := errors.Join(append(problems, s.ID.Validate(), s.DriverID.Validate())...); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(s.Entries))
	copy(entries, s.Entries)

	return &Record{
		id:            s.ID,
		date:          kernel.DateOf(s.Date),
		driverID:      s.DriverID,
		routeID:       copyID(s.RouteID),
		entries:       entries,
		closed:        s.Closed,
		override:      s.Override,
		closingNote:   s.ClosingNote,
		closedAt:      copyTime(s.ClosedAt),
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		version:       s.Version,
		isConstructed: true,
	}, nil
}
