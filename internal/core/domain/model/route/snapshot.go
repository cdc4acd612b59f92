package route

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Snapshot is the persisted form of a Route.
type Snapshot struct {
	ID                  kernel.UUID
	Date                time.Time
	Name                string
	DriverID            kernel.UUID
	Stops               []Stop
	Status              Status
	TotalDistanceM      int
	EstimatedDurationS  int
	ActualDurationS     *int
	StartTime           *time.Time
	EndTime             *time.Time
	CompletedDeliveries int
	TotalDeliveries     int
	CancellationReason  string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

func (r *Route) Snapshot() Snapshot {
	return Snapshot{
		ID:                  r.id,
		Date:                r.date,
		Name:                r.name,
		DriverID:            r.driverID,
		Stops:               r.Stops(),
		Status:              r.status,
		TotalDistanceM:      r.totalDistanceM,
		EstimatedDurationS:  r.estimatedDurationS,
		ActualDurationS:     copyInt(r.actualDurationS),
		StartTime:           copyTime(r.startTime),
		EndTime:             copyTime(r.endTime),
		CompletedDeliveries: r.completedDeliveries,
		TotalDeliveries:     r.totalDeliveries,
		CancellationReason:  r.cancellationReason,
		CreatedAt:           r.createdAt,
		UpdatedAt:           r.updatedAt,
		Version:             r.version,
	}
}

func Restore(s Snapshot) (*Route, error) {
	stops := make([]Stop, len(s.Stops))
	for i, st := range s.Stops {
		stops[i] = st.clone()
	}

	var totalErr error
	if s.TotalDeliveries != len(stops) {
		totalErr = errs.NewValueIsInvalidError("total deliveries must equal the number of stops")
	}

	if err := errors.Join(
		s.ID.Validate(),
		s.DriverID.Validate(),
		s.Status.Validate(),
		validateStops(stops),
		totalErr,
	); err != nil {
		return nil, err
	}

	return &Route{
		id:                  s.ID,
		date:                kernel.DateOf(s.Date),
		name:                s.Name,
		driverID:            s.DriverID,
		stops:               stops,
		status:              s.Status,
		totalDistanceM:      s.TotalDistanceM,
		estimatedDurationS:  s.EstimatedDurationS,
		actualDurationS:     copyInt(s.ActualDurationS),
		startTime:           copyTime(s.StartTime),
		endTime:             copyTime(s.EndTime),
		completedDeliveries: s.CompletedDeliveries,
		totalDeliveries:     s.TotalDeliveries,
		cancellationReason:  s.CancellationReason,
		createdAt:           s.CreatedAt,
		updatedAt:           s.UpdatedAt,
		version:             s.Version,
		isConstructed:       true,
	}, nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
