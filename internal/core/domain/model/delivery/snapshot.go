package delivery

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Snapshot is the persisted form of a Delivery, used by storage adapters.
type Snapshot struct {
	ID                 kernel.UUID
	Order              OrderRef
	Number             string
	Status             Status
	Priority           Priority
	Address            Address
	DriverID           *kernel.UUID
	RouteID            *kernel.UUID
	EstimatedAt        *time.Time
	DeliveredAt        *time.Time
	CashCollected      *int64
	CancellationReason string
	FailureReason      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
}

func (d *Delivery) Snapshot() Snapshot {
	return Snapshot{
		ID:                 d.id,
		Order:              d.order,
		Number:             d.number,
		Status:             d.status,
		Priority:           d.priority,
		Address:            d.address,
		DriverID:           copyID(d.driverID),
		RouteID:            copyID(d.routeID),
		EstimatedAt:        copyTime(d.estimatedAt),
		DeliveredAt:        copyTime(d.deliveredAt),
		CashCollected:      copyInt(d.cashCollected),
		CancellationReason: d.cancellationReason,
		FailureReason:      d.failureReason,
		CreatedAt:          d.createdAt,
		UpdatedAt:          d.updatedAt,
		Version:            d.version,
	}
}

// Restore rebuilds a Delivery from storage, re-checking the invariants that tie
// status to driver and route references.
func Restore(s Snapshot) (*Delivery, error) {
	var numberErr, refErr error
	if s.Number == "" {
		numberErr = errs.NewValueIsRequiredError("delivery number")
	}
	onRoute := s.Status == Assigned || s.Status == PickedUp || s.Status == InTransit
	if onRoute && (s.DriverID == nil || s.RouteID == nil) {
		refErr = errs.NewValueIsInvalidError("a routed delivery needs driver and route references")
	}
	if s.Status == Pending && (s.DriverID != nil || s.RouteID != nil) {
		refErr = errs.NewValueIsInvalidError("a pending delivery cannot reference a driver or route")
	}

	if err := errors.Join(
		s.ID.Validate(),
		s.Order.Validate(),
		s.Address.Validate(),
		s.Status.Validate(),
		numberErr,
		refErr,
	); err != nil {
		return nil, err
	}

	return &Delivery{
		id:                 s.ID,
		order:              s.Order,
		number:             s.Number,
		status:             s.Status,
		priority:           s.Priority,
		address:            s.Address,
		driverID:           copyID(s.DriverID),
		routeID:            copyID(s.RouteID),
		estimatedAt:        copyTime(s.EstimatedAt),
		deliveredAt:        copyTime(s.DeliveredAt),
		cashCollected:      copyInt(s.CashCollected),
		cancellationReason: s.CancellationReason,
		failureReason:      s.FailureReason,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
		version:            s.Version,
		isConstructed:      true,
	}, nil
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
