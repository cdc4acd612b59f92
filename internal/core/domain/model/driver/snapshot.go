package driver

import (
	"errors"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Snapshot is the persisted form of a Driver.
type Snapshot struct {
	ID                   kernel.UUID
	UserID               kernel.UUID
	Name                 string
	Phone                string
	VehicleType          VehicleType
	VehiclePlate         string
	MaxCapacityKg        float64
	Zones                []kernel.Zone
	Status               Status
	Rating               decimal.Decimal
	TotalDeliveries      int
	SuccessfulDeliveries int
	Location             *kernel.Location
	LocationAddress      string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Version              int64
}

func (d *Driver) Snapshot() Snapshot {
	var loc *kernel.Location
	if d.location != nil {
		l := *d.location
		loc = &l
	}
	return Snapshot{
		ID:                   d.id,
		UserID:               d.userID,
		Name:                 d.name,
		Phone:                d.phone,
		VehicleType:          d.vehicleType,
		VehiclePlate:         d.vehiclePlate,
		MaxCapacityKg:        d.maxCapacityKg,
		Zones:                slices.Clone(d.zones),
		Status:               d.status,
		Rating:               d.rating,
		TotalDeliveries:      d.totalDeliveries,
		SuccessfulDeliveries: d.successfulDeliveries,
		Location:             loc,
		LocationAddress:      d.locationAddress,
		CreatedAt:            d.createdAt,
		UpdatedAt:            d.updatedAt,
		Version:              d.version,
	}
}

func Restore(s Snapshot) (*Driver, error) {
	d := &Driver{
		id:                   s.ID,
		userID:               s.UserID,
		name:                 s.Name,
		status:               s.Status,
		rating:               s.Rating,
		totalDeliveries:      s.TotalDeliveries,
		successfulDeliveries: s.SuccessfulDeliveries,
		locationAddress:      s.LocationAddress,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
		version:              s.Version,
		isConstructed:        true,
	}
	if s.Location != nil {
		l := *s.Location
		d.location = &l
	}

	var ratingErr, countersErr error
	if s.Rating.LessThan(MinRating) || s.Rating.GreaterThan(MaxRating) {
		ratingErr = errs.NewValueIsOutOfRangeError("rating", s.Rating.String(), MinRating.String(), MaxRating.String())
	}
	if s.SuccessfulDeliveries > s.TotalDeliveries || s.SuccessfulDeliveries < 0 {
		countersErr = errs.NewValueIsInvalidError("successful deliveries exceed total deliveries")
	}

	if err := errors.Join(
		s.ID.Validate(),
		s.UserID.Validate(),
		s.Status.Validate(),
		d.SetPhone(s.Phone),
		d.SetVehicle(s.VehicleType, s.VehiclePlate),
		d.SetMaxCapacity(s.MaxCapacityKg),
		d.SetZones(s.Zones),
		ratingErr,
		countersErr,
	); err != nil {
		return nil, err
	}
	return d, nil
}
