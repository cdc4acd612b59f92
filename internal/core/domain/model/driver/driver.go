package driver

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or Restore")

const entityName = "driver"

// Driver is the aggregate root of the driver registry.
type Driver struct {
	id            kernel.UUID
	userID        kernel.UUID
	name          string
	phone         string
	vehicleType   VehicleType
	vehiclePlate  string
	maxCapacityKg float64
	zones         []kernel.Zone
	status        Status
	rating        decimal.Decimal

	totalDeliveries      int
	successfulDeliveries int

	location        *kernel.Location
	locationAddress string

	createdAt time.Time
	updatedAt time.Time
	version   int64

	isConstructed bool
}

// Profile groups the onboarding attributes of a driver.
type Profile struct {
	UserID        kernel.UUID
	Name          string
	Phone         string
	VehicleType   VehicleType
	VehiclePlate  string
	MaxCapacityKg float64
	Zones         []kernel.Zone
}

// NewDriver onboards an available driver with the default rating.
func NewDriver(p Profile, now time.Time) (*Driver, error) {
	d := &Driver{
		id:            kernel.NewUUID(),
		status:        Available,
		rating:        DefaultRating,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	var nameErr error
	if strings.TrimSpace(p.Name) == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	d.name = strings.TrimSpace(p.Name)
	d.userID = p.UserID

	if err := errors.Join(
		p.UserID.Validate(),
		nameErr,
		d.SetPhone(p.Phone),
		d.SetVehicle(p.VehicleType, p.VehiclePlate),
		d.SetMaxCapacity(p.MaxCapacityKg),
		d.SetZones(p.Zones),
	); err != nil {
		return nil, err
	}

	d.updatedAt = now.UTC()
	return d, nil
}

func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

func (d *Driver) ID() kernel.UUID {
	return d.id
}

func (d *Driver) UserID() kernel.UUID {
	return d.userID
}

func (d *Driver) Name() string {
	return d.name
}

func (d *Driver) Phone() string {
	return d.phone
}

func (d *Driver) VehicleType() VehicleType {
	return d.vehicleType
}

func (d *Driver) VehiclePlate() string {
	return d.vehiclePlate
}

func (d *Driver) MaxCapacityKg() float64 {
	return d.maxCapacityKg
}

// Zones returns a copy of the zone coverage, sorted.
func (d *Driver) Zones() []kernel.Zone {
	return slices.Clone(d.zones)
}

func (d *Driver) Status() Status {
	return d.status
}

// Rating is the moving average rounded to two places.
func (d *Driver) Rating() decimal.Decimal {
	return d.rating.Round(RatingDisplayPlaces)
}

func (d *Driver) TotalDeliveries() int {
	return d.totalDeliveries
}

func (d *Driver) SuccessfulDeliveries() int {
	return d.successfulDeliveries
}

func (d *Driver) Location() *kernel.Location {
	return d.location
}

func (d *Driver) LocationAddress() string {
	return d.locationAddress
}

func (d *Driver) CreatedAt() time.Time {
	return d.createdAt
}

func (d *Driver) UpdatedAt() time.Time {
	return d.updatedAt
}

func (d *Driver) Version() int64 {
	return d.version
}

func (d *Driver) NextVersion() {
	d.version++
}

func (d *Driver) Covers(zone kernel.Zone) bool {
	_, found := slices.BinarySearch(d.zones, zone)
	return found
}

// CanTakeRoute reports why the driver cannot start or receive a route, if anything.
func (d *Driver) CanTakeRoute() error {
	if d.status == Suspended || d.status == Offline {
		return errs.NewDriverUnavailableError(d.id.String(), d.status.String())
	}
	return nil
}

// MarkBusy is idempotent.
func (d *Driver) MarkBusy(now time.Time) error {
	if err := d.notSuspended("cannot be marked busy"); err != nil {
		return err
	}
	if d.status != Busy {
		d.status = Busy
		d.touch(now)
	}
	return nil
}

// MarkAvailable is idempotent.
func (d *Driver) MarkAvailable(now time.Time) error {
	if err := d.notSuspended("cannot be marked available"); err != nil {
		return err
	}
	if d.status != Available {
		d.status = Available
		d.touch(now)
	}
	return nil
}

func (d *Driver) GoOffline(now time.Time) error {
	if err := d.notSuspended("cannot go offline"); err != nil {
		return err
	}
	if d.status != Offline {
		d.status = Offline
		d.touch(now)
	}
	return nil
}

func (d *Driver) Suspend(now time.Time) {
	if d.status != Suspended {
		d.status = Suspended
		d.touch(now)
	}
}

// Reinstate lifts a suspension. The driver comes back available.
func (d *Driver) Reinstate(now time.Time) error {
	if d.status != Suspended {
		return errs.NewInvalidStateError(entityName, d.id.String(), d.status.String(), "only suspended drivers can be reinstated")
	}
	d.status = Available
	d.touch(now)
	return nil
}

// ChangeStatus applies an administrative status change.
func (d *Driver) ChangeStatus(to Status, now time.Time) error {
	if err := to.Validate(); err != nil {
		return err
	}

	switch to {
	case Suspended:
		d.Suspend(now)
		return nil
	case Available:
		if d.status == Suspended {
			return d.Reinstate(now)
		}
		return d.MarkAvailable(now)
	case Busy:
		return d.MarkBusy(now)
	case Offline:
		return d.GoOffline(now)
	default:
		return errs.NewValueIsInvalidErrorWithCause("driver status", fmt.Errorf("%s cannot be set", to))
	}
}

// RecordOutcome counts a finished stop and folds it into the rating.
func (d *Driver) RecordOutcome(success bool, now time.Time) {
	d.totalDeliveries++
	if success {
		d.successfulDeliveries++
	}
	d.rating = nextRating(d.rating, d.totalDeliveries, success)
	d.touch(now)
}

// SuccessRate is successful / total, zero for a driver without deliveries.
func (d *Driver) SuccessRate() float64 {
	if d.totalDeliveries == 0 {
		return 0
	}
	return float64(d.successfulDeliveries) / float64(d.totalDeliveries)
}

func (d *Driver) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	d.phone = phone
	return nil
}

func (d *Driver) SetVehicle(vehicle VehicleType, plate string) error {
	plate = strings.TrimSpace(plate)
	var plateErr error
	if plate == "" {
		plateErr = errs.NewValueIsRequiredError("vehicle plate")
	}
	if err := errors.Join(vehicle.Validate(), plateErr); err != nil {
		return err
	}
	d.vehicleType = vehicle
	d.vehiclePlate = strings.ToUpper(plate)
	return nil
}

func (d *Driver) SetMaxCapacity(kg float64) error {
	if kg <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("max capacity", fmt.Errorf("%g kg is not greater than 0", kg))
	}
	d.maxCapacityKg = kg
	return nil
}

// SetZones replaces the zone coverage. Duplicates are collapsed.
func (d *Driver) SetZones(zones []kernel.Zone) error {
	if len(zones) == 0 {
		return errs.NewValueIsRequiredError("zone coverage")
	}
	set := make([]kernel.Zone, 0, len(zones))
	for _, z := range zones {
		valid, err := kernel.NewZone(string(z))
		if err != nil {
			return err
		}
		set = append(set, valid)
	}
	slices.Sort(set)
	d.zones = slices.Compact(set)
	return nil
}

func (d *Driver) UpdateLocation(loc kernel.Location, address string, now time.Time) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	d.location = &loc
	d.locationAddress = strings.TrimSpace(address)
	d.touch(now)
	return nil
}

func (d *Driver) Touch(now time.Time) {
	d.touch(now)
}

func (d *Driver) notSuspended(action string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.status == Suspended {
		return errs.NewInvalidStateError(entityName, d.id.String(), d.status.String(), action)
	}
	return nil
}

func (d *Driver) touch(now time.Time) {
	d.updatedAt = now.UTC()
}
