package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or Restore")

const entityName = "delivery"

// Delivery is the aggregate root of the delivery ledger.
//
// Invariants:
//   - delivery number is unique and derived from the creation day and id
//   - an assigned, picked up or in transit delivery references both its driver and its route
//   - a pending delivery references neither
//   - terminal deliveries never change status again
//
// version is bumped by the repository on every successful update and is the
// compare-and-swap token for concurrent writers.
type Delivery struct {
	id       kernel.UUID
	order    OrderRef
	number   string
	status   Status
	priority Priority
	address  Address

	driverID *kernel.UUID
	routeID  *kernel.UUID

	estimatedAt *time.Time
	deliveredAt *time.Time

	cashCollected      *int64
	cancellationReason string
	failureReason      string

	createdAt time.Time
	updatedAt time.Time
	version   int64

	isConstructed bool
}

// NewDelivery creates a pending delivery for an order that is ready for dispatch.
func NewDelivery(order OrderRef, address Address, priority Priority, now time.Time) (*Delivery, error) {
	var priorityErr error
	if priority < Normal || priority > Urgent {
		priorityErr = errs.NewValueIsOutOfRangeError("priority", int(priority), int(Normal), int(Urgent))
	}
	if err := errors.Join(order.Validate(), address.Validate(), priorityErr); err != nil {
		return nil, err
	}

	id := kernel.NewUUID()
	now = now.UTC()

	return &Delivery{
		id:            id,
		order:         order,
		number:        Number(now, id),
		status:        Pending,
		priority:      priority,
		address:       address,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// Number formats the human readable delivery number DLV-YYYYMMDD-XXXXXXXX.
func Number(created time.Time, id kernel.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("DLV-%s-%s", created.UTC().Format("20060102"), strings.ToUpper(hex[:8]))
}

func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

func (d *Delivery) ID() kernel.UUID {
	return d.id
}

func (d *Delivery) Order() OrderRef {
	return d.order
}

func (d *Delivery) Number() string {
	return d.number
}

func (d *Delivery) Status() Status {
	return d.status
}

func (d *Delivery) Priority() Priority {
	return d.priority
}

func (d *Delivery) Address() Address {
	return d.address
}

func (d *Delivery) DriverID() *kernel.UUID {
	return d.driverID
}

func (d *Delivery) RouteID() *kernel.UUID {
	return d.routeID
}

func (d *Delivery) EstimatedAt() *time.Time {
	return d.estimatedAt
}

func (d *Delivery) DeliveredAt() *time.Time {
	return d.deliveredAt
}

func (d *Delivery) CashCollected() *int64 {
	return d.cashCollected
}

func (d *Delivery) CancellationReason() string {
	return d.cancellationReason
}

func (d *Delivery) FailureReason() string {
	return d.failureReason
}

func (d *Delivery) CreatedAt() time.Time {
	return d.createdAt
}

func (d *Delivery) UpdatedAt() time.Time {
	return d.updatedAt
}

func (d *Delivery) Version() int64 {
	return d.version
}

func (d *Delivery) WeightKg() float64 {
	return d.order.WeightKg()
}

func (d *Delivery) Zone() kernel.Zone {
	return d.address.Zone()
}

func (d *Delivery) Location() kernel.Location {
	return d.address.Location()
}

func (d *Delivery) IsOnRoute(id kernel.UUID) bool {
	return d.routeID != nil && d.routeID.IsEqual(id)
}

// NextVersion is called by repositories after a successful compare-and-swap write.
func (d *Delivery) NextVersion() {
	d.version++
}

// Assign puts a pending delivery on a driver's route with a planned arrival time.
func (d *Delivery) Assign(driverID, routeID kernel.UUID, eta time.Time, now time.Time) error {
	if err := errors.Join(driverID.Validate(), routeID.Validate()); err != nil {
		return err
	}
	if err := d.checkTransition(Assigned); err != nil {
		return err
	}

	eta = eta.UTC()
	d.status = Assigned
	d.driverID = &driverID
	d.routeID = &routeID
	d.estimatedAt = &eta
	d.touch(now)
	return nil
}

// Release returns an assigned delivery to the pending pool, dropping its driver and route.
// Only allowed before pickup.
func (d *Delivery) Release(now time.Time) error {
	if err := d.checkTransition(Pending); err != nil {
		return err
	}

	d.status = Pending
	d.driverID = nil
	d.routeID = nil
	d.estimatedAt = nil
	d.touch(now)
	return nil
}

func (d *Delivery) PickUp(now time.Time) error {
	return d.move(PickedUp, now)
}

func (d *Delivery) StartTransit(now time.Time) error {
	return d.move(InTransit, now)
}

// Deliver completes an in-transit delivery. cash is the amount the driver collected, if any.
func (d *Delivery) Deliver(cash *int64, now time.Time) error {
	if cash != nil {
		if *cash < 0 {
			return errs.NewValidationError(d.id.String(), "cash collected cannot be negative")
		}
		if !d.order.IsCash() {
			return errs.NewValidationError(d.id.String(),
				fmt.Sprintf("cash collected on a %s payment order", d.order.Payment()))
		}
	}
	if err := d.move(Delivered, now); err != nil {
		return err
	}

	at := now.UTC()
	d.deliveredAt = &at
	if cash != nil {
		amount := *cash
		d.cashCollected = &amount
	}
	return nil
}

func (d *Delivery) Fail(reason string, now time.Time) error {
	if err := d.move(Failed, now); err != nil {
		return err
	}
	d.failureReason = strings.TrimSpace(reason)
	return nil
}

func (d *Delivery) Cancel(reason string, now time.Time) error {
	if err := d.move(Cancelled, now); err != nil {
		return err
	}
	d.cancellationReason = strings.TrimSpace(reason)
	return nil
}

// Settle drives a routed delivery to the terminal outcome of its stop. A delivery that
// was not picked up or put in transit by the driver app is walked through those states
// first, so every change still follows an edge of the state machine.
func (d *Delivery) Settle(outcome Status, reason string, cash *int64, now time.Time) error {
	if outcome != Delivered && outcome != Failed {
		return errs.NewInvalidTransitionError(entityName, d.id.String(), d.status.String(), outcome.String())
	}
	if d.status.IsTerminal() || d.status == Pending {
		return errs.NewInvalidTransitionError(entityName, d.id.String(), d.status.String(), outcome.String())
	}

	snapshot := *d
	steps := []func() error{}
	if d.status == Assigned {
		steps = append(steps, func() error { return d.PickUp(now) })
	}
	if d.status == Assigned || d.status == PickedUp {
		steps = append(steps, func() error { return d.StartTransit(now) })
	}
	if outcome == Delivered {
		steps = append(steps, func() error { return d.Deliver(cash, now) })
	} else {
		steps = append(steps, func() error { return d.Fail(reason, now) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			*d = snapshot
			return err
		}
	}
	return nil
}

func (d *Delivery) move(to Status, now time.Time) error {
	if err := d.checkTransition(to); err != nil {
		return err
	}
	d.status = to
	d.touch(now)
	return nil
}

func (d *Delivery) checkTransition(to Status) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !d.status.CanTransitionTo(to) {
		return errs.NewInvalidTransitionError(entityName, d.id.String(), d.status.String(), to.String())
	}
	return nil
}

func (d *Delivery) touch(now time.Time) {
	d.updatedAt = now.UTC()
}
