package cash

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord or Restore")

const entityName = "cash record"

// Entry is one cash amount handed over for a delivery.
type Entry struct {
	ID         kernel.UUID
	RecordID   kernel.UUID
	DeliveryID kernel.UUID
	Amount     int64
	RecordedAt time.Time
}

// Summary is a record evaluated against the expected amount.
type Summary struct {
	Expected    int64
	Collected   int64
	Discrepancy int64
	Status      ReconciliationStatus
}

// Record is the cash collected by one driver on one date. Amounts are minor units.
type Record struct {
	id       kernel.UUID
	date     time.Time
	driverID kernel.UUID
	routeID  *kernel.UUID
	entries  []Entry

	closed      bool
	override    bool
	closingNote string
	closedAt    *time.Time

	createdAt time.Time
	updatedAt time.Time
	version   int64

	isConstructed bool
}

func NewRecord(date time.Time, driverID kernel.UUID, routeID *kernel.UUID, now time.Time) (*Record, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}
	return &Record{
		id:            kernel.NewUUID(),
		date:          kernel.DateOf(date),
		driverID:      driverID,
		routeID:       copyID(routeID),
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}, nil
}

func (r *Record) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRecordIsNotConstructed
	}
	return nil
}

func (r *Record) ID() kernel.UUID {
	return r.id
}

func (r *Record) Date() time.Time {
	return r.date
}

func (r *Record) DriverID() kernel.UUID {
	return r.driverID
}

func (r *Record) RouteID() *kernel.UUID {
	return copyID(r.routeID)
}

func (r *Record) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Record) IsClosed() bool {
	return r.closed
}

func (r *Record) Override() bool {
	return r.override
}

func (r *Record) ClosingNote() string {
	return r.closingNote
}

func (r *Record) ClosedAt() *time.Time {
	return copyTime(r.closedAt)
}

func (r *Record) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Record) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *Record) Version() int64 {
	return r.version
}

func (r *Record) NextVersion() {
	r.version++
}

func (r *Record) Collected() int64 {
	var sum int64
	for _, e := range r.entries {
		sum += e.Amount
	}
	return sum
}

// Append adds the cash of a delivery. Each delivery can be recorded once.
func (r *Record) Append(deliveryID kernel.UUID, amount int64, now time.Time) (Entry, error) {
	if err := r.Validate(); err != nil {
		return Entry{}, err
	}
	if r.closed {
		return Entry{}, errs.NewInvalidStateError(entityName, r.id.String(), "closed", "closed records accept no more collections")
	}
	if err := deliveryID.Validate(); err != nil {
		return Entry{}, err
	}
	if amount < 0 {
		return Entry{}, errs.NewValidationError(deliveryID.String(), fmt.Sprintf("collected amount %d is negative", amount))
	}
	if r.HasEntry(deliveryID) {
		return Entry{}, errs.NewValidationError(deliveryID.String(), "cash for this delivery is already recorded")
	}

	e := Entry{
		ID:         kernel.NewUUID(),
		RecordID:   r.id,
		DeliveryID: deliveryID,
		Amount:     amount,
		RecordedAt: now.UTC(),
	}
	r.entries = append(r.entries, e)
	r.updatedAt = now.UTC()
	return e, nil
}

func (r *Record) HasEntry(deliveryID kernel.UUID) bool {
	for _, e := range r.entries {
		if e.DeliveryID.IsEqual(deliveryID) {
			return true
		}
	}
	return false
}

// Evaluate compares the collected cash with expected.
func (r *Record) Evaluate(expected, tolerance int64) Summary {
	collected := r.Collected()
	d := collected - expected
	return Summary{
		Expected:    expected,
		Collected:   collected,
		Discrepancy: d,
		Status:      Classify(d, tolerance, r.closed, r.override),
	}
}

// Close reconciles the record. A discrepancy beyond tolerance needs override.
func (r *Record) Close(expected, tolerance int64, note string, override bool, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}

	current := r.Evaluate(expected, tolerance).Status
	if r.closed && current == Reconciled {
		return errs.NewInvalidTransitionError(entityName, r.id.String(), current.String(), Reconciled.String())
	}

	d := r.Collected() - expected
	if abs(d) > tolerance && !override {
		return errs.NewInvalidStateError(entityName, r.id.String(), current.String(),
			fmt.Sprintf("discrepancy %d exceeds tolerance %d; close with override", d, tolerance))
	}

	at := now.UTC()
	r.closed = true
	r.override = override && abs(d) > tolerance
	r.closingNote = strings.TrimSpace(note)
	r.closedAt = &at
	r.updatedAt = at
	return nil
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
