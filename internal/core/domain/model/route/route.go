package route

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute or Restore")

const entityName = "route"

// Route is an ordered set of stops served by one driver on one date.
//
// Invariants:
//   - stop sequences are contiguous from 0 and follow slice order
//   - a delivery appears at most once per route
//   - total deliveries equals the number of stops at creation and never changes
//   - completed and cancelled routes are immutable
type Route struct {
	id       kernel.UUID
	date     time.Time
	name     string
	driverID kernel.UUID
	stops    []Stop
	status   Status

	totalDistanceM     int
	estimatedDurationS int
	actualDurationS    *int

	startTime *time.Time
	endTime   *time.Time

	completedDeliveries int
	totalDeliveries     int
	cancellationReason  string

	createdAt time.Time
	updatedAt time.Time
	version   int64

	isConstructed bool
}

// NewRoute plans a route from sequenced stops. The estimated duration is the sum of
// leg durations plus serviceTime per stop.
func NewRoute(date time.Time, name string, driverID kernel.UUID, stops []Stop, serviceTime time.Duration, now time.Time) (*Route, error) {
	r := &Route{
		id:            kernel.NewUUID(),
		date:          kernel.DateOf(date),
		name:          strings.TrimSpace(name),
		driverID:      driverID,
		status:        Planned,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	planned := make([]Stop, len(stops))
	for i, s := range stops {
		s.Status = StopPending
		s.CompletedAt = nil
		planned[i] = s
	}

	if err := errors.Join(driverID.Validate(), validateStops(planned)); err != nil {
		return nil, err
	}

	r.stops = planned
	r.totalDeliveries = len(planned)
	for _, s := range planned {
		r.totalDistanceM += s.LegDistanceM
		r.estimatedDurationS += s.LegDurationS
	}
	r.estimatedDurationS += int(serviceTime.Seconds()) * len(planned)

	return r, nil
}

func validateStops(stops []Stop) error {
	if len(stops) == 0 {
		return errs.NewValueIsRequiredError("stops")
	}

	seen := make(map[kernel.UUID]struct{}, len(stops))
	var problems []error
	for i, s := range stops {
		if s.Sequence != i {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("stop sequence",
				fmt.Errorf("stop %d has sequence %d", i, s.Sequence)))
		}
		if err := s.DeliveryID.Validate(); err != nil {
			problems = append(problems, err)
		}
		if _, dup := seen[s.DeliveryID]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("stops",
				fmt.Errorf("delivery %s appears twice", s.DeliveryID)))
		}
		seen[s.DeliveryID] = struct{}{}
		if s.WeightKg <= 0 {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("stop weight",
				fmt.Errorf("stop %d weighs %g kg", i, s.WeightKg)))
		}
		if s.LegDistanceM < 0 || s.LegDurationS < 0 {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("stop leg",
				fmt.Errorf("stop %d has a negative leg", i)))
		}
		if err := s.Location.Validate(); err != nil {
			problems = append(problems, err)
		}
		if err := s.Status.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	return errors.Join(problems...)
}

func (r *Route) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRouteIsNotConstructed
	}
	return nil
}

func (r *Route) ID() kernel.UUID {
	return r.id
}

func (r *Route) Date() time.Time {
	return r.date
}

func (r *Route) Name() string {
	return r.name
}

func (r *Route) DriverID() kernel.UUID {
	return r.driverID
}

// Stops returns a copy of the stops in sequence order.
func (r *Route) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	for i, s := range r.stops {
		out[i] = s.clone()
	}
	return out
}

func (r *Route) Status() Status {
	return r.status
}

func (r *Route) TotalDistanceM() int {
	return r.totalDistanceM
}

func (r *Route) EstimatedDurationS() int {
	return r.estimatedDurationS
}

func (r *Route) ActualDurationS() *int {
	return r.actualDurationS
}

func (r *Route) StartTime() *time.Time {
	return r.startTime
}

func (r *Route) EndTime() *time.Time {
	return r.endTime
}

func (r *Route) CompletedDeliveries() int {
	return r.completedDeliveries
}

func (r *Route) TotalDeliveries() int {
	return r.totalDeliveries
}

func (r *Route) CancellationReason() string {
	return r.cancellationReason
}

func (r *Route) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Route) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *Route) Version() int64 {
	return r.version
}

func (r *Route) NextVersion() {
	r.version++
}

// Stop looks up the stop of a delivery.
func (r *Route) Stop(deliveryID kernel.UUID) (Stop, bool) {
	if i := r.stopIndex(deliveryID); i >= 0 {
		return r.stops[i].clone(), true
	}
	return Stop{}, false
}

// PendingLoadKg is the weight still to be delivered.
func (r *Route) PendingLoadKg() float64 {
	var kg float64
	for _, s := range r.stops {
		if s.Status == StopPending {
			kg += s.WeightKg
		}
	}
	return kg
}

// Path is the sequence of stop locations.
func (r *Route) Path() []kernel.Location {
	out := make([]kernel.Location, len(r.stops))
	for i, s := range r.stops {
		out[i] = s.Location
	}
	return out
}

// Start activates a planned route.
func (r *Route) Start(now time.Time) error {
	if err := r.checkTransition(Active); err != nil {
		return err
	}
	start := now.UTC()
	r.status = Active
	r.startTime = &start
	r.touch(now)
	return nil
}

// CompleteStop records a delivered or failed outcome. It returns false when the stop
// already carries the same outcome, which makes repeated driver reports harmless.
// When the last stop turns terminal the route completes.
func (r *Route) CompleteStop(deliveryID kernel.UUID, outcome StopStatus, now time.Time) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	if outcome != StopDelivered && outcome != StopFailed {
		return false, errs.NewValidationError(r.id.String(), fmt.Sprintf("%s is not a stop outcome", outcome))
	}
	if r.status.IsTerminal() {
		return false, errs.NewInvalidTransitionError(entityName, r.id.String(), r.status.String(), "stop "+outcome.String())
	}

	i := r.stopIndex(deliveryID)
	if i < 0 {
		return false, r.notAStop(deliveryID)
	}

	stop := &r.stops[i]
	if stop.Status == outcome {
		return false, nil
	}
	if stop.Status.IsTerminal() {
		return false, errs.NewInvalidTransitionError("stop", deliveryID.String(), stop.Status.String(), outcome.String())
	}
	if r.status != Active {
		return false, errs.NewInvalidStateError(entityName, r.id.String(), r.status.String(), "stops can only be completed on an active route")
	}

	at := now.UTC()
	stop.Status = outcome
	stop.CompletedAt = &at
	r.completedDeliveries++
	r.touch(now)
	r.finishIfSettled(now)
	return true, nil
}

// CancelStop takes a single delivery off the route without removing its stop.
func (r *Route) CancelStop(deliveryID kernel.UUID, now time.Time) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	if r.status.IsTerminal() {
		return false, errs.NewInvalidTransitionError(entityName, r.id.String(), r.status.String(), "stop cancelled")
	}

	i := r.stopIndex(deliveryID)
	if i < 0 {
		return false, r.notAStop(deliveryID)
	}

	stop := &r.stops[i]
	if stop.Status == StopCancelled {
		return false, nil
	}
	if stop.Status.IsTerminal() {
		return false, errs.NewInvalidTransitionError("stop", deliveryID.String(), stop.Status.String(), StopCancelled.String())
	}

	at := now.UTC()
	stop.Status = StopCancelled
	stop.CompletedAt = &at
	r.touch(now)
	r.finishIfSettled(now)
	return true, nil
}

// Cancel stops the route. Pending stops are marked cancelled and their delivery ids are
// returned so the caller can release or cancel the deliveries. Settled stops are untouched.
func (r *Route) Cancel(reason string, now time.Time) ([]kernel.UUID, error) {
	if err := r.checkTransition(Cancelled); err != nil {
		return nil, err
	}

	at := now.UTC()
	released := make([]kernel.UUID, 0)
	for i := range r.stops {
		if r.stops[i].Status == StopPending {
			r.stops[i].Status = StopCancelled
			r.stops[i].CompletedAt = &at
			released = append(released, r.stops[i].DeliveryID)
		}
	}

	r.status = Cancelled
	r.cancellationReason = strings.TrimSpace(reason)
	r.end(now)
	return released, nil
}

// Outcomes lists delivered (true) and failed (false) stops, for driver rating updates.
func (r *Route) Outcomes() []bool {
	out := make([]bool, 0, len(r.stops))
	for _, s := range r.stops {
		switch s.Status {
		case StopDelivered:
			out = append(out, true)
		case StopFailed:
			out = append(out, false)
		default:
		}
	}
	return out
}

func (r *Route) IsSettled() bool {
	for _, s := range r.stops {
		if !s.Status.IsTerminal() {
			return false
		}
	}
	return true
}

func (r *Route) finishIfSettled(now time.Time) {
	if !r.IsSettled() {
		return
	}
	switch r.status {
	case Active:
		r.status = Completed
		r.end(now)
	case Planned:
		r.status = Cancelled
		r.cancellationReason = "all stops cancelled"
		r.end(now)
	default:
	}
}

func (r *Route) end(now time.Time) {
	end := now.UTC()
	r.endTime = &end
	if r.startTime != nil {
		d := int(end.Sub(*r.startTime).Seconds())
		r.actualDurationS = &d
	}
	r.touch(now)
}

func (r *Route) checkTransition(to Status) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if !r.status.CanTransitionTo(to) {
		return errs.NewInvalidTransitionError(entityName, r.id.String(), r.status.String(), to.String())
	}
	return nil
}

func (r *Route) stopIndex(deliveryID kernel.UUID) int {
	for i, s := range r.stops {
		if s.DeliveryID.IsEqual(deliveryID) {
			return i
		}
	}
	return -1
}

func (r *Route) notAStop(deliveryID kernel.UUID) error {
	return errs.NewValidationError(r.id.String(), fmt.Sprintf("delivery %s is not a stop of this route", deliveryID))
}

func (r *Route) touch(now time.Time) {
	r.updatedAt = now.UTC()
}
