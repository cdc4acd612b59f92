package route

import (
	"fmt"
	"slices"

	"dispatch/internal/pkg/errs"
)

type Status int

const (
	UnknownStatus Status = iota
	Planned
	Active
	Completed
	Cancelled
)

var statusStrings = map[Status]string{
	Planned:   "planned",
	Active:    "active",
	Completed: "completed",
	Cancelled: "cancelled",
}

func transitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing edges
	return map[Status][]Status{
		Planned: {Active, Cancelled},
		Active:  {Completed, Cancelled},
	}
}

func ParseStatus(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("route status", fmt.Errorf("%q is not a route status", s))
}

func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("route status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions()[s], to)
}

// StopStatus is the per-stop outcome.
type StopStatus int

const (
	UnknownStopStatus StopStatus = iota
	StopPending
	StopDelivered
	StopFailed
	StopCancelled
)

var stopStatusStrings = map[StopStatus]string{
	StopPending:   "pending",
	StopDelivered: "delivered",
	StopFailed:    "failed",
	StopCancelled: "cancelled",
}

func (s StopStatus) String() string {
	if str, ok := stopStatusStrings[s]; ok {
		return str
	}
	return "unknown"
}

func (s StopStatus) Validate() error {
	if _, ok := stopStatusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("stop status", fmt.Errorf("%d is not a valid stop status", s))
	}
	return nil
}

func (s StopStatus) IsTerminal() bool {
	return s == StopDelivered || s == StopFailed || s == StopCancelled
}

// ParseOutcome accepts the two outcomes a driver can report for a stop.
func ParseOutcome(s string) (StopStatus, error) {
	switch s {
	case "delivered":
		return StopDelivered, nil
	case "failed":
		return StopFailed, nil
	default:
		return UnknownStopStatus, errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not delivered or failed", s))
	}
}

// ParseStopStatus maps the stored form back to a StopStatus.
func ParseStopStatus(s string) (StopStatus, error) {
	for st, str := range stopStatusStrings {
		if str == s {
			return st, nil
		}
	}
	return UnknownStopStatus, errs.NewValueIsInvalidErrorWithCause("stop status", fmt.Errorf("%q is not a valid stop status", s))
}
