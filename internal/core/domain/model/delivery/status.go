package delivery

import (
	"fmt"
	"slices"

	"dispatch/internal/pkg/errs"
)

// Status is the lifecycle state of a delivery.
type Status int

const (
	// Unknown catches uninitialised values.
	Unknown Status = iota
	Pending
	Assigned
	PickedUp
	InTransit
	Delivered
	Failed
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		InTransit: "in_transit",
		Delivered: "delivered",
		Failed:    "failed",
		Cancelled: "cancelled",
	}
}

// transitions is the complete edge list of the state machine.
func transitions() map[Status][]Status {
	//nolint:exhaustive // terminal states have no outgoing edges
	return map[Status][]Status{
		Pending:   {Assigned, Cancelled},
		Assigned:  {Pending, PickedUp, Cancelled},
		PickedUp:  {InTransit, Cancelled},
		InTransit: {Delivered, Failed, Cancelled},
	}
}

// ParseStatus maps the lowercase wire form back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a delivery status", s))
}

func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed || s == Cancelled
}

// CanTransitionTo reports whether s -> to is an edge of the state machine.
func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions()[s], to)
}

// AllStatuses lists the valid statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Assigned, PickedUp, InTransit, Delivered, Failed, Cancelled}
}
