package route

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Stop is one delivery's position within a route.
// Leg metrics describe the travel from the previous stop (or the start point for sequence 0).
type Stop struct {
	DeliveryID     kernel.UUID
	Sequence       int
	WeightKg       float64
	Location       kernel.Location
	LegDistanceM   int
	LegDurationS   int
	PlannedArrival time.Time
	Status         StopStatus
	CompletedAt    *time.Time
}

func (s Stop) clone() Stop {
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}
