package delivery

import (
	"dispatch/internal/pkg/errs"
)

// Priority ranks pending deliveries for the route builder. Higher is served first.
type Priority int

const (
	Normal Priority = 1
	High   Priority = 2
	Urgent Priority = 3
)

func NewPriority(p int) (Priority, error) {
	if p < int(Normal) || p > int(Urgent) {
		return 0, errs.NewValueIsOutOfRangeError("priority", p, int(Normal), int(Urgent))
	}
	return Priority(p), nil
}

func (p Priority) String() string {
	switch p {
	case Normal:
		return "normal"
	case High:
		return "high"
	case Urgent:
		return "urgent"
	default:
		return "unknown"
	}
}
