package services

import (
	"cmp"
	"slices"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// Candidate is a driver that may receive a route, with the capacity still free on the route date.
type Candidate struct {
	Driver      *driver.Driver
	RemainingKg float64
}

// DriverLoad is what a driver already carries on a date: planned and active routes and their pending weight.
type DriverLoad struct {
	Routes    int
	PlannedKg float64
}

// LoadsOf sums the routes of one date per driver. Cancelled routes carry nothing.
func LoadsOf(routes []*route.Route) map[kernel.UUID]DriverLoad {
	loads := make(map[kernel.UUID]DriverLoad, len(routes))
	for _, rt := range routes {
		if rt.Status() == route.Cancelled {
			continue
		}
		load := loads[rt.DriverID()]
		load.Routes++
		load.PlannedKg += rt.PendingLoadKg()
		loads[rt.DriverID()] = load
	}
	return loads
}

// DriverEligibility decides which drivers can take new routes on a date.
//
// Business rules:
//   - available drivers are eligible; busy drivers only when multiple routes per day are allowed
//   - a driver must cover the requested zone, when one is given
//   - without multiple routes per day, a driver that already owns a live route on the date is skipped
//   - with multiple routes per day, remaining capacity is reduced by the load already planned
//   - remaining capacity must cover requiredKg, and must be positive
type DriverEligibility struct {
	multiRoutePerDay bool
}

func NewDriverEligibility(multiRoutePerDay bool) DriverEligibility {
	return DriverEligibility{multiRoutePerDay: multiRoutePerDay}
}

// Candidates filters drivers and returns them ranked by remaining capacity desc, rating desc, id asc.
func (e DriverEligibility) Candidates(
	drivers []*driver.Driver,
	loads map[kernel.UUID]DriverLoad,
	zone *kernel.Zone,
	requiredKg float64,
) []Candidate {
	out := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if d.Validate() != nil {
			continue
		}

		switch d.Status() {
		case driver.Available:
		case driver.Busy:
			if !e.multiRoutePerDay {
				continue
			}
		default:
			continue
		}

		if zone != nil && !d.Covers(*zone) {
			continue
		}

		load := loads[d.ID()]
		remaining := d.MaxCapacityKg()
		if e.multiRoutePerDay {
			remaining -= load.PlannedKg
		} else if load.Routes > 0 {
			continue
		}

		if remaining <= 0 || remaining < requiredKg {
			continue
		}
		out = append(out, Candidate{Driver: d, RemainingKg: remaining})
	}

	RankCandidates(out)
	return out
}

// RankCandidates orders candidates by remaining capacity desc, rating desc, id asc.
func RankCandidates(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(b.RemainingKg, a.RemainingKg); c != 0 {
			return c
		}
		if c := b.Driver.Rating().Cmp(a.Driver.Rating()); c != 0 {
			return c
		}
		return a.Driver.ID().Compare(b.Driver.ID())
	})
}
