package services

import (
	"cmp"
	"slices"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// PartitionPolicy tunes the greedy fill.
type PartitionPolicy struct {
	// MaxStopsPerRoute caps a single route. Zero or less means no cap.
	MaxStopsPerRoute int
	// MultiRoutePerDay lets a driver used in one zone take another route in a later zone.
	MultiRoutePerDay bool
}

// Assignment is the set of deliveries one driver will serve on one route.
type Assignment struct {
	Zone       kernel.Zone
	Driver     *driver.Driver
	Deliveries []*delivery.Delivery
}

func (a Assignment) LoadKg() float64 {
	var kg float64
	for _, d := range a.Deliveries {
		kg += d.WeightKg()
	}
	return kg
}

// Partition is the outcome of splitting pending deliveries between drivers.
type Partition struct {
	Assignments []Assignment
	Unassigned  []*delivery.Delivery
}

// RoutePartitioner splits the pending deliveries of a date into per-driver groups.
//
// Algorithm (deterministic for identical input):
//  1. Deliveries are grouped by zone; zones are processed in lexical order.
//  2. Drivers covering the zone are ranked by remaining capacity desc, rating desc, id asc.
//  3. Deliveries of the zone are ordered by priority desc, weight asc, created_at asc, number asc.
//  4. Each driver in rank order takes every remaining delivery that still fits its remaining
//     capacity, until its capacity or the stop cap is reached.
//  5. Whatever is left in a zone is reported as unassigned.
//
// A driver that received an assignment is not offered to later zones unless the policy
// allows several routes per day, in which case its remaining capacity carries over.
//
// Example usage:
//
//	p := NewRoutePartitioner(PartitionPolicy{MaxStopsPerRoute: 25})
//	result := p.Partition(pending, candidates)
//	for _, a := range result.Assignments {
//	    // sequence a.Deliveries and persist a route for a.Driver
//	}
type RoutePartitioner struct {
	policy PartitionPolicy
}

func NewRoutePartitioner(policy PartitionPolicy) RoutePartitioner {
	return RoutePartitioner{policy: policy}
}

// Partition assigns deliveries to candidates.
//
// Parameters:
//   - deliveries: pending deliveries of the date, in any order
//   - candidates: eligible drivers with their remaining capacity
//
// Returns:
//   - Partition: one assignment per (driver, zone) that received at least one delivery,
//     plus the deliveries no driver could take
func (p RoutePartitioner) Partition(deliveries []*delivery.Delivery, candidates []Candidate) Partition {
	byZone := make(map[kernel.Zone][]*delivery.Delivery)
	for _, d := range deliveries {
		byZone[d.Zone()] = append(byZone[d.Zone()], d)
	}
	zones := make([]kernel.Zone, 0, len(byZone))
	for z := range byZone {
		zones = append(zones, z)
	}
	slices.Sort(zones)

	remaining := make(map[kernel.UUID]float64, len(candidates))
	for _, c := range candidates {
		remaining[c.Driver.ID()] = c.RemainingKg
	}
	used := make(map[kernel.UUID]bool, len(candidates))

	var result Partition
	for _, zone := range zones {
		pending := slices.Clone(byZone[zone])
		SortForFill(pending)

		for _, c := range p.zoneCandidates(zone, candidates, remaining, used) {
			if len(pending) == 0 {
				break
			}

			capacity := remaining[c.Driver.ID()]
			var taken, left []*delivery.Delivery
			for _, d := range pending {
				if p.stopCapReached(len(taken)) || d.WeightKg() > capacity {
					left = append(left, d)
					continue
				}
				taken = append(taken, d)
				capacity -= d.WeightKg()
			}
			pending = left

			if len(taken) == 0 {
				continue
			}
			remaining[c.Driver.ID()] = capacity
			used[c.Driver.ID()] = true
			result.Assignments = append(result.Assignments, Assignment{Zone: zone, Driver: c.Driver, Deliveries: taken})
		}

		result.Unassigned = append(result.Unassigned, pending...)
	}

	return result
}

func (p RoutePartitioner) zoneCandidates(
	zone kernel.Zone,
	candidates []Candidate,
	remaining map[kernel.UUID]float64,
	used map[kernel.UUID]bool,
) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		id := c.Driver.ID()
		if !c.Driver.Covers(zone) || remaining[id] <= 0 {
			continue
		}
		if used[id] && !p.policy.MultiRoutePerDay {
			continue
		}
		out = append(out, Candidate{Driver: c.Driver, RemainingKg: remaining[id]})
	}
	RankCandidates(out)
	return out
}

func (p RoutePartitioner) stopCapReached(stops int) bool {
	return p.policy.MaxStopsPerRoute > 0 && stops >= p.policy.MaxStopsPerRoute
}

// SortForFill orders deliveries by priority desc, weight asc, created_at asc, number asc.
func SortForFill(deliveries []*delivery.Delivery) {
	slices.SortStableFunc(deliveries, func(a, b *delivery.Delivery) int {
		if c := cmp.Compare(b.Priority(), a.Priority()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.WeightKg(), b.WeightKg()); c != 0 {
			return c
		}
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.Number(), b.Number())
	})
}
