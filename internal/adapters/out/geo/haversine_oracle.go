// Package geo prices travel between geocoordinates for route building.
package geo

import (
	"context"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

const DefaultSpeedKmh = 30.0

// HaversineOracle prices legs by great-circle distance at a constant speed.
// It never fails and is the fallback of every other oracle.
type HaversineOracle struct {
	metersPerSecond float64
}

var _ ports.GeoCostOracle = HaversineOracle{}

func NewHaversineOracle(speedKmh float64) HaversineOracle {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return HaversineOracle{metersPerSecond: speedKmh * 1000 / 3600}
}

func (o HaversineOracle) CostMatrix(_ context.Context, points []kernel.Location) (ports.CostMatrix, error) {
	n := len(points)
	m := ports.CostMatrix{
		Distances: make([][]int, n),
		Durations: make([][]int, n),
	}
	for i := range n {
		m.Distances[i] = make([]int, n)
		m.Durations[i] = make([]int, n)
		for j := range n {
			if i == j {
				continue
			}
			meters := points[i].DistanceMeters(points[j])
			m.Distances[i][j] = meters
			m.Durations[i][j] = int(math.Round(float64(meters) / o.metersPerSecond))
		}
	}
	return m, nil
}
