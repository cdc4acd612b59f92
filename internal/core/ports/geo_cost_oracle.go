package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// CostMatrix holds travel costs between points: Distances in meters, Durations in seconds.
// Row i, column j is the cost of going from point i to point j.
type CostMatrix struct {
	Distances [][]int
	Durations [][]int
}

// GeoCostOracle prices travel between geocoordinates.
type GeoCostOracle interface {
	CostMatrix(ctx context.Context, points []kernel.Location) (CostMatrix, error)
}
