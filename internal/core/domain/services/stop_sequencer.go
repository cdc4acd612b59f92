package services

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// StopSequencer orders the stops of one route.
//
// Node 0 of the distance matrix is the start point (driver location or depot);
// node i+1 is stop i. The baseline is nearest neighbour from the start, with ties
// broken by the stop key (the delivery number). An optional 2-opt pass then
// reverses segments while the open path gets strictly shorter.
type StopSequencer struct {
	twoOpt bool
}

func NewStopSequencer(twoOpt bool) StopSequencer {
	return StopSequencer{twoOpt: twoOpt}
}

// Sequence returns the visiting order as stop indices.
func (s StopSequencer) Sequence(distances [][]int, keys []string) ([]int, error) {
	n := len(keys)
	if len(distances) != n+1 {
		return nil, errs.NewValueIsInvalidErrorWithCause("distance matrix",
			fmt.Errorf("%d rows for %d stops", len(distances), n))
	}
	for i, row := range distances {
		if len(row) != n+1 {
			return nil, errs.NewValueIsInvalidErrorWithCause("distance matrix",
				fmt.Errorf("row %d has %d columns, want %d", i, len(row), n+1))
		}
	}

	order := nearestNeighbour(distances, keys)
	if s.twoOpt {
		order = improveTwoOpt(distances, order)
	}
	return order, nil
}

func nearestNeighbour(distances [][]int, keys []string) []int {
	n := len(keys)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	current := 0
	for range n {
		best := -1
		for i := range n {
			if visited[i] {
				continue
			}
			if best < 0 {
				best = i
				continue
			}
			d, bd := distances[current][i+1], distances[current][best+1]
			if d < bd || (d == bd && keys[i] < keys[best]) {
				best = i
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best + 1
	}
	return order
}

// improveTwoOpt applies first-improvement 2-opt moves on the open path start -> order.
func improveTwoOpt(distances [][]int, order []int) []int {
	path := make([]int, len(order)+1)
	for i, stop := range order {
		path[i+1] = stop + 1
	}

	for improved := true; improved; {
		improved = false
		for i := 1; i < len(path)-1; i++ {
			for j := i + 1; j < len(path); j++ {
				if twoOptGain(distances, path, i, j) > 0 {
					reverse(path[i : j+1])
					improved = true
				}
			}
		}
	}

	out := make([]int, len(order))
	for i := range out {
		out[i] = path[i+1] - 1
	}
	return out
}

// twoOptGain is the length saved by reversing path[i..j].
func twoOptGain(distances [][]int, path []int, i, j int) int {
	a, b := path[i-1], path[i]
	c := path[j]
	before := distances[a][b]
	after := distances[a][c]
	if j+1 < len(path) {
		d := path[j+1]
		before += distances[c][d]
		after += distances[b][d]
	}
	// Reversal also flips the inner edges, which only matters for asymmetric matrices.
	for k := i; k < j; k++ {
		before += distances[path[k]][path[k+1]]
		after += distances[path[k+1]][path[k]]
	}
	return before - after
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// PathLength is the length of the open path start -> order.
func PathLength(distances [][]int, order []int) int {
	total, prev := 0, 0
	for _, stop := range order {
		total += distances[prev][stop+1]
		prev = stop + 1
	}
	return total
}
