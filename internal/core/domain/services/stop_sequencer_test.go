package services_test

import (
	"testing"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineMatrix places the start at 0 and stops at the given positions on a line.
func lineMatrix(positions ...int) [][]int {
	points := append([]int{0}, positions...)
	m := make([][]int, len(points))
	for i := range points {
		m[i] = make([]int, len(points))
		for j := range points {
			d := points[i] - points[j]
			if d < 0 {
				d = -d
			}
			m[i][j] = d
		}
	}
	return m
}

func TestStopSequencer_NearestNeighbour(t *testing.T) {
	m := lineMatrix(30, 10, 20)

	order, err := services.NewStopSequencer(false).Sequence(m, []string{"c", "a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)
	assert.Equal(t, 30, services.PathLength(m, order))
}

func TestStopSequencer_TieBrokenByKey(t *testing.T) {
	m := lineMatrix(10, -10)

	order, err := services.NewStopSequencer(false).Sequence(m, []string{"DLV-2", "DLV-1"})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestStopSequencer_TwoOptImproves(t *testing.T) {
	// Nearest neighbour walks to 1 first and then has to cross back over the start.
	m := lineMatrix(1, -2, 10)
	keys := []string{"a", "b", "c"}

	nn, err := services.NewStopSequencer(false).Sequence(m, keys)
	require.NoError(t, err)
	improved, err := services.NewStopSequencer(true).Sequence(m, keys)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, nn)
	assert.Equal(t, 16, services.PathLength(m, nn))
	assert.Equal(t, []int{1, 0, 2}, improved)
	assert.Equal(t, 14, services.PathLength(m, improved))
}

func TestStopSequencer_TwoOptNeverWorse(t *testing.T) {
	m := lineMatrix(1, -2, 3, -4, 5)
	keys := []string{"a", "b", "c", "d", "e"}

	nn, err := services.NewStopSequencer(false).Sequence(m, keys)
	require.NoError(t, err)
	improved, err := services.NewStopSequencer(true).Sequence(m, keys)
	require.NoError(t, err)

	assert.ElementsMatch(t, nn, improved)
	assert.LessOrEqual(t, services.PathLength(m, improved), services.PathLength(m, nn))
}

func TestStopSequencer_Deterministic(t *testing.T) {
	m := lineMatrix(7, 3, 3, 9, 1)
	keys := []string{"e", "d", "c", "b", "a"}
	s := services.NewStopSequencer(true)

	first, err := s.Sequence(m, keys)
	require.NoError(t, err)
	for range 5 {
		again, err := s.Sequence(m, keys)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestStopSequencer_RejectsBadMatrix(t *testing.T) {
	_, err := services.NewStopSequencer(false).Sequence([][]int{{0}}, []string{"a"})

	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStopSequencer_Empty(t *testing.T) {
	order, err := services.NewStopSequencer(true).Sequence([][]int{{0}}, nil)

	require.NoError(t, err)
	assert.Empty(t, order)
}
