package driver

import (
	"github.com/shopspring/decimal"
)

const (
	// ratingWindow caps the moving-average weight so the rating tracks roughly the last 50 deliveries.
	ratingWindow = 50

	// ratingPlaces is the precision the average is kept at; RatingDisplayPlaces the one it is shown at.
	ratingPlaces        = 8
	RatingDisplayPlaces = 2
)

var (
	MinRating     = decimal.Zero
	MaxRating     = decimal.NewFromInt(5)
	DefaultRating = decimal.NewFromInt(5)
	successScore  = decimal.NewFromInt(5)
	failureScore  = decimal.Zero
)

// nextRating folds one outcome into the rating as an exponential moving average
// with weight 1/min(total, 50).
func nextRating(current decimal.Decimal, total int, success bool) decimal.Decimal {
	score := failureScore
	if success {
		score = successScore
	}

	window := min(total, ratingWindow)
	if window < 1 {
		window = 1
	}

	weight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(window)))
	next := current.Add(score.Sub(current).Mul(weight))

	return clampRating(next.Round(ratingPlaces))
}

func clampRating(r decimal.Decimal) decimal.Decimal {
	if r.LessThan(MinRating) {
		return MinRating
	}
	if r.GreaterThan(MaxRating) {
		return MaxRating
	}
	return r
}
