package kernel_test

import (
	"math"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr error
	}{
		{"city_centre", 52.5200, 13.4050, nil},
		{"south_west_corner", -90, -180, nil},
		{"north_east_corner", 90, 180, nil},
		{"latitude_too_high", 90.5, 0, errs.ErrValueIsOutOfRange},
		{"longitude_too_low", 0, -180.01, errs.ErrValueIsOutOfRange},
		{"nan_latitude", math.NaN(), 0, errs.ErrValueIsOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := kernel.NewLocation(tt.lat, tt.lon)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, loc.Validate())
			assert.InDelta(t, tt.lat, loc.Lat(), 1e-9)
			assert.InDelta(t, tt.lon, loc.Lon(), 1e-9)
		})
	}
}

func TestNewLocation_JoinsBothErrors(t *testing.T) {
	_, err := kernel.NewLocation(100, 200)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
	assert.Contains(t, err.Error(), "longitude")
}

func TestLocation_ZeroValue(t *testing.T) {
	var loc kernel.Location

	assert.ErrorIs(t, loc.Validate(), kernel.ErrLocationIsNotConstructed)
}

func TestLocation_DistanceMeters(t *testing.T) {
	berlin := kernel.MustNewLocation(52.5200, 13.4050)
	potsdam := kernel.MustNewLocation(52.3906, 13.0645)

	d := berlin.DistanceMeters(potsdam)

	assert.InDelta(t, 27200, d, 600)
	assert.Equal(t, d, potsdam.DistanceMeters(berlin))
	assert.Zero(t, berlin.DistanceMeters(berlin))
}

func TestLocation_IsEqualAndString(t *testing.T) {
	a := kernel.MustNewLocation(1.5, 2.25)
	b := kernel.MustNewLocation(1.5, 2.25)

	assert.True(t, a.IsEqual(b))
	assert.Equal(t, "Location(1.500000,2.250000)", a.String())
}

func TestDates(t *testing.T) {
	late := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), kernel.DateOf(late))
	assert.Equal(t, "2024-05-01", kernel.FormatDate(late))

	parsed, err := kernel.ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(kernel.DateOf(late)))

	_, err = kernel.ParseDate("01/05/2024")
	assert.True(t, errs.IsValidation(err))
	_, err = kernel.ParseDate("")
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewZone(t *testing.T) {
	z, err := kernel.NewZone("  north-3 ")
	require.NoError(t, err)
	assert.Equal(t, kernel.Zone("north-3"), z)

	_, err = kernel.NewZone(" ")
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}
