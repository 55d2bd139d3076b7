package kernel_test

import (
	"math"
	"testing"

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
		wantErr bool
	}{
		{name: "bengaluru", lat: 12.97, lon: 77.59},
		{name: "north pole", lat: 90, lon: 0},
		{name: "antimeridian", lat: 0, lon: -180},
		{name: "latitude too high", lat: 90.1, lon: 0, wantErr: true},
		{name: "latitude too low", lat: -91, lon: 0, wantErr: true},
		{name: "longitude too high", lat: 0, lon: 180.5, wantErr: true},
		{name: "nan latitude", lat: math.NaN(), lon: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := kernel.NewLocation(tt.lat, tt.lon)

			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				assert.Error(t, loc.Validate())
				return
			}
			require.NoError(t, err)
			require.NoError(t, loc.Validate())
			assert.InDelta(t, tt.lat, loc.Latitude(), 1e-9)
			assert.InDelta(t, tt.lon, loc.Longitude(), 1e-9)
		})
	}

	t.Run("reports both coordinates", func(t *testing.T) {
		_, err := kernel.NewLocation(100, 200)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude")
		assert.Contains(t, err.Error(), "longitude")
	})
}

func TestLocation_WithAddress(t *testing.T) {
	loc, err := kernel.NewLocation(12.97, 77.59)
	require.NoError(t, err)

	withAddr := loc.WithAddress("  MG Road  ")

	assert.Equal(t, "MG Road", withAddr.Address())
	assert.Empty(t, loc.Address(), "original must stay unchanged")
	equal, err := loc.IsEqual(withAddr)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestLocation_Validate(t *testing.T) {
	var zero kernel.Location

	require.ErrorIs(t, zero.Validate(), kernel.ErrLocationIsNotConstructed)
}

func TestLocation_DistanceKm(t *testing.T) {
	t.Run("one hundredth of a degree of latitude", func(t *testing.T) {
		a, _ := kernel.NewLocation(12.97, 77.59)
		b, _ := kernel.NewLocation(12.98, 77.59)

		d, err := a.DistanceKm(b)

		require.NoError(t, err)
		assert.InDelta(t, 1.112, d, 0.001)
	})

	t.Run("is symmetric and zero on self", func(t *testing.T) {
		a, _ := kernel.NewLocation(12.97, 77.59)
		b, _ := kernel.NewLocation(13.03, 77.64)

		ab, _ := a.DistanceKm(b)
		ba, _ := b.DistanceKm(a)
		aa, _ := a.DistanceKm(a)

		assert.InDelta(t, ab, ba, 1e-9)
		assert.InDelta(t, 0, aa, 1e-9)
	})

	t.Run("known city pair", func(t *testing.T) {
		// Bengaluru -> Chennai is roughly 290 km great-circle.
		blr, _ := kernel.NewLocation(12.9716, 77.5946)
		maa, _ := kernel.NewLocation(13.0827, 80.2707)

		d, err := blr.DistanceKm(maa)

		require.NoError(t, err)
		assert.InDelta(t, 290, d, 5)
	})

	t.Run("fails on unconstructed location", func(t *testing.T) {
		a, _ := kernel.NewLocation(12.97, 77.59)
		var zero kernel.Location

		_, err := a.DistanceKm(zero)

		require.ErrorIs(t, err, kernel.ErrLocationIsNotConstructed)
	})
}
