package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 48.8566, lon2: 2.3522,
			wantKm: 0, tolerance: 0.001,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 51.5074, lon2: -0.1278,
			wantKm: 343.5, tolerance: 2,
		},
		{
			name: "paris to new york",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 40.7128, lon2: -74.0060,
			wantKm: 5837, tolerance: 20,
		},
		{
			name: "across the antimeridian",
			lat1: 0, lon1: 179.5,
			lat2: 0, lon2: -179.5,
			wantKm: 111.2, tolerance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, tt.tolerance)
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(48.8566, 2.3522, 35.6762, 139.6503)
	b := DistanceKm(35.6762, 139.6503, 48.8566, 2.3522)
	assert.InDelta(t, a, b, 0.0001)
}
