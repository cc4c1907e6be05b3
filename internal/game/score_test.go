package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		want       int
	}{
		{"exact hit", 0, 5000},
		{"under one km", 0.9, 5000},
		{"one half life", 250, 2500},
		{"two half lives", 500, 1250},
		{"at the ceiling", 2000, 20},
		{"beyond the ceiling", 2000.1, 0},
		{"antipodal", 20000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.distanceKm))
		})
	}
}

func TestScoreNonIncreasing(t *testing.T) {
	prev := Score(0)
	for d := 0.5; d <= 2500; d += 0.5 {
		s := Score(d)
		assert.LessOrEqual(t, s, prev, "score must not increase with distance (d=%v)", d)
		prev = s
	}
}

func TestScoreBounds(t *testing.T) {
	for d := 0.0; d <= 3000; d += 1.5 {
		s := Score(d)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 5000)
	}
}
