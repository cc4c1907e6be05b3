package game

import "math"

const (
	// MaxScore is awarded for a guess closer than one kilometer.
	MaxScore = 5000

	scoreFloorKm    = 1.0
	scoreCeilingKm  = 2000.0
	scoreHalfLifeKm = 250.0
)

// Score converts a distance in kilometers into points. The curve halves
// every 250 km, capped at 5000 below 1 km and 0 beyond 2000 km.
func Score(distanceKm float64) int {
	switch {
	case distanceKm < scoreFloorKm:
		return MaxScore
	case distanceKm > scoreCeilingKm:
		return 0
	default:
		return int(math.Round(MaxScore * math.Pow(2, -distanceKm/scoreHalfLifeKm)))
	}
}
