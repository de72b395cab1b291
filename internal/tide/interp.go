// Package tide resolves tide data for a location through a cache/seed/fetch
// chain and degrades to a deterministic harmonic simulation when no real data
// is available.
package tide

import (
	"math"

	"github.com/pmulloy/kitewind/internal/models"
)

// InterpolateHourly expands a chronologically sorted extremes list into one
// sea-level sample per integer hour over [0, hours). Fewer than two extremes
// cannot bracket anything, so the output is empty and the caller falls back
// to simulation.
func InterpolateHourly(extremes []models.TideExtreme, hours int) []models.HourlyLevel {
	if len(extremes) < 2 {
		return nil
	}
	out := make([]models.HourlyLevel, 0, hours)
	for h := 0; h < hours; h++ {
		out = append(out, models.HourlyLevel{
			Hour:  h,
			Level: levelAt(extremes, float64(h)),
		})
	}
	return out
}

// levelAt interpolates between the bracketing extremes with a raised-cosine
// ease, which matches the sinusoidal shape of a real semi-diurnal curve.
// Outside the extremes' range the level clamps to the nearest boundary.
func levelAt(extremes []models.TideExtreme, hour float64) float64 {
	first := extremes[0]
	last := extremes[len(extremes)-1]
	if hour <= first.Hour {
		return first.Level
	}
	if hour >= last.Hour {
		return last.Level
	}

	for i := 0; i < len(extremes)-1; i++ {
		before, after := extremes[i], extremes[i+1]
		if hour < before.Hour || hour > after.Hour {
			continue
		}
		span := after.Hour - before.Hour
		if span <= 0 {
			return before.Level
		}
		t := (hour - before.Hour) / span
		return before.Level + (after.Level-before.Level)*(1-math.Cos(t*math.Pi))/2
	}
	return last.Level
}
