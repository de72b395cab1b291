package tide

import (
	"math"
	"regexp"
	"testing"

	"github.com/pmulloy/kitewind/internal/models"
)

func TestSimulate_Deterministic(t *testing.T) {
	for _, lat := range []float64{-36.79, 0, 36.01, 45.71} {
		for day := 0; day < 7; day++ {
			a := Simulate(day, 13.5, lat)
			b := Simulate(day, 13.5, lat)
			if a != b {
				t.Fatalf("Simulate(%d, 13.5, %v) not deterministic: %v != %v", day, lat, a, b)
			}
		}
	}
}

func TestSimulate_DistinctCurvesPerLatitude(t *testing.T) {
	a := Simulate(0, 6, 36.01)
	b := Simulate(0, 6, 45.71)
	if a == b {
		t.Error("different latitudes produced identical levels")
	}
}

func TestSimulate_PlausibleRange(t *testing.T) {
	for h := 0.0; h < 24; h += 0.5 {
		level := Simulate(0, h, 36.01)
		if level < -1 || level > 4 {
			t.Errorf("level at hour %v = %v, outside plausible range", h, level)
		}
	}
}

func TestSimulatePeaks_AlternatingTypes(t *testing.T) {
	peaks := SimulatePeaks(0, 36.01)
	if len(peaks) < 2 {
		t.Fatalf("got %d peaks, want at least a high and a low", len(peaks))
	}

	for i := 1; i < len(peaks); i++ {
		if peaks[i].Type == peaks[i-1].Type {
			t.Errorf("peaks %d and %d are both %s", i-1, i, peaks[i].Type)
		}
		if peaks[i].Hour <= peaks[i-1].Hour {
			t.Errorf("peaks out of order: %v then %v", peaks[i-1].Hour, peaks[i].Hour)
		}
	}
}

func TestSimulatePeaks_WithinDay(t *testing.T) {
	clock := regexp.MustCompile(`^\d{2}:\d{2}$`)
	for day := 0; day < 3; day++ {
		for _, p := range SimulatePeaks(day, -33.9) {
			if p.Hour < 0 || p.Hour >= 24 {
				t.Errorf("peak hour %v outside [0,24)", p.Hour)
			}
			if !clock.MatchString(p.Time) {
				t.Errorf("peak time %q is not HH:MM", p.Time)
			}
			if p.Type != models.TideHigh && p.Type != models.TideLow {
				t.Errorf("peak type %q invalid", p.Type)
			}
		}
	}
}

func TestSimulatePeaks_HighsAboveLows(t *testing.T) {
	peaks := SimulatePeaks(0, 19.75)
	var lowestHigh, highestLow float64
	lowestHigh = math.Inf(1)
	highestLow = math.Inf(-1)
	for _, p := range peaks {
		if p.Type == models.TideHigh && p.Level < lowestHigh {
			lowestHigh = p.Level
		}
		if p.Type == models.TideLow && p.Level > highestLow {
			highestLow = p.Level
		}
	}
	if lowestHigh <= highestLow {
		t.Errorf("lowest high %v not above highest low %v", lowestHigh, highestLow)
	}
}
