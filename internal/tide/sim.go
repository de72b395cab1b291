package tide

import (
	"fmt"
	"math"

	"github.com/pmulloy/kitewind/internal/models"
)

// Harmonic constants for the fallback simulation. The dominant lunar
// semi-diurnal constituent (M2) sets the rhythm; its amplitude breathes with
// a synthetic spring-neap cycle.
const (
	semiDiurnalPeriodHours = 12.42
	springNeapPeriodDays   = 14.76
	diurnalPeriodHours     = 25.82

	meanLevel       = 1.5
	semiDiurnalAmp  = 1.1
	springNeapDepth = 0.45
	diurnalAmp      = 0.25
	overtideAmp     = 0.08

	peakStepsPerDay = 240
)

// Simulate evaluates the closed-form harmonic model at (dayOffset, hour).
// It is a pure function: identical inputs always produce identical output,
// and different latitudes produce distinct but stable curves via the phase
// offset. Display plausibility only, never authoritative when real data
// exists.
func Simulate(dayOffset int, hour float64, lat float64) float64 {
	t := float64(dayOffset)*24 + hour
	phase := latPhase(lat)

	springNeap := 1 + springNeapDepth*math.Cos(2*math.Pi*t/(springNeapPeriodDays*24)+phase*0.5)
	semiDiurnal := semiDiurnalAmp * springNeap * math.Cos(2*math.Pi*t/semiDiurnalPeriodHours+phase)
	diurnal := diurnalAmp * math.Cos(2*math.Pi*t/diurnalPeriodHours+phase*1.7)
	// Shallow-water overtide at twice the M2 frequency.
	overtide := overtideAmp * math.Cos(4*math.Pi*t/semiDiurnalPeriodHours+phase*2.3)

	return meanLevel + semiDiurnal + diurnal + overtide
}

// SimulatePeaks samples the harmonic curve at fine resolution and reports
// local maxima and minima as discrete events with interpolated clock time.
func SimulatePeaks(dayOffset int, lat float64) []models.TidePeak {
	step := 24.0 / peakStepsPerDay
	var peaks []models.TidePeak

	prev := Simulate(dayOffset, -step, lat)
	cur := Simulate(dayOffset, 0, lat)
	for i := 0; i < peakStepsPerDay; i++ {
		hour := float64(i) * step
		next := Simulate(dayOffset, hour+step, lat)

		if cur > prev && cur > next {
			peaks = append(peaks, makePeak(hour, step, prev, cur, next, models.TideHigh))
		} else if cur < prev && cur < next {
			peaks = append(peaks, makePeak(hour, step, prev, cur, next, models.TideLow))
		}
		prev, cur = cur, next
	}
	return peaks
}

// makePeak refines the sampled extremum with a parabolic fit through the
// three neighboring samples, giving a clock time finer than the sample grid.
func makePeak(hour, step, prev, cur, next float64, typ models.TideType) models.TidePeak {
	offset := 0.0
	if denom := prev - 2*cur + next; denom != 0 {
		offset = 0.5 * (prev - next) / denom
	}
	at := hour + offset*step
	if at < 0 {
		at = 0
	}
	level := cur - 0.25*(prev-next)*offset
	return models.TidePeak{
		Hour:  at,
		Time:  clockTime(at),
		Level: level,
		Type:  typ,
	}
}

func clockTime(hour float64) string {
	h := int(hour)
	m := int(math.Round((hour - float64(h)) * 60))
	if m == 60 {
		h, m = h+1, 0
	}
	return fmt.Sprintf("%02d:%02d", h%24, m)
}

// latPhase derives a stable per-location phase offset so nearby spots differ
// without being random.
func latPhase(lat float64) float64 {
	return math.Mod(math.Abs(lat)*0.7, 2*math.Pi)
}
