package forecast

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/pmulloy/kitewind/internal/metrics"
	"github.com/pmulloy/kitewind/internal/models"
)

// Blender computes a consensus forecast across the enabled base models.
// Blends are always computed fresh on top of the per-model cache; the result
// is never cached itself.
type Blender struct {
	client *Client
	models []string
}

func NewBlender(client *Client, enabled []string) *Blender {
	if len(enabled) == 0 {
		enabled = BaseModels()
	}
	return &Blender{client: client, models: enabled}
}

type modelResult struct {
	model  string
	weight float64
	points []models.ForecastPoint
}

// Daily blends the 7-day daily forecasts of every enabled model.
func (b *Blender) Daily(ctx context.Context, lat, lng float64) ([]models.ForecastPoint, error) {
	survivors, errs := b.fetchAll(func(model string) ([]models.ForecastPoint, error) {
		return b.client.FetchDaily(ctx, lat, lng, model)
	})
	if len(survivors) == 0 {
		return nil, &AllModelsFailedError{Errs: errs}
	}
	metrics.BlendsComputedTotal.WithLabelValues("daily").Inc()
	return blendPoints(survivors, forecastDays, models.GranularityDaily), nil
}

// Hourly blends the 24 hourly points of the requested day.
func (b *Blender) Hourly(ctx context.Context, lat, lng float64, dayOffset int) ([]models.ForecastPoint, error) {
	survivors, errs := b.fetchAll(func(model string) ([]models.ForecastPoint, error) {
		return b.client.FetchHourly(ctx, lat, lng, model, dayOffset)
	})
	if len(survivors) == 0 {
		return nil, &AllModelsFailedError{Errs: errs}
	}
	metrics.BlendsComputedTotal.WithLabelValues("hourly").Inc()
	return blendPoints(survivors, 24, models.GranularityHourly), nil
}

// fetchAll issues every model fetch concurrently and waits for all of them to
// settle. Partial failure is tolerated: failed models are logged and dropped,
// shrinking the ensemble instead of failing the blend.
func (b *Blender) fetchAll(fetch func(model string) ([]models.ForecastPoint, error)) ([]modelResult, []error) {
	type outcome struct {
		points []models.ForecastPoint
		err    error
	}
	outcomes := make([]outcome, len(b.models))

	var wg sync.WaitGroup
	for i, m := range b.models {
		wg.Add(1)
		go func(i int, m string) {
			defer wg.Done()
			points, err := fetch(m)
			outcomes[i] = outcome{points: points, err: err}
		}(i, m)
	}
	wg.Wait()

	var survivors []modelResult
	var errs []error
	for i, m := range b.models {
		if outcomes[i].err != nil {
			log.Printf("blend: model %s failed: %v", m, outcomes[i].err)
			errs = append(errs, outcomes[i].err)
			continue
		}
		survivors = append(survivors, modelResult{model: m, weight: Weight(m), points: outcomes[i].points})
	}
	return survivors, errs
}

// blendPoints aligns the surviving model sequences positionally (congruent
// time grids are a caller invariant) and blends one point per index.
func blendPoints(survivors []modelResult, n int, gran models.Granularity) []models.ForecastPoint {
	out := make([]models.ForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		var ts time.Time
		var winds, gusts, temps, precips, dirs, weights []float64
		for _, s := range survivors {
			if i >= len(s.points) {
				continue
			}
			p := s.points[i]
			if ts.IsZero() {
				ts = p.Time
			}
			winds = append(winds, p.WindSpeed)
			gusts = append(gusts, p.GustSpeed)
			temps = append(temps, p.Temperature)
			precips = append(precips, p.Precipitation)
			dirs = append(dirs, p.WindDirection)
			weights = append(weights, s.weight)
		}
		out = append(out, blendOne(ts, winds, gusts, temps, precips, dirs, weights, gran))
	}
	return out
}

func blendOne(ts time.Time, winds, gusts, temps, precips, dirs, weights []float64, gran models.Granularity) models.ForecastPoint {
	if len(winds) == 0 {
		return models.ForecastPoint{Time: ts}
	}

	// Spread is reported pre-trim, across every surviving model.
	spread := maxv(winds) - minv(winds)

	windMean, windKept := trimmedWeightedMean(winds, weights)
	gustMean, _ := trimmedWeightedMean(gusts, weights)
	tempMean := weightedMean(temps, weights)
	precipMean := weightedMean(precips, weights)
	dir := circularMean(dirs, weights)

	p := models.ForecastPoint{
		Time:          ts,
		WindSpeed:     round1(windMean),
		GustSpeed:     round1(gustMean),
		WindDirection: math.Mod(math.Round(dir), 360),
		Precipitation: round1(precipMean),
	}
	// The daily and hourly paths agree except for temperature precision.
	if gran == models.GranularityDaily {
		p.Temperature = round1(tempMean)
	} else {
		p.Temperature = tempMean
	}

	if len(winds) == 1 {
		p.Spread = 0
		p.Confidence = 0.5
		p.Agreement = agreementLabel(0.5)
		return p
	}

	p.Spread = round1(spread)
	overall := 0.6*confidence(windKept) + 0.4*resultantLength(dirs)
	overall = math.Round(overall*100) / 100
	p.Confidence = overall
	p.Agreement = agreementLabel(overall)
	return p
}

// weightedMean is the skill-weighted average of vals.
func weightedMean(vals, weights []float64) float64 {
	var sum, wsum float64
	for i, v := range vals {
		sum += v * weights[i]
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// trimmedWeightedMean computes the weighted mean over all values, then, when
// four or more survive, drops exactly the single value with maximum absolute
// deviation from that initial mean and recomputes. It returns the final mean
// and the post-trim values.
func trimmedWeightedMean(vals, weights []float64) (float64, []float64) {
	mean := weightedMean(vals, weights)
	if len(vals) < 4 {
		return mean, vals
	}

	drop, maxDev := 0, -1.0
	for i, v := range vals {
		if dev := math.Abs(v - mean); dev > maxDev {
			maxDev = dev
			drop = i
		}
	}

	kept := make([]float64, 0, len(vals)-1)
	keptW := make([]float64, 0, len(vals)-1)
	for i := range vals {
		if i == drop {
			continue
		}
		kept = append(kept, vals[i])
		keptW = append(keptW, weights[i])
	}
	return weightedMean(kept, keptW), kept
}

// confidence maps the dispersion of the post-trim values into [0,1]:
// clamp(1 − 2·CV), CV = population standard deviation ÷ mean. Zero spread is
// full confidence; CV at or beyond 0.5 is none.
func confidence(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	if maxv(vals) == minv(vals) {
		return 1.0
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if mean == 0 {
		return 0
	}

	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	cv := math.Sqrt(ss/float64(len(vals))) / math.Abs(mean)
	return clamp(1-2*cv, 0, 1)
}

// circularMean averages directions as skill-weighted unit vectors, avoiding
// the 350°/10° wraparound trap, and normalizes the result to [0,360).
func circularMean(degs, weights []float64) float64 {
	var x, y float64
	for i, d := range degs {
		r := d * math.Pi / 180
		x += weights[i] * math.Cos(r)
		y += weights[i] * math.Sin(r)
	}
	if x == 0 && y == 0 {
		return 0
	}
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return math.Mod(deg, 360)
}

// resultantLength is the magnitude of the unweighted unit-vector sum divided
// by N: 1.0 when every model points the same way, near 0 when they disagree
// completely.
func resultantLength(degs []float64) float64 {
	if len(degs) == 0 {
		return 0
	}
	var x, y float64
	for _, d := range degs {
		r := d * math.Pi / 180
		x += math.Cos(r)
		y += math.Sin(r)
	}
	return math.Hypot(x, y) / float64(len(degs))
}

func agreementLabel(c float64) string {
	switch {
	case c >= 0.75:
		return "high"
	case c >= 0.45:
		return "moderate"
	default:
		return "low"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func minv(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxv(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
