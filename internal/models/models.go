package models

import (
	"fmt"
	"math"
	"time"
)

type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityHourly Granularity = "hourly"
)

// ForecastPoint is one normalized forecast timestep. Speeds are knots,
// direction is degrees, temperature celsius, precipitation millimetres.
// Sequences of points are replaced wholesale on refresh, never mutated.
type ForecastPoint struct {
	Time          time.Time `json:"time"`
	WindSpeed     float64   `json:"windSpeed"`
	GustSpeed     float64   `json:"gustSpeed"`
	WindDirection float64   `json:"windDirection"`
	Temperature   float64   `json:"temperature"`
	Precipitation float64   `json:"precipitation"`

	// Blend-only fields, zero for single-model forecasts.
	Spread     float64 `json:"spread,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Agreement  string  `json:"agreement,omitempty"`
}

type TideType string

const (
	TideHigh TideType = "high"
	TideLow  TideType = "low"
)

// TideExtreme is a discrete tidal high or low. Hour counts hours since the
// start of the 7-day fetch window, not since midnight of a single day.
type TideExtreme struct {
	Hour  float64  `json:"absHour"`
	Level float64  `json:"level"`
	Type  TideType `json:"type"`
}

// HourlyLevel is one derived sea-level sample on the integer-hour grid.
type HourlyLevel struct {
	Hour  int     `json:"absHour"`
	Level float64 `json:"level"`
}

// TidePeak is a high/low event positioned within a single day, with a
// display-ready clock time.
type TidePeak struct {
	Hour  float64  `json:"hour"`
	Time  string   `json:"time"`
	Level float64  `json:"level"`
	Type  TideType `json:"type"`
}

// TideRecord is the tide data cached for one grid cell. A record whose Date
// is not today is a cache miss.
type TideRecord struct {
	Date      string        `json:"date"` // YYYY-MM-DD, local
	Lat       float64       `json:"lat"`
	Lng       float64       `json:"lng"`
	SeaLevels []HourlyLevel `json:"seaLevels"`
	Extremes  []TideExtreme `json:"extremes"`
}

// Spot is a location the refresh scheduler keeps warm.
type Spot struct {
	Name string
	Lat  float64
	Lng  float64
}

// GridCellDegrees is the coarse spatial bucket for tide caching: nearby spots
// snap to the same cell and share one record and one in-flight fetch.
const GridCellDegrees = 0.3

// GridKey snaps a coordinate to its tide cache grid cell.
func GridKey(lat, lng float64) string {
	return fmt.Sprintf("%d:%d",
		int(math.Round(lat/GridCellDegrees)),
		int(math.Round(lng/GridCellDegrees)))
}

// DateKey formats t the way tide records are scoped.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
