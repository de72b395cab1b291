package models

import (
	"testing"
	"time"
)

func TestGridKey_NearbySpotsShareCell(t *testing.T) {
	// Spots within the same 0.3 degree cell share a tide record.
	a := GridKey(36.01, -5.60)
	b := GridKey(36.04, -5.56)
	if a != b {
		t.Errorf("GridKey mismatch for nearby spots: %s vs %s", a, b)
	}
}

func TestGridKey_DistantSpotsDiffer(t *testing.T) {
	a := GridKey(36.01, -5.60)
	b := GridKey(37.01, -5.60)
	if a == b {
		t.Errorf("GridKey %s shared by spots a degree apart", a)
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	if got := DateKey(ts); got != "2026-08-28" {
		t.Errorf("DateKey = %s, want 2026-08-28", got)
	}
}
