package analysis

import (
	"math"
	"testing"
	"time"

	"gridworth/domain/stats"
)

func TestExtremeStatsHighTail(t *testing.T) {
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	m := dailyMatrix(t, jan1, 100, map[string]func(int) float64{
		"S": func(i int) float64 { return float64(i + 1) },
	})

	e := NewEngine(DefaultMinPairs, nil)
	table := ExtremeStats(e, m, m, HighTailPercentile, TailHigh)
	if table.Level != stats.LevelHighExtreme {
		t.Fatalf("level = %q, want high_extreme", table.Level)
	}
	rec, ok := table.Station("S")
	if !ok {
		t.Fatal("station missing from high-extreme table")
	}
	// P90 of 1..100 is 90; values 90..100 are retained
	if rec.Count != 11 {
		t.Errorf("count = %d, want 11", rec.Count)
	}
	if !almostEqual(rec.RMSE, 0) || !almostEqual(rec.R2, 1) {
		t.Errorf("rmse=%v r2=%v, want perfect fit on the tail", rec.RMSE, rec.R2)
	}
	if !almostEqual(rec.ObsMean, 95) {
		t.Errorf("obs_mean = %v, want 95", rec.ObsMean)
	}
}

func TestExtremeStatsLowTail(t *testing.T) {
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	m := dailyMatrix(t, jan1, 100, map[string]func(int) float64{
		"S": func(i int) float64 { return float64(i + 1) },
	})

	e := NewEngine(DefaultMinPairs, nil)
	table := ExtremeStats(e, m, m, LowTailPercentile, TailLow)
	if table.Level != stats.LevelLowExtreme {
		t.Fatalf("level = %q, want low_extreme", table.Level)
	}
	rec, ok := table.Station("S")
	if !ok {
		t.Fatal("station missing from low-extreme table")
	}
	// P10 of 1..100 is 10; values 1..10 are retained
	if rec.Count != 10 {
		t.Errorf("count = %d, want 10", rec.Count)
	}
	if !almostEqual(rec.ObsMean, 5.5) {
		t.Errorf("obs_mean = %v, want 5.5", rec.ObsMean)
	}
}

func TestExtremeStatsThresholdIsPerStation(t *testing.T) {
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	m := dailyMatrix(t, jan1, 100, map[string]func(int) float64{
		"wet": func(i int) float64 { return float64(i + 1001) },
		"dry": func(i int) float64 { return float64(i + 1) },
	})

	e := NewEngine(DefaultMinPairs, nil)
	table := ExtremeStats(e, m, m, HighTailPercentile, TailHigh)

	dry, okDry := table.Station("dry")
	wet, okWet := table.Station("wet")
	if !okDry || !okWet {
		t.Fatal("both stations should produce records")
	}
	if dry.Count != wet.Count {
		t.Errorf("tail sizes differ: dry %d, wet %d", dry.Count, wet.Count)
	}
	// a dry-station extreme would not register at the wet station
	if wet.ObsMean <= dry.ObsMean {
		t.Errorf("thresholds not relative: wet mean %v, dry mean %v", wet.ObsMean, dry.ObsMean)
	}
}

func TestExtremeStatsSkipsAllMissingStation(t *testing.T) {
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	m := dailyMatrix(t, jan1, 100, map[string]func(int) float64{
		"ok":    func(i int) float64 { return float64(i + 1) },
		"empty": func(int) float64 { return nan },
	})

	e := NewEngine(DefaultMinPairs, nil)
	table := ExtremeStats(e, m, m, HighTailPercentile, TailHigh)
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	if _, ok := table.Station("empty"); ok {
		t.Error("all-missing station produced a record")
	}
}
