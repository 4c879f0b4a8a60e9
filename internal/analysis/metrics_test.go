package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"gridworth/domain/core"
	"gridworth/domain/stats"
)

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestStationStatsPerfectFit(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	obs := sequence(20)

	rec, err := e.StationStats("S1", obs, obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Count != 20 {
		t.Errorf("count = %d, want 20", rec.Count)
	}
	if !almostEqual(rec.Bias, 0) || !almostEqual(rec.MAE, 0) || !almostEqual(rec.RMSE, 0) {
		t.Errorf("error metrics not zero: bias=%v mae=%v rmse=%v", rec.Bias, rec.MAE, rec.RMSE)
	}
	if !almostEqual(rec.R2, 1) || !almostEqual(rec.NSE, 1) {
		t.Errorf("r2=%v nse=%v, want 1", rec.R2, rec.NSE)
	}
	if !almostEqual(rec.Corr, 1) {
		t.Errorf("corr = %v, want 1", rec.Corr)
	}
	if !almostEqual(rec.PBIAS, 0) {
		t.Errorf("pbias = %v, want 0", rec.PBIAS)
	}
}

func TestStationStatsConstantOffset(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	obs := sequence(20)
	pred := make([]float64, len(obs))
	for i, v := range obs {
		pred[i] = v + 2
	}

	rec, err := e.StationStats("S1", obs, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(rec.Bias, 2) || !almostEqual(rec.MAE, 2) || !almostEqual(rec.RMSE, 2) {
		t.Errorf("bias=%v mae=%v rmse=%v, want 2", rec.Bias, rec.MAE, rec.RMSE)
	}
	// sum of squared deviations of 1..20 from 10.5 is 665
	wantR2 := 1 - 80.0/665.0
	if !almostEqual(rec.R2, wantR2) {
		t.Errorf("r2 = %v, want %v", rec.R2, wantR2)
	}
	if rec.R2 != rec.NSE {
		t.Errorf("r2 %v and nse %v disagree", rec.R2, rec.NSE)
	}
	if !almostEqual(rec.PBIAS, 100*40.0/210.0) {
		t.Errorf("pbias = %v, want %v", rec.PBIAS, 100*40.0/210.0)
	}
	if !almostEqual(rec.RelBias, 2/10.5) {
		t.Errorf("rel_bias = %v, want %v", rec.RelBias, 2/10.5)
	}
	if !almostEqual(rec.Corr, 1) {
		t.Errorf("corr = %v, want 1 after constant shift", rec.Corr)
	}
}

func TestStationStatsPairwiseNaN(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	obs := sequence(15)
	pred := sequence(15)
	nan := math.NaN()
	obs[0], obs[3] = nan, nan
	pred[3], pred[7] = nan, nan // index 3 missing on both sides counts once

	rec, err := e.StationStats("S1", obs, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Count != 12 {
		t.Errorf("count = %d, want 12 after pairwise removal", rec.Count)
	}
	if !almostEqual(rec.RMSE, 0) {
		t.Errorf("rmse = %v, want 0", rec.RMSE)
	}
}

func TestStationStatsInsufficientData(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	_, err := e.StationStats("S1", sequence(5), sequence(5))
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

func TestStationStatsDegenerateObserved(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	obs := make([]float64, 12)
	pred := make([]float64, 12)
	for i := range pred {
		pred[i] = 1
	}

	rec, err := e.StationStats("S1", obs, pred)
	if !errors.Is(err, core.ErrDegenerateObserved) {
		t.Fatalf("error = %v, want ErrDegenerateObserved", err)
	}
	if !rec.DegeneratePBIAS {
		t.Error("record not flagged degenerate")
	}
	if !math.IsNaN(rec.PBIAS) {
		t.Errorf("pbias = %v, want NaN", rec.PBIAS)
	}
	// the rest of the record is still populated
	if !almostEqual(rec.Bias, 1) || !almostEqual(rec.RMSE, 1) {
		t.Errorf("bias=%v rmse=%v, want 1", rec.Bias, rec.RMSE)
	}
	// zero observed mean and variance make relative and fit metrics undefined
	if !math.IsNaN(rec.RelBias) || !math.IsNaN(rec.R2) || !math.IsNaN(rec.Corr) {
		t.Errorf("rel_bias=%v r2=%v corr=%v, want NaN", rec.RelBias, rec.R2, rec.Corr)
	}
}

func TestStationStatsRMSEBoundsMAE(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 10 + rng.Intn(200)
		obs := make([]float64, n)
		pred := make([]float64, n)
		for i := range obs {
			obs[i] = rng.Float64() * 50
			pred[i] = rng.Float64() * 50
		}

		rec, err := e.StationStats("S1", obs, pred)
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}
		if rec.RMSE < rec.MAE {
			t.Fatalf("trial %d: rmse %v < mae %v", trial, rec.RMSE, rec.MAE)
		}
		if rec.RMSE < 0 || rec.MAE < 0 {
			t.Fatalf("trial %d: negative error norm: rmse=%v mae=%v", trial, rec.RMSE, rec.MAE)
		}
	}
}

func TestStationStatsLengthMismatch(t *testing.T) {
	e := NewEngine(DefaultMinPairs, nil)
	_, err := e.StationStats("S1", sequence(10), sequence(11))
	if err == nil {
		t.Fatal("expected error on mismatched lengths")
	}
	if errors.Is(err, core.ErrInsufficientData) || errors.Is(err, core.ErrDegenerateObserved) {
		t.Errorf("length mismatch mapped to a data sentinel: %v", err)
	}
}

func TestTableStatsIsolatesStationFailures(t *testing.T) {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	obs := dailyMatrix(t, start, 30, map[string]func(int) float64{
		"good": func(i int) float64 { return float64(i + 1) },
		"short": func(i int) float64 {
			if i < 5 {
				return float64(i + 1)
			}
			return nan
		},
		"zeros": constant(0),
	})
	pred := dailyMatrix(t, start, 30, map[string]func(int) float64{
		"good":  func(i int) float64 { return float64(i + 1) },
		"short": func(i int) float64 { return float64(i + 1) },
		"zeros": constant(1),
	})

	e := NewEngine(DefaultMinPairs, nil)
	table := e.TableStats(stats.LevelDaily, obs, pred)

	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (short station dropped)", len(table.Rows))
	}
	if _, ok := table.Station("short"); ok {
		t.Error("insufficient-data station produced a record")
	}
	rec, ok := table.Station("zeros")
	if !ok {
		t.Fatal("degenerate station missing from table")
	}
	if !rec.DegeneratePBIAS {
		t.Error("degenerate station not flagged")
	}
	if good, ok := table.Station("good"); !ok || !almostEqual(good.R2, 1) {
		t.Errorf("good station record wrong: %+v", good)
	}
}
