package analysis

import (
	"fmt"
	"math"
	"testing"

	"gridworth/domain/stats"
)

func filterConfig(t *testing.T, lower, upper float64, metrics ...string) stats.AnalysisConfig {
	t.Helper()
	cfg, err := stats.NewAnalysisConfig(true, lower, upper, metrics)
	if err != nil {
		t.Fatalf("building config: %v", err)
	}
	return cfg
}

func tableWithMetric(metric string, values []float64) *stats.Table {
	table := &stats.Table{Level: stats.LevelDaily}
	for i, v := range values {
		rec := stats.Record{Station: fmt.Sprintf("S%02d", i)}
		rec.SetMetric(metric, v)
		table.Rows = append(table.Rows, rec)
	}
	return table
}

func TestFilterOutliersLowerIsBetterClipsUpperTailOnly(t *testing.T) {
	// rmse: a very good (tiny) value must survive, a very bad one must not
	table := tableWithMetric(stats.MetricRMSE, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
	cfg := filterConfig(t, 10, 90, stats.MetricRMSE)

	filtered, suppressed := FilterOutliers(table, cfg)
	if suppressed[stats.MetricRMSE] != 1 {
		t.Fatalf("suppressed = %d, want 1", suppressed[stats.MetricRMSE])
	}
	if v, _ := filtered.Rows[9].Metric(stats.MetricRMSE); !math.IsNaN(v) {
		t.Errorf("outlying rmse = %v, want NaN", v)
	}
	if v, _ := filtered.Rows[0].Metric(stats.MetricRMSE); !almostEqual(v, 1) {
		t.Errorf("best rmse = %v, want untouched", v)
	}
}

func TestFilterOutliersHigherIsBetterClipsLowerTailOnly(t *testing.T) {
	// r2: an implausibly bad (very negative) value goes, a perfect one stays
	values := []float64{-5, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 1}
	table := tableWithMetric(stats.MetricR2, values)
	cfg := filterConfig(t, 20, 90, stats.MetricR2)

	filtered, suppressed := FilterOutliers(table, cfg)
	if suppressed[stats.MetricR2] != 1 {
		t.Fatalf("suppressed = %d, want 1", suppressed[stats.MetricR2])
	}
	if v, _ := filtered.Rows[0].Metric(stats.MetricR2); !math.IsNaN(v) {
		t.Errorf("outlying r2 = %v, want NaN", v)
	}
	if v, _ := filtered.Rows[9].Metric(stats.MetricR2); !almostEqual(v, 1) {
		t.Errorf("perfect r2 = %v, want untouched", v)
	}
}

func TestFilterOutliersTwoSidedClipsBothTails(t *testing.T) {
	// interpolated thresholds: P10 of 1..10 is 1.9, P90 is 9.1
	table := tableWithMetric(stats.MetricObsMean, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	cfg := filterConfig(t, 10, 90, stats.MetricObsMean)

	filtered, suppressed := FilterOutliers(table, cfg)
	if suppressed[stats.MetricObsMean] != 2 {
		t.Fatalf("suppressed = %d, want 2", suppressed[stats.MetricObsMean])
	}
	lo, _ := filtered.Rows[0].Metric(stats.MetricObsMean)
	hi, _ := filtered.Rows[9].Metric(stats.MetricObsMean)
	if !math.IsNaN(lo) || !math.IsNaN(hi) {
		t.Errorf("tails = %v / %v, want NaN / NaN", lo, hi)
	}
}

func TestFilterOutliersNarrowPercentilesOnLargeTable(t *testing.T) {
	// 100 rows, one absurd r2. With interpolation the 1st percentile lies
	// strictly above the sample minimum, so the outlier is clipped even at
	// the narrowest configured band.
	values := make([]float64, 100)
	for i := range values {
		values[i] = 0.9
	}
	values[37] = -50
	table := tableWithMetric(stats.MetricR2, values)
	cfg := filterConfig(t, 1, 99, stats.MetricR2)

	filtered, suppressed := FilterOutliers(table, cfg)
	if suppressed[stats.MetricR2] != 1 {
		t.Fatalf("suppressed = %d, want 1", suppressed[stats.MetricR2])
	}
	if v, _ := filtered.Rows[37].Metric(stats.MetricR2); !math.IsNaN(v) {
		t.Errorf("outlying r2 = %v, want NaN", v)
	}
	if v, _ := filtered.Rows[0].Metric(stats.MetricR2); !almostEqual(v, 0.9) {
		t.Errorf("typical r2 = %v, want untouched", v)
	}
}

func TestFilterOutliersZeroLowerPercentile(t *testing.T) {
	// lower=0 is the sample minimum: nothing lies strictly below it, and it
	// must not disable the upper-tail clipping of a lower-is-better metric.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	values[99] = 1e9
	table := tableWithMetric(stats.MetricRMSE, values)
	cfg := filterConfig(t, 0, 99, stats.MetricRMSE)

	filtered, suppressed := FilterOutliers(table, cfg)
	if suppressed[stats.MetricRMSE] != 1 {
		t.Fatalf("suppressed = %d, want 1", suppressed[stats.MetricRMSE])
	}
	if v, _ := filtered.Rows[99].Metric(stats.MetricRMSE); !math.IsNaN(v) {
		t.Errorf("outlying rmse = %v, want NaN", v)
	}
	if v, _ := filtered.Rows[0].Metric(stats.MetricRMSE); !almostEqual(v, 1) {
		t.Errorf("best rmse = %v, want untouched", v)
	}
}

func TestFilterOutliersPreservesInputAndRowCount(t *testing.T) {
	table := tableWithMetric(stats.MetricRMSE, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
	cfg := filterConfig(t, 10, 90, stats.MetricRMSE)

	filtered, _ := FilterOutliers(table, cfg)
	if len(filtered.Rows) != len(table.Rows) {
		t.Fatalf("row count changed: %d vs %d", len(filtered.Rows), len(table.Rows))
	}
	// input table untouched
	if v, _ := table.Rows[9].Metric(stats.MetricRMSE); !almostEqual(v, 100) {
		t.Errorf("input table mutated: rmse = %v, want 100", v)
	}
}

func TestFilterOutliersSkipsAllNaNColumn(t *testing.T) {
	table := tableWithMetric(stats.MetricRMSE, []float64{math.NaN(), math.NaN(), math.NaN()})
	cfg := filterConfig(t, 10, 90, stats.MetricRMSE)

	_, suppressed := FilterOutliers(table, cfg)
	if len(suppressed) != 0 {
		t.Errorf("suppressed = %v, want nothing for an all-NaN column", suppressed)
	}
}
