package analysis

import (
	"math"
	"sort"

	"gridworth/domain/stats"
)

// FilterOutliers suppresses outlying metric values in a statistics table,
// returning a new table and per-metric suppression counts. The input table is
// never mutated and no row is ever removed; clipped cells become NaN.
//
// Direction decides which tail is at risk: for higher-is-better metrics only
// values strictly below the lower-percentile threshold are suppressed, for
// lower-is-better metrics only values strictly above the upper-percentile
// threshold, and unclassified metrics lose both tails. Thresholds are
// linearly interpolated percentiles of the table's non-missing values for
// that metric, so a lower percentile over a clean sample sits strictly above
// the minimum and a genuine outlier below it is always clipped.
//
// The filter is a one-shot post-processing transform. Re-applying it to its
// own output recomputes thresholds over the reduced sample and is
// unsupported; run it once per table instance.
func FilterOutliers(table *stats.Table, cfg stats.AnalysisConfig) (*stats.Table, map[string]int) {
	out := table.Clone()
	suppressed := make(map[string]int)

	for _, metric := range cfg.FilterTargets() {
		values := make([]float64, 0, len(out.Rows))
		for i := range out.Rows {
			if v, ok := out.Rows[i].Metric(metric); ok && !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		lower := interpolatedPercentile(values, cfg.LowerPercentile)
		upper := interpolatedPercentile(values, cfg.UpperPercentile)

		direction := stats.DirectionOf(metric)
		for i := range out.Rows {
			v, ok := out.Rows[i].Metric(metric)
			if !ok || math.IsNaN(v) {
				continue
			}
			drop := false
			switch direction {
			case stats.HigherIsBetter:
				drop = v < lower
			case stats.LowerIsBetter:
				drop = v > upper
			default:
				drop = v < lower || v > upper
			}
			if drop {
				out.Rows[i].SetMetric(metric, math.NaN())
				suppressed[metric]++
			}
		}
	}

	return out, suppressed
}

// interpolatedPercentile returns the percent-th percentile of values,
// linearly interpolating between adjacent order statistics. Percent 0 and
// 100 map to the sample minimum and maximum. values must be non-empty and
// NaN-free.
func interpolatedPercentile(values []float64, percent float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := percent / 100 * float64(len(sorted)-1)
	i := int(h)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-float64(i))*(sorted[i+1]-sorted[i])
}
