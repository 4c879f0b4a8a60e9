package stats

import (
	"fmt"

	"gridworth/domain/core"
)

// AnalysisConfig controls the outlier filtering applied to computed
// statistics tables. It is validated at construction and immutable after.
type AnalysisConfig struct {
	FilterExtremes  bool
	LowerPercentile float64
	UpperPercentile float64
	// MetricsToFilter names the metric columns the filter touches.
	// Empty means every metric column.
	MetricsToFilter []string
}

// NewAnalysisConfig validates and builds an AnalysisConfig. Percentiles must
// satisfy 0 <= lower < upper <= 100; invalid ranges are rejected, never
// clamped.
func NewAnalysisConfig(filterExtremes bool, lower, upper float64, metrics []string) (AnalysisConfig, error) {
	if lower < 0 || upper > 100 {
		return AnalysisConfig{}, core.NewConfigError("percentiles",
			fmt.Sprintf("must lie in [0,100], got [%.2f, %.2f]", lower, upper))
	}
	if lower >= upper {
		return AnalysisConfig{}, core.NewConfigError("percentiles",
			fmt.Sprintf("lower %.2f must be below upper %.2f", lower, upper))
	}
	for _, m := range metrics {
		if !knownMetric(m) {
			return AnalysisConfig{}, core.NewConfigError("metrics_to_filter",
				fmt.Sprintf("unknown metric %q", m))
		}
	}
	return AnalysisConfig{
		FilterExtremes:  filterExtremes,
		LowerPercentile: lower,
		UpperPercentile: upper,
		MetricsToFilter: metrics,
	}, nil
}

// NoFiltering is the explicit "do not filter" configuration. The percentile
// bounds are valid placeholders and never consulted.
func NoFiltering() AnalysisConfig {
	return AnalysisConfig{FilterExtremes: false, LowerPercentile: 1, UpperPercentile: 99}
}

// FilterTargets returns the metric columns the filter should consider.
func (c AnalysisConfig) FilterTargets() []string {
	if len(c.MetricsToFilter) == 0 {
		return MetricNames
	}
	return c.MetricsToFilter
}

func knownMetric(name string) bool {
	for _, m := range MetricNames {
		if m == name {
			return true
		}
	}
	return false
}
