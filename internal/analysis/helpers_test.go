package analysis

import (
	"math"
	"testing"
	"time"

	"gridworth/domain/series"
)

// dailyMatrix builds a matrix of consecutive daily dates starting at start,
// with one column per station produced by its generator.
func dailyMatrix(t *testing.T, start time.Time, days int, generators map[string]func(i int) float64) *series.Matrix {
	t.Helper()
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	columns := make(map[string][]float64, len(generators))
	for station, gen := range generators {
		col := make([]float64, days)
		for i := range col {
			col[i] = gen(i)
		}
		columns[station] = col
	}
	m, err := series.NewMatrix(dates, columns)
	if err != nil {
		t.Fatalf("building daily matrix: %v", err)
	}
	return m
}

// monthlyMatrix builds a matrix keyed by the first of each month.
func monthlyMatrix(t *testing.T, year int, values map[string][]float64) *series.Matrix {
	t.Helper()
	dates := make([]time.Time, 12)
	for i := range dates {
		dates[i] = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
	}
	m, err := series.NewMatrix(dates, values)
	if err != nil {
		t.Fatalf("building monthly matrix: %v", err)
	}
	return m
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}
