package analysis

import (
	"math"
	"testing"
	"time"
)

func TestAggregateMonthlyCoverageBoundary(t *testing.T) {
	// April has 30 days; 80% coverage requires 24 of them.
	apr1 := time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	m := dailyMatrix(t, apr1, 30, map[string]func(int) float64{
		"enough": func(i int) float64 {
			if i < 6 {
				return nan
			}
			return 1
		},
		"sparse": func(i int) float64 {
			if i < 7 {
				return nan
			}
			return 1
		},
	})

	monthly := AggregateMonthly(m, DefaultPolicy())
	if monthly.Rows() != 1 {
		t.Fatalf("rows = %d, want 1", monthly.Rows())
	}
	if !monthly.Dates()[0].Equal(apr1) {
		t.Errorf("monthly key = %v, want first of month", monthly.Dates()[0])
	}

	enough, _ := monthly.Column("enough")
	if !almostEqual(enough[0], 24) {
		t.Errorf("sum with 24 valid days = %v, want 24", enough[0])
	}
	sparse, _ := monthly.Column("sparse")
	if !math.IsNaN(sparse[0]) {
		t.Errorf("sum with 23 valid days = %v, want NaN", sparse[0])
	}
}

func TestAggregateMonthlyUsesCalendarLength(t *testing.T) {
	// February 2021 has 28 days; the threshold is 23, not a fixed count.
	feb1 := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	m := dailyMatrix(t, feb1, 28, map[string]func(int) float64{
		"S": func(i int) float64 {
			if i < 5 {
				return nan
			}
			return 2
		},
	})

	monthly := AggregateMonthly(m, DefaultPolicy())
	col, _ := monthly.Column("S")
	if !almostEqual(col[0], 46) {
		t.Errorf("february sum = %v, want 46 from 23 valid days", col[0])
	}
}

func TestAggregateMonthlyPartialEdgeMonth(t *testing.T) {
	// A record starting mid-month can never meet coverage for that month.
	jan15 := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	m := dailyMatrix(t, jan15, 46, map[string]func(int) float64{"S": constant(1)})

	monthly := AggregateMonthly(m, DefaultPolicy())
	if monthly.Rows() != 2 {
		t.Fatalf("rows = %d, want 2 (january and february)", monthly.Rows())
	}
	col, _ := monthly.Column("S")
	if !math.IsNaN(col[0]) {
		t.Errorf("january sum = %v, want NaN with 17 of 31 days", col[0])
	}
	// february 2020 has 29 days, all present
	if !almostEqual(col[1], 29) {
		t.Errorf("february sum = %v, want 29", col[1])
	}
}

func TestAggregateYearlyMinMonths(t *testing.T) {
	nan := math.NaN()
	nine := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, nan, nan, nan}
	eight := []float64{10, 10, 10, 10, 10, 10, 10, 10, nan, nan, nan, nan}
	monthly := monthlyMatrix(t, 2020, map[string][]float64{"nine": nine, "eight": eight})

	yearly := AggregateYearly(monthly, DefaultPolicy())
	if yearly.Rows() != 1 {
		t.Fatalf("rows = %d, want 1", yearly.Rows())
	}
	want := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !yearly.Dates()[0].Equal(want) {
		t.Errorf("yearly key = %v, want january 1st", yearly.Dates()[0])
	}

	col, _ := yearly.Column("nine")
	if !almostEqual(col[0], 90) {
		t.Errorf("sum with 9 valid months = %v, want 90", col[0])
	}
	col, _ = yearly.Column("eight")
	if !math.IsNaN(col[0]) {
		t.Errorf("sum with 8 valid months = %v, want NaN", col[0])
	}
}

func TestAggregateYearlyPropagatesMonthlyMask(t *testing.T) {
	// A month failing daily coverage is NaN in the monthly series and must
	// count as missing at the yearly level, even though daily data existed.
	jan1 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()
	m := dailyMatrix(t, jan1, 366, map[string]func(int) float64{
		"S": func(i int) float64 {
			// wipe most of april through july: four months below coverage
			d := jan1.AddDate(0, 0, i)
			if d.Month() >= time.April && d.Month() <= time.July && d.Day() > 5 {
				return nan
			}
			return 1
		},
	})

	monthly := AggregateMonthly(m, DefaultPolicy())
	yearly := AggregateYearly(monthly, DefaultPolicy())
	col, _ := yearly.Column("S")
	if !math.IsNaN(col[0]) {
		t.Errorf("yearly sum = %v, want NaN with only 8 valid months", col[0])
	}
}
