package analysis

import (
	"math"
	"time"

	"gridworth/domain/series"
)

// Policy holds the missing-data thresholds the pipeline applies. The values
// are deliberate hydrology conventions; override them only with cause.
type Policy struct {
	// MonthlyCoverage is the fraction of a month's calendar days that must be
	// non-missing for the monthly sum to count.
	MonthlyCoverage float64
	// MinMonthsPerYear is how many non-missing months a year needs before its
	// sum counts.
	MinMonthsPerYear int
	// MinSeasonDays is the fewest daily observations a station-season needs
	// to produce seasonal statistics.
	MinSeasonDays int
	// MinPairs is the fewest valid pairs a station needs at any level.
	MinPairs int
}

// DefaultPolicy returns the standard thresholds: 80% monthly coverage, 9 of
// 12 months per year, 90 days per season, 10 pairs per record.
func DefaultPolicy() Policy {
	return Policy{
		MonthlyCoverage:  0.8,
		MinMonthsPerYear: 9,
		MinSeasonDays:    90,
		MinPairs:         DefaultMinPairs,
	}
}

// AggregateMonthly resamples a daily matrix to calendar-month sums. A month's
// sum is NaN unless enough of its calendar days carry values; the required
// count accounts for actual month length, 28 through 31 days. Monthly rows
// are keyed by the first day of the month.
func AggregateMonthly(m *series.Matrix, p Policy) *series.Matrix {
	dates := m.Dates()
	if len(dates) == 0 {
		return m
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	var order []monthKey
	rowIdx := make(map[monthKey][]int)
	for i, d := range dates {
		k := monthKey{d.Year(), d.Month()}
		if _, seen := rowIdx[k]; !seen {
			order = append(order, k)
		}
		rowIdx[k] = append(rowIdx[k], i)
	}

	monthDates := make([]time.Time, len(order))
	for i, k := range order {
		monthDates[i] = time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC)
	}

	columns := make(map[string][]float64, len(m.Stations()))
	for _, station := range m.Stations() {
		col, err := m.Column(station)
		if err != nil {
			continue
		}
		sums := make([]float64, len(order))
		for i, k := range order {
			sum := 0.0
			valid := 0
			for _, j := range rowIdx[k] {
				if !math.IsNaN(col[j]) {
					sum += col[j]
					valid++
				}
			}
			required := int(math.Ceil(p.MonthlyCoverage * float64(daysInMonth(k.year, k.month))))
			if valid < required {
				sums[i] = math.NaN()
			} else {
				sums[i] = sum
			}
		}
		columns[station] = sums
	}

	monthly, _ := series.NewMatrix(monthDates, columns)
	return monthly
}

// AggregateYearly resamples a monthly matrix to calendar-year sums. Yearly
// values are built from the already-masked monthly series, never directly
// from daily data, so the monthly missing-data rule propagates: a year whose
// non-missing month count falls below the minimum is NaN. Yearly rows are
// keyed by January 1st.
func AggregateYearly(monthly *series.Matrix, p Policy) *series.Matrix {
	dates := monthly.Dates()
	if len(dates) == 0 {
		return monthly
	}

	var years []int
	rowIdx := make(map[int][]int)
	for i, d := range dates {
		y := d.Year()
		if _, seen := rowIdx[y]; !seen {
			years = append(years, y)
		}
		rowIdx[y] = append(rowIdx[y], i)
	}

	yearDates := make([]time.Time, len(years))
	for i, y := range years {
		yearDates[i] = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	columns := make(map[string][]float64, len(monthly.Stations()))
	for _, station := range monthly.Stations() {
		col, err := monthly.Column(station)
		if err != nil {
			continue
		}
		sums := make([]float64, len(years))
		for i, y := range years {
			sum := 0.0
			validMonths := 0
			for _, j := range rowIdx[y] {
				if !math.IsNaN(col[j]) {
					sum += col[j]
					validMonths++
				}
			}
			if validMonths < p.MinMonthsPerYear {
				sums[i] = math.NaN()
			} else {
				sums[i] = sum
			}
		}
		columns[station] = sums
	}

	yearly, _ := series.NewMatrix(yearDates, columns)
	return yearly
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
