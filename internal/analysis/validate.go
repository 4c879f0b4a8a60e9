package analysis

import (
	"math"

	"gridworth/domain/series"
)

// Eligibility thresholds for the validation tiers.
const (
	// MinDailyObservations is one year of daily values.
	MinDailyObservations = 365
	// MinYearsForMonthly and MinYearsForYearly count calendar years holding
	// any data at all.
	MinYearsForMonthly = 2
	MinYearsForYearly  = 5
)

// ValidateCoverage derives per-station eligibility flags from the ground
// matrix. The flags report analyzability per aggregation tier; they never
// gate the pipeline itself.
func ValidateCoverage(m *series.Matrix) []series.ValidationFlags {
	dates := m.Dates()
	flags := make([]series.ValidationFlags, 0, len(m.Stations()))
	for _, station := range m.Stations() {
		col, err := m.Column(station)
		if err != nil {
			continue
		}
		totalValid := 0
		yearsWithData := make(map[int]struct{})
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}
			totalValid++
			yearsWithData[dates[i].Year()] = struct{}{}
		}
		flags = append(flags, series.ValidationFlags{
			Station:         station,
			DailyEligible:   totalValid >= MinDailyObservations,
			MonthlyEligible: len(yearsWithData) >= MinYearsForMonthly,
			YearlyEligible:  len(yearsWithData) >= MinYearsForYearly,
		})
	}
	return flags
}
