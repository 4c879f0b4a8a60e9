package series

// ValidationFlags reports whether one station has enough history for each
// aggregation tier. The flags describe analyzability; they never block
// computation.
type ValidationFlags struct {
	Station         string
	DailyEligible   bool // at least one year of daily values
	MonthlyEligible bool // data in at least two calendar years
	YearlyEligible  bool // data in at least five calendar years
}

// AllTiers reports whether the station qualifies for every aggregation tier.
func (f ValidationFlags) AllTiers() bool {
	return f.DailyEligible && f.MonthlyEligible && f.YearlyEligible
}
