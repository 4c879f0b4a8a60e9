package analysis

import (
	"time"

	"gridworth/domain/core"
	"gridworth/domain/series"
)

// Align restricts two matrices to their shared stations and dates.
//
// Station intersection happens before date intersection so the common-station
// count can be reported even when the periods never overlap. Returns
// core.ErrNoCommonStations when no station id appears in both matrices and
// core.ErrNoOverlap when the common stations share no dates.
func Align(ground, gridded *series.Matrix) (*series.Matrix, *series.Matrix, error) {
	var common []string
	for _, station := range ground.Stations() {
		if gridded.HasStation(station) {
			common = append(common, station)
		}
	}
	if len(common) == 0 {
		return nil, nil, core.ErrNoCommonStations
	}

	ground = ground.SelectStations(common)
	gridded = gridded.SelectStations(common)

	griddedDates := make(map[time.Time]struct{}, gridded.Rows())
	for _, d := range gridded.Dates() {
		griddedDates[d] = struct{}{}
	}
	ground = ground.SelectDates(func(d time.Time) bool {
		_, ok := griddedDates[d]
		return ok
	})

	groundDates := make(map[time.Time]struct{}, ground.Rows())
	for _, d := range ground.Dates() {
		groundDates[d] = struct{}{}
	}
	gridded = gridded.SelectDates(func(d time.Time) bool {
		_, ok := groundDates[d]
		return ok
	})

	if ground.Rows() == 0 {
		return nil, nil, core.NewNoOverlapError(len(common))
	}
	return ground, gridded, nil
}
