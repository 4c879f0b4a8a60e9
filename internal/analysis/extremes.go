package analysis

import (
	"errors"
	"math"

	mstats "github.com/montanaflynn/stats"

	"gridworth/domain/core"
	"gridworth/domain/series"
	"gridworth/domain/stats"
)

// Tail selects which side of a station's distribution the extractor keeps.
type Tail int

const (
	// TailHigh keeps observations at or above the percentile threshold.
	TailHigh Tail = iota
	// TailLow keeps observations at or below it.
	TailLow
)

// Conventional extreme-tail percentiles.
const (
	HighTailPercentile = 90
	LowTailPercentile  = 10
)

// ExtremeStats restricts each station to its observed extreme tail and runs
// the metric engine over the retained subset.
//
// The threshold is the station's own percentile over non-missing observed
// values, so thresholds differ per station: extremity is relative, not
// absolute. Predicted values play no part in selecting the subset.
func ExtremeStats(e Engine, observed, predicted *series.Matrix, percentile float64, tail Tail) *stats.Table {
	level := stats.LevelHighExtreme
	if tail == TailLow {
		level = stats.LevelLowExtreme
	}
	table := &stats.Table{Level: level}

	for _, station := range observed.Stations() {
		obsCol, err := observed.Column(station)
		if err != nil {
			continue
		}
		predCol, err := predicted.Column(station)
		if err != nil {
			continue
		}

		valid := make([]float64, 0, len(obsCol))
		for _, v := range obsCol {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		threshold, err := mstats.Percentile(valid, percentile)
		if err != nil {
			e.log.Debug("%s stats: station %s has no valid observations", level, station)
			continue
		}

		obsTail := make([]float64, 0, len(obsCol))
		predTail := make([]float64, 0, len(predCol))
		for i, v := range obsCol {
			if math.IsNaN(v) {
				continue
			}
			if (tail == TailHigh && v >= threshold) || (tail == TailLow && v <= threshold) {
				obsTail = append(obsTail, v)
				predTail = append(predTail, predCol[i])
			}
		}

		rec, err := e.StationStats(station, obsTail, predTail)
		switch {
		case err == nil:
			table.Rows = append(table.Rows, rec)
		case errors.Is(err, core.ErrDegenerateObserved):
			e.log.Warn("%s stats: %v", level, err)
			table.Rows = append(table.Rows, rec)
		case errors.Is(err, core.ErrInsufficientData):
			e.log.Debug("%s stats: %v", level, err)
		default:
			e.log.Error("%s stats for station %s: %v", level, station, err)
		}
	}
	return table
}
