package analysis

import (
	"errors"
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"gridworth/domain/core"
	"gridworth/domain/series"
	"gridworth/domain/stats"
	"gridworth/internal"
)

// DefaultMinPairs is the minimum number of valid (observed, predicted) pairs
// a station needs before its statistics are considered meaningful.
const DefaultMinPairs = 10

// Engine computes goodness-of-fit statistics between aligned observed and
// predicted sequences. Pure computation, no side effects beyond logging.
type Engine struct {
	minPairs int
	log      *internal.Logger
}

// NewEngine creates a metric engine with the given pair minimum.
func NewEngine(minPairs int, logger *internal.Logger) Engine {
	if minPairs <= 0 {
		minPairs = DefaultMinPairs
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return Engine{minPairs: minPairs, log: logger}
}

// WithMinPairs returns a copy of the engine using a different pair minimum.
// The seasonal pipeline uses this to enforce its 90-observation floor.
func (e Engine) WithMinPairs(minPairs int) Engine {
	e.minPairs = minPairs
	return e
}

// StationStats computes the statistics record for one station.
//
// Indices where either sequence is NaN are dropped pairwise. Fewer than the
// configured minimum of valid pairs yields core.ErrInsufficientData and no
// record. A zero observed sum yields the record with PBIAS flagged degenerate
// alongside core.ErrDegenerateObserved, so callers must handle it explicitly.
func (e Engine) StationStats(station string, observed, predicted []float64) (stats.Record, error) {
	if len(observed) != len(predicted) {
		return stats.Record{}, fmt.Errorf("sequence length mismatch for station %s: %d vs %d",
			station, len(observed), len(predicted))
	}

	obs := make([]float64, 0, len(observed))
	pred := make([]float64, 0, len(predicted))
	for i := range observed {
		if math.IsNaN(observed[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		obs = append(obs, observed[i])
		pred = append(pred, predicted[i])
	}

	n := len(obs)
	if n < e.minPairs {
		return stats.Record{}, fmt.Errorf("%w: station %s has %d valid pairs, need %d",
			core.ErrInsufficientData, station, n, e.minPairs)
	}

	obsMean, _ := mstats.Mean(obs)
	predMean, _ := mstats.Mean(pred)

	var sumErr, sumAbsErr, sumSqErr float64
	for i := range obs {
		diff := pred[i] - obs[i]
		sumErr += diff
		sumAbsErr += math.Abs(diff)
		sumSqErr += diff * diff
	}

	rec := stats.Record{
		Station:  station,
		Count:    n,
		ObsMean:  obsMean,
		PredMean: predMean,
		Bias:     sumErr / float64(n),
		MAE:      sumAbsErr / float64(n),
		RMSE:     math.Sqrt(sumSqErr / float64(n)),
	}

	// R² and NSE share the observed-variance denominator.
	var ssTot float64
	for _, o := range obs {
		d := o - obsMean
		ssTot += d * d
	}
	if ssTot != 0 {
		rec.R2 = 1 - sumSqErr/ssTot
		rec.NSE = 1 - sumSqErr/ssTot
	} else {
		rec.R2 = math.NaN()
		rec.NSE = math.NaN()
	}

	if obsMean != 0 {
		rec.RelBias = rec.Bias / obsMean
		rec.RelRMSE = rec.RMSE / obsMean
	} else {
		rec.RelBias = math.NaN()
		rec.RelRMSE = math.NaN()
	}

	if stat.Variance(obs, nil) > 0 && stat.Variance(pred, nil) > 0 {
		rec.Corr = stat.Correlation(obs, pred, nil)
	} else {
		rec.Corr = math.NaN()
	}

	var obsSum float64
	for _, o := range obs {
		obsSum += o
	}
	if obsSum == 0 {
		rec.PBIAS = math.NaN()
		rec.DegeneratePBIAS = true
		return rec, core.NewDegenerateError(station)
	}
	rec.PBIAS = 100 * sumErr / obsSum

	return rec, nil
}

// TableStats computes a statistics table over every station shared by the
// two aligned matrices. Station-level failures are isolated: an insufficient
// sample or a degenerate observed sum never prevents the remaining stations
// from being computed.
func (e Engine) TableStats(level string, observed, predicted *series.Matrix) *stats.Table {
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

		rec, err := e.StationStats(station, obsCol, predCol)
		switch {
		case err == nil:
			table.Rows = append(table.Rows, rec)
		case errors.Is(err, core.ErrDegenerateObserved):
			// Likely a data defect (all-zero precipitation); keep the record
			// with PBIAS flagged so it is visible downstream.
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
