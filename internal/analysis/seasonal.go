package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"gridworth/domain/series"
	"gridworth/domain/stats"
)

// SplitBySeason partitions a matrix into four season-restricted sub-matrices
// by calendar month. No aggregation happens within a season; daily
// granularity is retained.
func SplitBySeason(m *series.Matrix) map[series.Season]*series.Matrix {
	out := make(map[series.Season]*series.Matrix, len(series.Seasons))
	for _, season := range series.Seasons {
		s := season
		sub := m.SelectDates(func(d time.Time) bool {
			return series.SeasonOf(d.Month()) == s
		})
		if sub.Rows() > 0 {
			out[s] = sub
		}
	}
	return out
}

// SeasonalStats computes one statistics table per season over aligned
// matrices. A station-season with fewer valid observations than the policy's
// seasonal floor produces no record.
func SeasonalStats(e Engine, observed, predicted *series.Matrix, p Policy) []*stats.Table {
	minPairs := p.MinSeasonDays
	if p.MinPairs > minPairs {
		minPairs = p.MinPairs
	}
	seasonEngine := e.WithMinPairs(minPairs)

	obsSeasons := SplitBySeason(observed)
	predSeasons := SplitBySeason(predicted)

	var tables []*stats.Table
	for _, season := range series.Seasons {
		obsSub, okObs := obsSeasons[season]
		predSub, okPred := predSeasons[season]
		if !okObs || !okPred {
			continue
		}
		table := seasonEngine.TableStats(stats.LevelSeasonal, obsSub, predSub)
		table.Season = season
		tables = append(tables, table)
	}
	return tables
}

// SeasonalSummary condenses per-station seasonal tables into one row per
// season: station count and mean r2, rmse, bias, mae across stations.
func SeasonalSummary(tables []*stats.Table) []stats.SeasonalSummaryRow {
	var rows []stats.SeasonalSummaryRow
	for _, table := range tables {
		if table.Season == "" || len(table.Rows) == 0 {
			continue
		}
		r2s := make([]float64, 0, len(table.Rows))
		rmses := make([]float64, 0, len(table.Rows))
		biases := make([]float64, 0, len(table.Rows))
		maes := make([]float64, 0, len(table.Rows))
		for _, rec := range table.Rows {
			if !math.IsNaN(rec.R2) {
				r2s = append(r2s, rec.R2)
			}
			rmses = append(rmses, rec.RMSE)
			biases = append(biases, rec.Bias)
			maes = append(maes, rec.MAE)
		}
		rows = append(rows, stats.SeasonalSummaryRow{
			Season:   table.Season,
			Stations: len(table.Rows),
			MeanR2:   meanOrNaN(r2s),
			MeanRMSE: meanOrNaN(rmses),
			MeanBias: meanOrNaN(biases),
			MeanMAE:  meanOrNaN(maes),
		})
	}
	return rows
}

func meanOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}
