package stats

import (
	"gridworth/domain/series"
)

// Aggregation levels a table can be produced at.
const (
	LevelDaily       = "daily"
	LevelMonthly     = "monthly"
	LevelYearly      = "yearly"
	LevelSeasonal    = "seasonal"
	LevelHighExtreme = "high_extreme"
	LevelLowExtreme  = "low_extreme"
)

// Table maps stations to their statistics records at one aggregation level.
// Rows stay sorted by station id. A seasonal table additionally carries the
// season it was computed for.
type Table struct {
	Level  string
	Season series.Season // set only for seasonal tables
	Rows   []Record
}

// Clone returns a deep copy of the table. The outlier filter works on a
// clone so the input table is never mutated.
func (t *Table) Clone() *Table {
	rows := make([]Record, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Level: t.Level, Season: t.Season, Rows: rows}
}

// Station returns the record for a station id, if present.
func (t *Table) Station(id string) (*Record, bool) {
	for i := range t.Rows {
		if t.Rows[i].Station == id {
			return &t.Rows[i], true
		}
	}
	return nil, false
}
