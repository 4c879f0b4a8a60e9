package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gridworth/domain/core"
)

// Matrix holds one precipitation value per (date, station) pair. All stations
// share the same date index; missing observations are NaN. Dates are strictly
// increasing with no duplicates.
type Matrix struct {
	dates    []time.Time
	stations []string
	columns  map[string][]float64
}

// NewMatrix builds a matrix from a date index and per-station columns.
// Stations iterate in sorted order so downstream output is deterministic.
func NewMatrix(dates []time.Time, columns map[string][]float64) (*Matrix, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: index %d (%s) follows %s",
				core.ErrDatesNotIncreasing, i, dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}

	stations := make([]string, 0, len(columns))
	for station, values := range columns {
		if len(values) != len(dates) {
			return nil, fmt.Errorf("%w: station %s has %d values for %d dates",
				core.ErrColumnLength, station, len(values), len(dates))
		}
		stations = append(stations, station)
	}
	sort.Strings(stations)

	return &Matrix{dates: dates, stations: stations, columns: columns}, nil
}

// Rows returns the length of the date index.
func (m *Matrix) Rows() int {
	return len(m.dates)
}

// Dates returns the shared date index. Callers must not mutate it.
func (m *Matrix) Dates() []time.Time {
	return m.dates
}

// Stations returns station ids in sorted order. Callers must not mutate it.
func (m *Matrix) Stations() []string {
	return m.stations
}

// HasStation reports whether the matrix contains the station.
func (m *Matrix) HasStation(station string) bool {
	_, ok := m.columns[station]
	return ok
}

// Column returns the value series for one station.
func (m *Matrix) Column(station string) ([]float64, error) {
	values, ok := m.columns[station]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrStationNotFound, station)
	}
	return values, nil
}

// SelectStations returns a new matrix restricted to the given stations.
// Unknown stations are silently dropped.
func (m *Matrix) SelectStations(stations []string) *Matrix {
	columns := make(map[string][]float64)
	kept := make([]string, 0, len(stations))
	for _, station := range stations {
		if values, ok := m.columns[station]; ok {
			columns[station] = values
			kept = append(kept, station)
		}
	}
	sort.Strings(kept)
	return &Matrix{dates: m.dates, stations: kept, columns: columns}
}

// SelectDates returns a new matrix containing only the rows whose date
// satisfies keep. Column slices are copied.
func (m *Matrix) SelectDates(keep func(time.Time) bool) *Matrix {
	idx := make([]int, 0, len(m.dates))
	for i, d := range m.dates {
		if keep(d) {
			idx = append(idx, i)
		}
	}
	return m.subset(idx)
}

// ClipRange returns a new matrix restricted to dates within [start, end]
// inclusive. A zero bound is treated as unbounded on that side.
func (m *Matrix) ClipRange(start, end time.Time) *Matrix {
	return m.SelectDates(func(d time.Time) bool {
		if !start.IsZero() && d.Before(start) {
			return false
		}
		if !end.IsZero() && d.After(end) {
			return false
		}
		return true
	})
}

// Scale returns a new matrix with every value multiplied by factor.
// NaN values stay NaN. A factor of 1 returns the receiver unchanged.
func (m *Matrix) Scale(factor float64) *Matrix {
	if factor == 1 {
		return m
	}
	columns := make(map[string][]float64, len(m.columns))
	for station, values := range m.columns {
		scaled := make([]float64, len(values))
		for i, v := range values {
			scaled[i] = v * factor
		}
		columns[station] = scaled
	}
	stations := append([]string(nil), m.stations...)
	return &Matrix{dates: m.dates, stations: stations, columns: columns}
}

// ValidCount returns the number of non-NaN values for one station.
func (m *Matrix) ValidCount(station string) int {
	values, ok := m.columns[station]
	if !ok {
		return 0
	}
	count := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			count++
		}
	}
	return count
}

func (m *Matrix) subset(idx []int) *Matrix {
	dates := make([]time.Time, len(idx))
	for i, j := range idx {
		dates[i] = m.dates[j]
	}
	columns := make(map[string][]float64, len(m.columns))
	for station, values := range m.columns {
		sub := make([]float64, len(idx))
		for i, j := range idx {
			sub[i] = values[j]
		}
		columns[station] = sub
	}
	stations := append([]string(nil), m.stations...)
	return &Matrix{dates: dates, stations: stations, columns: columns}
}
