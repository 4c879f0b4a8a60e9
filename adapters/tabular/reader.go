package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gridworth/domain/core"
	"gridworth/domain/series"
	"gridworth/internal"
	apperrors "gridworth/internal/errors"
)

// Input file conventions. Gridded files are named <dataset>_precipitation
// with a csv or xlsx extension; the ground file is ground_daily_precipitation.
const (
	groundFileStem  = "ground_daily_precipitation"
	griddedFileGlob = "*_precipitation"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01"}

// Reader loads precipitation matrices from a data directory. It implements
// ports.MatrixSource over CSV and XLSX files sharing one layout: a date
// column first, one column per station after it, blank cells for missing
// values.
type Reader struct {
	dataDir   string
	startYear int
	endYear   int
	log       *internal.Logger
}

// NewReader creates a reader over dataDir. A non-zero year range clips every
// loaded matrix to [startYear-01-01, endYear-12-31].
func NewReader(dataDir string, startYear, endYear int, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{dataDir: dataDir, startYear: startYear, endYear: endYear, log: logger}
}

// Ground loads the ground-observation matrix.
func (r *Reader) Ground(ctx context.Context) (*series.Matrix, error) {
	path, ok := r.findFile(groundFileStem)
	if !ok {
		return nil, fmt.Errorf("%w: no %s.csv or .xlsx in %s",
			core.ErrGroundDataMissing, groundFileStem, r.dataDir)
	}
	m, err := r.readMatrix(path)
	if err != nil {
		return nil, apperrors.ReadError(path, err)
	}
	r.log.Info("loaded ground data from %s: %d dates x %d stations",
		filepath.Base(path), m.Rows(), len(m.Stations()))
	return m, nil
}

// Gridded discovers and loads every gridded-product matrix in the data
// directory, keyed by uppercase dataset name. A file that fails to parse is
// skipped with a log entry rather than failing the whole load.
func (r *Reader) Gridded(ctx context.Context) (map[string]*series.Matrix, error) {
	var paths []string
	for _, ext := range []string{".csv", ".xlsx"} {
		matches, err := filepath.Glob(filepath.Join(r.dataDir, griddedFileGlob+ext))
		if err != nil {
			return nil, apperrors.ReadError(r.dataDir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	out := make(map[string]*series.Matrix)
	for _, path := range paths {
		name := datasetName(path)
		if name == "" {
			continue
		}
		if _, dup := out[name]; dup {
			r.log.Warn("skipping %s: dataset %s already loaded", filepath.Base(path), name)
			continue
		}
		m, err := r.readMatrix(path)
		if err != nil {
			r.log.Error("skipping %s: %v", filepath.Base(path), err)
			continue
		}
		out[name] = m
		r.log.Info("loaded %s data from %s: %d dates x %d stations",
			name, filepath.Base(path), m.Rows(), len(m.Stations()))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s",
			core.ErrNoGriddedDatasets, griddedFileGlob, r.dataDir)
	}
	return out, nil
}

// datasetName maps a gridded file path to its uppercase dataset name, or ""
// for the ground file.
func datasetName(path string) string {
	base := filepath.Base(path)
	if strings.Contains(base, "ground") {
		return ""
	}
	stem, _, ok := strings.Cut(base, "_")
	if !ok || stem == "" {
		return ""
	}
	return strings.ToUpper(stem)
}

func (r *Reader) findFile(stem string) (string, bool) {
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(r.dataDir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func (r *Reader) readMatrix(path string) (*series.Matrix, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readXLSXRows(path)
	} else {
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	m, err := parseMatrix(rows)
	if err != nil {
		return nil, err
	}
	return r.clipYears(m), nil
}

func (r *Reader) clipYears(m *series.Matrix) *series.Matrix {
	if r.startYear == 0 && r.endYear == 0 {
		return m
	}
	start := time.Date(r.startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(r.endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	return m.ClipRange(start, end)
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated during parsing with row context
	return reader.ReadAll()
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	return f.GetRows(sheet)
}

// parseMatrix turns header+rows into a Matrix. The first column holds dates;
// every other header cell names a station. Blank or unparseable cells become
// NaN. Rows are sorted by date before matrix construction, so files exported
// in any order still satisfy the strictly-increasing invariant.
func parseMatrix(rows [][]string) (*series.Matrix, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file has no data rows")
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("header has no station columns")
	}
	stations := header[1:]
	seen := make(map[string]struct{}, len(stations))
	for _, station := range stations {
		if _, dup := seen[station]; dup {
			return nil, fmt.Errorf("duplicate station column %q", station)
		}
		seen[station] = struct{}{}
	}

	type row struct {
		date   time.Time
		values []float64
	}
	parsed := make([]row, 0, len(rows)-1)
	for i, record := range rows[1:] {
		if len(record) == 0 || record[0] == "" {
			continue
		}
		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		values := make([]float64, len(stations))
		for j := range stations {
			values[j] = parseCell(record, j+1)
		}
		parsed = append(parsed, row{date: date, values: values})
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("file has no data rows")
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].date.Before(parsed[j].date) })

	dates := make([]time.Time, len(parsed))
	for i := range parsed {
		dates[i] = parsed[i].date
	}
	columns := make(map[string][]float64, len(stations))
	for j, station := range stations {
		col := make([]float64, len(parsed))
		for i := range parsed {
			col[i] = parsed[i].values[j]
		}
		columns[station] = col
	}

	return series.NewMatrix(dates, columns)
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, cell); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", cell)
}

func parseCell(record []string, idx int) float64 {
	if idx >= len(record) {
		return math.NaN()
	}
	cell := strings.TrimSpace(record[idx])
	if cell == "" || strings.EqualFold(cell, "nan") || strings.EqualFold(cell, "na") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
