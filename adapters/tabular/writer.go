package tabular

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"gridworth/domain/stats"
	"gridworth/internal"
	apperrors "gridworth/internal/errors"
)

// Format selects the on-disk encoding for statistics tables.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Per-dataset output file stems.
const (
	fileDaily           = "daily_stats"
	fileMonthly         = "monthly_stats"
	fileYearly          = "yearly_stats"
	fileSeasonal        = "seasonal_stats"
	fileLowExtreme      = "low_extreme_stats"
	fileHighExtreme     = "high_extreme_stats"
	fileValidation      = "data_validation"
	fileSeasonalSummary = "seasonal_summary"
	fileSummary         = "analysis_summary"
	fileRunSummary      = "run_summary.json"
)

// Writer persists analysis output under a results directory, one
// subdirectory per dataset. It implements ports.TableSink.
//
// Each dataset is written to a staging directory first and moved into place
// with a single rename, so readers of the results tree never observe a
// half-written dataset.
type Writer struct {
	resultsDir string
	format     Format
	log        *internal.Logger
}

// NewWriter creates a writer rooted at resultsDir.
func NewWriter(resultsDir string, format Format, logger *internal.Logger) *Writer {
	if format == "" {
		format = FormatCSV
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{resultsDir: resultsDir, format: format, log: logger}
}

// WriteDatasetResult persists every table of one dataset's result bundle.
func (w *Writer) WriteDatasetResult(ctx context.Context, result *stats.DatasetResult) error {
	if err := os.MkdirAll(w.resultsDir, 0o755); err != nil {
		return apperrors.WriteError(w.resultsDir, err)
	}
	staging, err := os.MkdirTemp(w.resultsDir, "."+result.Dataset+"-")
	if err != nil {
		return apperrors.WriteError(w.resultsDir, err)
	}
	defer os.RemoveAll(staging)

	if err := w.writeTables(staging, result); err != nil {
		return err
	}

	final := filepath.Join(w.resultsDir, result.Dataset)
	if err := os.RemoveAll(final); err != nil {
		return apperrors.WriteError(final, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return apperrors.WriteError(final, err)
	}
	w.log.Info("results saved to %s", final)
	return nil
}

// WriteRunSummary persists the run summary as JSON at the results root.
func (w *Writer) WriteRunSummary(ctx context.Context, run *stats.RunSummary) error {
	if err := os.MkdirAll(w.resultsDir, 0o755); err != nil {
		return apperrors.WriteError(w.resultsDir, err)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "encoding run summary")
	}
	path := filepath.Join(w.resultsDir, fileRunSummary)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.WriteError(path, err)
	}
	return nil
}

func (w *Writer) writeTables(dir string, result *stats.DatasetResult) error {
	stemForLevel := map[string]string{
		stats.LevelDaily:       fileDaily,
		stats.LevelMonthly:     fileMonthly,
		stats.LevelYearly:      fileYearly,
		stats.LevelLowExtreme:  fileLowExtreme,
		stats.LevelHighExtreme: fileHighExtreme,
	}

	var seasonal []*stats.Table
	for _, table := range result.Tables {
		if table.Level == stats.LevelSeasonal {
			seasonal = append(seasonal, table)
			continue
		}
		stem, ok := stemForLevel[table.Level]
		if !ok {
			return apperrors.New(apperrors.CodeInternalError,
				fmt.Sprintf("no output file for table level %q", table.Level))
		}
		if err := w.writeRows(dir, stem, statsHeader(false), statsRows(table, false)); err != nil {
			return err
		}
	}

	// all seasons combined into one table, season as the leading column
	var seasonalRows [][]string
	for _, table := range seasonal {
		seasonalRows = append(seasonalRows, statsRows(table, true)...)
	}
	if err := w.writeRows(dir, fileSeasonal, statsHeader(true), seasonalRows); err != nil {
		return err
	}

	if err := w.writeRows(dir, fileValidation, validationHeader(), validationRows(result)); err != nil {
		return err
	}
	if err := w.writeRows(dir, fileSeasonalSummary, seasonalSummaryHeader(), seasonalSummaryRows(result)); err != nil {
		return err
	}
	return w.writeRows(dir, fileSummary, summaryHeader(), summaryRows(result))
}

func (w *Writer) writeRows(dir, stem string, header []string, rows [][]string) error {
	if w.format == FormatXLSX {
		return writeXLSX(filepath.Join(dir, stem+".xlsx"), header, rows)
	}
	return writeCSV(filepath.Join(dir, stem+".csv"), header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WriteError(path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return apperrors.WriteError(path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return apperrors.WriteError(path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return apperrors.WriteError(path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.WriteError(path, err)
	}
	return nil
}

func writeXLSX(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	toAny := func(row []string) *[]interface{} {
		out := make([]interface{}, len(row))
		for i, cell := range row {
			out[i] = cell
		}
		return &out
	}
	if err := f.SetSheetRow(sheet, "A1", toAny(header)); err != nil {
		return apperrors.WriteError(path, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.WriteError(path, err)
		}
		if err := f.SetSheetRow(sheet, cell, toAny(row)); err != nil {
			return apperrors.WriteError(path, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.WriteError(path, err)
	}
	return nil
}

func statsHeader(withSeason bool) []string {
	header := []string{"station", "count"}
	if withSeason {
		header = []string{"season", "station", "count"}
	}
	return append(header, stats.MetricNames...)
}

func statsRows(table *stats.Table, withSeason bool) [][]string {
	rows := make([][]string, 0, len(table.Rows))
	for i := range table.Rows {
		rec := &table.Rows[i]
		row := []string{rec.Station, strconv.Itoa(rec.Count)}
		if withSeason {
			row = []string{table.Season.String(), rec.Station, strconv.Itoa(rec.Count)}
		}
		for _, metric := range stats.MetricNames {
			v, _ := rec.Metric(metric)
			row = append(row, formatValue(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func validationHeader() []string {
	return []string{"station", "daily", "monthly", "yearly"}
}

func validationRows(result *stats.DatasetResult) [][]string {
	rows := make([][]string, 0, len(result.Validation))
	for _, f := range result.Validation {
		rows = append(rows, []string{
			f.Station,
			strconv.FormatBool(f.DailyEligible),
			strconv.FormatBool(f.MonthlyEligible),
			strconv.FormatBool(f.YearlyEligible),
		})
	}
	return rows
}

func seasonalSummaryHeader() []string {
	return []string{"season", "n_stations", "mean_r2", "mean_rmse", "mean_bias", "mean_mae"}
}

func seasonalSummaryRows(result *stats.DatasetResult) [][]string {
	rows := make([][]string, 0, len(result.SeasonalSummary))
	for _, row := range result.SeasonalSummary {
		rows = append(rows, []string{
			row.Season.String(),
			strconv.Itoa(row.Stations),
			formatValue(row.MeanR2),
			formatValue(row.MeanRMSE),
			formatValue(row.MeanBias),
			formatValue(row.MeanMAE),
		})
	}
	return rows
}

func summaryHeader() []string {
	return []string{"n_stations", "start_date", "end_date", "total_days", "stations_with_sufficient_data", "annotation"}
}

func summaryRows(result *stats.DatasetResult) [][]string {
	s := result.Summary
	return [][]string{{
		strconv.Itoa(s.StationCount),
		s.StartDate.Format("2006-01-02"),
		s.EndDate.Format("2006-01-02"),
		strconv.Itoa(s.TotalDays),
		strconv.Itoa(s.StationsAllTiers),
		s.Annotation,
	}}
}

// formatValue renders a metric cell; missing values are blank, matching the
// input file convention.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
