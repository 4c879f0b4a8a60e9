package stats

import (
	"time"

	"gridworth/domain/core"
	"gridworth/domain/series"
)

// DatasetSummary describes one dataset's comparison run.
type DatasetSummary struct {
	Dataset          string    `json:"dataset"`
	StationCount     int       `json:"station_count"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TotalDays        int       `json:"total_days"`
	StationsAllTiers int       `json:"stations_all_tiers"`
	// Annotation records resolution quirks, e.g. ground data aggregated to
	// monthly before comparison.
	Annotation string `json:"annotation,omitempty"`
	// Failed marks a dataset whose pipeline errored; Error holds the cause.
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
}

// SeasonalSummaryRow aggregates per-station seasonal statistics into one row
// per season.
type SeasonalSummaryRow struct {
	Season   series.Season `json:"season"`
	Stations int           `json:"stations"`
	MeanR2   float64       `json:"mean_r2"`
	MeanRMSE float64       `json:"mean_rmse"`
	MeanBias float64       `json:"mean_bias"`
	MeanMAE  float64       `json:"mean_mae"`
}

// DatasetResult bundles every table produced for one dataset so the sink can
// persist them atomically: either all tables land or none do.
type DatasetResult struct {
	Dataset         string
	Tables          []*Table
	Validation      []series.ValidationFlags
	SeasonalSummary []SeasonalSummaryRow
	Summary         DatasetSummary
	// Suppressed counts outlier-filtered cells per metric column, for
	// observability only.
	Suppressed map[string]int
}

// RunState tracks the orchestrator's lifecycle.
type RunState string

const (
	RunIdle     RunState = "idle"
	RunLoading  RunState = "loading_data"
	RunRunning  RunState = "running"
	RunComplete RunState = "complete"
	RunFailed   RunState = "failed"
)

// RunSummary is the per-run collection of per-dataset summaries.
type RunSummary struct {
	ID         core.RunID                `json:"id"`
	State      RunState                  `json:"state"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Datasets   map[string]DatasetSummary `json:"datasets"`
	Error      string                    `json:"error,omitempty"`
}

// NewRunSummary creates a summary for a run that is about to start.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		ID:        core.NewRunID(),
		State:     RunIdle,
		StartedAt: time.Now().UTC(),
		Datasets:  make(map[string]DatasetSummary),
	}
}

// FailedCount returns how many datasets ended in failure.
func (r *RunSummary) FailedCount() int {
	n := 0
	for _, d := range r.Datasets {
		if d.Failed {
			n++
		}
	}
	return n
}
