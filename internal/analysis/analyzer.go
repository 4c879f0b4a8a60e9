package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gridworth/domain/core"
	"gridworth/domain/series"
	"gridworth/domain/stats"
	"gridworth/internal"
	"gridworth/ports"
)

// MonthlyAnnotation marks output produced after aggregating ground data to
// match a monthly-native gridded product.
const MonthlyAnnotation = "ground data aggregated to monthly for comparison"

// Analyzer sequences the comparison pipeline across every discovered gridded
// dataset: alignment, aggregation, extreme extraction, metric computation,
// outlier filtering and persistence. Datasets are independent; a failure in
// one is reported in its summary and never aborts the rest.
type Analyzer struct {
	source   ports.MatrixSource
	sink     ports.TableSink
	runs     ports.RunRepository
	observer ports.Observer
	cfg      stats.AnalysisConfig
	policy   Policy
	catalog  map[string]series.DatasetDescriptor
	workers  int64
	log      *internal.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithObserver attaches an advisory progress observer.
func WithObserver(o ports.Observer) Option {
	return func(a *Analyzer) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithRunRepository persists run summaries to a repository.
func WithRunRepository(r ports.RunRepository) Option {
	return func(a *Analyzer) { a.runs = r }
}

// WithCatalog overrides the dataset descriptor catalog.
func WithCatalog(c map[string]series.DatasetDescriptor) Option {
	return func(a *Analyzer) { a.catalog = c }
}

// WithPolicy overrides the missing-data thresholds.
func WithPolicy(p Policy) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithWorkers bounds how many datasets are analyzed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = int64(n)
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *internal.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an Analyzer. The analysis configuration is injected here and
// never changes mid-run; disabled filtering is an explicit config value.
func New(source ports.MatrixSource, sink ports.TableSink, cfg stats.AnalysisConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:   source,
		sink:     sink,
		observer: ports.NopObserver{},
		cfg:      cfg,
		policy:   DefaultPolicy(),
		catalog:  series.DefaultCatalog(),
		workers:  1,
		log:      internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the full analysis across all discovered datasets. The run is
// Complete as long as data loading succeeded, even when every dataset failed;
// loading failures are the only fatal outcome.
func (a *Analyzer) Run(ctx context.Context) (*stats.RunSummary, error) {
	run := stats.NewRunSummary()
	run.State = stats.RunLoading
	a.observer.OnStatus("Loading data...")
	a.observer.OnProgress(0)

	ground, err := a.source.Ground(ctx)
	if err != nil {
		return a.fail(ctx, run, fmt.Errorf("loading ground data: %w", err))
	}
	a.log.Info("loaded ground data: %d dates x %d stations", ground.Rows(), len(ground.Stations()))
	a.observer.OnProgress(10)

	gridded, err := a.source.Gridded(ctx)
	if err != nil {
		return a.fail(ctx, run, fmt.Errorf("loading gridded data: %w", err))
	}
	if len(gridded) == 0 {
		return a.fail(ctx, run, core.ErrNoGriddedDatasets)
	}
	a.observer.OnProgress(20)

	names := make([]string, 0, len(gridded))
	for name := range gridded {
		names = append(names, name)
	}
	sort.Strings(names)

	run.State = stats.RunRunning
	sem := semaphore.NewWeighted(a.workers)
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)
	for _, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer sem.Release(1)

			summary := a.analyzeDataset(ctx, name, ground, gridded[name])

			mu.Lock()
			run.Datasets[name] = summary
			done++
			progress := 20 + done*80/len(names)
			mu.Unlock()
			a.observer.OnProgress(progress)
		}(name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return a.fail(ctx, run, err)
	}

	run.State = stats.RunComplete
	run.FinishedAt = time.Now().UTC()
	a.observer.OnStatus("Analysis complete!")
	a.observer.OnProgress(100)
	a.persistRun(ctx, run)
	return run, nil
}

// analyzeDataset runs the pipeline for one dataset. All errors, including
// panics from unexpected data, are converted into a failed summary.
func (a *Analyzer) analyzeDataset(ctx context.Context, name string, ground, gridded *series.Matrix) (summary stats.DatasetSummary) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("panic analyzing %s: %v", name, r)
			summary = stats.DatasetSummary{Dataset: name, Failed: true, Error: fmt.Sprint(r)}
		}
	}()

	a.observer.OnStatus(fmt.Sprintf("Analyzing %s...", name))
	result, err := a.buildResult(ctx, name, ground, gridded)
	if err != nil {
		a.log.Error("error analyzing %s: %v", name, err)
		a.observer.OnStatus(fmt.Sprintf("Error analyzing %s: %v", name, err))
		return stats.DatasetSummary{Dataset: name, Failed: true, Error: err.Error()}
	}

	if err := a.sink.WriteDatasetResult(ctx, result); err != nil {
		a.log.Error("persisting %s results: %v", name, err)
		return stats.DatasetSummary{Dataset: name, Failed: true, Error: err.Error()}
	}
	a.observer.OnStatus(fmt.Sprintf("Results saved for %s", name))
	return result.Summary
}

func (a *Analyzer) buildResult(ctx context.Context, name string, ground, gridded *series.Matrix) (*stats.DatasetResult, error) {
	desc := series.DescriptorFor(a.catalog, name)

	gridded = gridded.Scale(desc.ConversionFactor)
	if desc.ValidRange != nil {
		gridded = gridded.ClipRange(desc.ValidRange.Start, desc.ValidRange.End)
	}

	annotation := ""
	groundCmp := ground
	if desc.MonthlyNative() {
		groundCmp = AggregateMonthly(ground, a.policy)
		annotation = MonthlyAnnotation
	}

	obs, pred, err := Align(groundCmp, gridded)
	if err != nil {
		return nil, err
	}
	a.log.Info("%s: aligned %d stations over %d dates", name, len(obs.Stations()), obs.Rows())

	validation := ValidateCoverage(obs)
	engine := NewEngine(a.policy.MinPairs, a.log)

	var tables []*stats.Table

	if !desc.MonthlyNative() {
		a.observer.OnStatus(fmt.Sprintf("%s: calculating daily statistics...", name))
		tables = append(tables, engine.TableStats(stats.LevelDaily, obs, pred))
	}

	a.observer.OnStatus(fmt.Sprintf("%s: calculating extreme value statistics...", name))
	tables = append(tables,
		ExtremeStats(engine, obs, pred, LowTailPercentile, TailLow),
		ExtremeStats(engine, obs, pred, HighTailPercentile, TailHigh),
	)

	a.observer.OnStatus(fmt.Sprintf("%s: calculating monthly statistics...", name))
	obsMonthly, predMonthly := obs, pred
	if !desc.MonthlyNative() {
		obsMonthly = AggregateMonthly(obs, a.policy)
		predMonthly = AggregateMonthly(pred, a.policy)
	}
	tables = append(tables, engine.TableStats(stats.LevelMonthly, obsMonthly, predMonthly))

	a.observer.OnStatus(fmt.Sprintf("%s: calculating yearly statistics...", name))
	obsYearly := AggregateYearly(obsMonthly, a.policy)
	predYearly := AggregateYearly(predMonthly, a.policy)
	tables = append(tables, engine.TableStats(stats.LevelYearly, obsYearly, predYearly))

	a.observer.OnStatus(fmt.Sprintf("%s: calculating seasonal statistics...", name))
	seasonal := SeasonalStats(engine, obs, pred, a.policy)
	seasonalSummary := SeasonalSummary(seasonal)
	tables = append(tables, seasonal...)

	suppressed := make(map[string]int)
	if a.cfg.FilterExtremes {
		a.observer.OnStatus(fmt.Sprintf("%s: filtering outlier statistics...", name))
		for i, table := range tables {
			filtered, counts := FilterOutliers(table, a.cfg)
			tables[i] = filtered
			for metric, n := range counts {
				suppressed[metric] += n
			}
		}
		for metric, n := range suppressed {
			a.log.Info("%s: suppressed %d outlier values for %s", name, n, metric)
		}
	}

	// A cancelled dataset persists nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allTiers := 0
	for _, f := range validation {
		if f.AllTiers() {
			allTiers++
		}
	}
	dates := obs.Dates()
	summary := stats.DatasetSummary{
		Dataset:          name,
		StationCount:     len(obs.Stations()),
		StartDate:        dates[0],
		EndDate:          dates[len(dates)-1],
		TotalDays:        obs.Rows(),
		StationsAllTiers: allTiers,
		Annotation:       annotation,
	}

	return &stats.DatasetResult{
		Dataset:         name,
		Tables:          tables,
		Validation:      validation,
		SeasonalSummary: seasonalSummary,
		Summary:         summary,
		Suppressed:      suppressed,
	}, nil
}

func (a *Analyzer) fail(ctx context.Context, run *stats.RunSummary, err error) (*stats.RunSummary, error) {
	run.State = stats.RunFailed
	run.FinishedAt = time.Now().UTC()
	run.Error = err.Error()
	a.log.Error("analysis run failed: %v", err)
	a.observer.OnStatus(fmt.Sprintf("Error during analysis: %v", err))
	a.persistRun(ctx, run)
	return run, err
}

func (a *Analyzer) persistRun(ctx context.Context, run *stats.RunSummary) {
	if err := a.sink.WriteRunSummary(ctx, run); err != nil {
		a.log.Error("persisting run summary: %v", err)
	}
	if a.runs == nil {
		return
	}
	if err := a.runs.SaveRun(ctx, run); err != nil {
		a.log.Error("saving run to repository: %v", err)
	}
}
