package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gridworth/domain/core"
	"gridworth/domain/stats"
	apperrors "gridworth/internal/errors"
	"gridworth/ports"
)

// datasetSummaries maps to a JSONB column holding per-dataset summaries.
type datasetSummaries map[string]stats.DatasetSummary

// Value implements driver.Valuer
func (d datasetSummaries) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *datasetSummaries) Scan(value interface{}) error {
	if value == nil {
		*d = make(datasetSummaries)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*d = make(datasetSummaries)
		return nil
	}
	return json.Unmarshal(bytes, d)
}

type runRow struct {
	ID         string           `db:"id"`
	State      string           `db:"state"`
	StartedAt  time.Time        `db:"started_at"`
	FinishedAt sql.NullTime     `db:"finished_at"`
	Datasets   datasetSummaries `db:"datasets"`
	Error      sql.NullString   `db:"error_message"`
}

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Connect opens a database handle and prepares the schema.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, apperrors.DatabaseError(fmt.Sprintf("connecting to database: %v", err))
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			datasets JSONB,
			error_message TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return apperrors.DatabaseError(fmt.Sprintf("preparing schema: %v", err))
	}
	return nil
}

// SaveRun inserts or updates one run summary. The same run is saved again as
// it moves through states, so this is an upsert on the run id.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *stats.RunSummary) error {
	var finishedAt interface{}
	if !run.FinishedAt.IsZero() {
		finishedAt = run.FinishedAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, state, started_at, finished_at, datasets, error_message)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
		    finished_at = EXCLUDED.finished_at,
		    datasets = EXCLUDED.datasets,
		    error_message = EXCLUDED.error_message
	`, run.ID.String(), string(run.State), run.StartedAt, finishedAt,
		datasetSummaries(run.Datasets), run.Error)
	if err != nil {
		return apperrors.DatabaseError(fmt.Sprintf("saving run %s: %v", run.ID, err))
	}
	return nil
}

// GetRun retrieves a run summary by id.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*stats.RunSummary, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, state, started_at, finished_at, datasets, error_message
		FROM analysis_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.DataMissing(fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, apperrors.DatabaseError(fmt.Sprintf("loading run %s: %v", id, err))
	}
	return row.toSummary(), nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*stats.RunSummary, error) {
	query := `
		SELECT id, state, started_at, finished_at, datasets, error_message
		FROM analysis_runs
		ORDER BY started_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.DatabaseError(fmt.Sprintf("listing runs: %v", err))
	}

	out := make([]*stats.RunSummary, len(rows))
	for i := range rows {
		out[i] = rows[i].toSummary()
	}
	return out, nil
}

func (row *runRow) toSummary() *stats.RunSummary {
	run := &stats.RunSummary{
		ID:        core.RunID(row.ID),
		State:     stats.RunState(row.State),
		StartedAt: row.StartedAt,
		Datasets:  map[string]stats.DatasetSummary(row.Datasets),
	}
	if run.Datasets == nil {
		run.Datasets = make(map[string]stats.DatasetSummary)
	}
	if row.FinishedAt.Valid {
		run.FinishedAt = row.FinishedAt.Time
	}
	if row.Error.Valid {
		run.Error = row.Error.String
	}
	return run
}
