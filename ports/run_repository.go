package ports

import (
	"context"

	"gridworth/domain/core"
	"gridworth/domain/stats"
)

// RunRepository stores run summaries for later inspection. Optional: the
// analyzer works without one.
type RunRepository interface {
	SaveRun(ctx context.Context, run *stats.RunSummary) error
	GetRun(ctx context.Context, id core.RunID) (*stats.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]*stats.RunSummary, error)
}
