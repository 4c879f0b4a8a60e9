package ports

import (
	"context"

	"gridworth/domain/stats"
)

// TableSink persists the tables produced for one dataset. A dataset's result
// is handed over as a single bundle so a cancelled or failed dataset never
// leaves partially-written tables behind.
type TableSink interface {
	WriteDatasetResult(ctx context.Context, result *stats.DatasetResult) error
	WriteRunSummary(ctx context.Context, run *stats.RunSummary) error
}
