package ports

import (
	"context"

	"gridworth/domain/series"
)

// MatrixSource loads the station-by-date precipitation matrices the analyzer
// compares. Implementations are responsible for consistent station id
// formatting between ground and gridded matrices.
type MatrixSource interface {
	// Ground loads the ground-observation matrix. Returns an error wrapping
	// core.ErrGroundDataMissing when the ground data cannot be found.
	Ground(ctx context.Context) (*series.Matrix, error)

	// Gridded discovers and loads every gridded-product matrix, keyed by
	// uppercase dataset name. Returns an error wrapping
	// core.ErrNoGriddedDatasets when none are present.
	Gridded(ctx context.Context) (map[string]*series.Matrix, error)
}
