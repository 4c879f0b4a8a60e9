package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data-availability errors, recoverable at per-dataset granularity
	ErrGroundDataMissing = errors.New("ground data not found")
	ErrNoGriddedDatasets = errors.New("no gridded datasets found")
	ErrNoCommonStations  = errors.New("no common stations found")
	ErrNoOverlap         = errors.New("no overlapping dates found")

	// Insufficient-sample conditions, a normal "no record" outcome
	ErrInsufficientData = errors.New("insufficient data for statistics")

	// Degenerate-metric errors, surfaced explicitly per station
	ErrDegenerateObserved = errors.New("observed series sums to zero")

	// Configuration errors, fail fast at construction
	ErrInvalidConfig = errors.New("invalid configuration")

	// Matrix invariant violations
	ErrDatesNotIncreasing = errors.New("dates not strictly increasing")
	ErrColumnLength       = errors.New("column length does not match date index")
	ErrStationNotFound    = errors.New("station not found in matrix")
)

// Error constructors with context
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

func NewDegenerateError(station string) error {
	return fmt.Errorf("%w: station %s", ErrDegenerateObserved, station)
}

func NewNoOverlapError(commonStations int) error {
	return fmt.Errorf("%w: %d common stations share no dates", ErrNoOverlap, commonStations)
}

// Error checking helpers
func IsDataAvailabilityError(err error) bool {
	return errors.Is(err, ErrGroundDataMissing) ||
		errors.Is(err, ErrNoGriddedDatasets) ||
		errors.Is(err, ErrNoCommonStations) ||
		errors.Is(err, ErrNoOverlap)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
