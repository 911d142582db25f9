package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine package.
// Use errors.Is to check: errors.Is(err, engine.ErrStoreConflict)
var (
	ErrInvalidQuality   = errors.New("engine: quality out of range")
	ErrNoItemsAvailable = errors.New("engine: no items available")
	ErrStoreConflict    = errors.New("engine: store version conflict")
	ErrCorruptState     = errors.New("engine: corrupt persisted state")
)

// ConflictError is returned when a mutation exhausted its optimistic-write
// retry budget. It wraps ErrStoreConflict.
type ConflictError struct {
	Entity   string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("engine: %s write conflicted after %d attempts", e.Entity, e.Attempts)
}

func (e *ConflictError) Unwrap() error { return ErrStoreConflict }
