// Package abmerr defines the typed error kinds raised across the engine.
// Errors from user-supplied callbacks are left untouched and simply
// propagate; these sentinels cover engine-detected conditions only, so
// callers can branch with errors.Is/errors.As instead of string matching.
package abmerr

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", Kind) to attach context.
var (
	ErrInvalidAgent      = errors.New("invalid agent")
	ErrDuplicateID       = errors.New("duplicate agent id")
	ErrUnknownID         = errors.New("unknown agent id")
	ErrCellOccupied      = errors.New("cell occupied")
	ErrNoEmptyPosition   = errors.New("no empty position")
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrUnreachableTarget = errors.New("unreachable target")
	ErrConfig            = errors.New("configuration error")
	ErrAggregation       = errors.New("aggregation error")
	ErrIO                = errors.New("io error")
)
