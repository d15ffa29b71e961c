package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the base class for malformed input. Every validation
	// failure wraps it, so callers can match the whole family with
	// errors.Is(err, ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrEmptyPlayer indicates a completion event without a player identifier.
	ErrEmptyPlayer = fmt.Errorf("%w: empty player identifier", ErrValidation)

	// ErrEmptyCategory indicates a completion event without a category.
	ErrEmptyCategory = fmt.Errorf("%w: empty category", ErrValidation)

	// ErrInvalidDifficulty indicates a difficulty label outside the fixed
	// set. Rejected rather than ignored so the difficulty breakdown stays
	// exhaustive.
	ErrInvalidDifficulty = fmt.Errorf("%w: unrecognized difficulty", ErrValidation)

	// ErrConflictExhausted indicates the bounded CAS retry loop did not
	// converge. Transient: resubmitting the same completion is safe because
	// each attempt re-derives from the latest stored state.
	ErrConflictExhausted = errors.New("conflict retries exhausted")
)
