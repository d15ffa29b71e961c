package progression

import "errors"

var (
	// ErrNotFound indicates the requested record or view is absent.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict indicates a compare-and-swap put lost against a
	// concurrent writer; nothing was written.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrCorruptRecord indicates a stored payload failed to deserialize.
	// Callers recover by treating the record as absent.
	ErrCorruptRecord = errors.New("corrupt record")
)
