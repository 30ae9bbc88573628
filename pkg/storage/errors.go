package storage

import "errors"

var (
	// ErrNotFound marks a definitive provider not-found. Exists maps it to
	// false; Delete maps it to success.
	ErrNotFound = errors.New("storage: object not found")
	// ErrUnavailable marks transient provider failures (timeouts, 5xx,
	// rate limits). Callers may retry.
	ErrUnavailable = errors.New("storage: provider unavailable")
	// ErrInvalidIdentifier marks a call with neither file ID nor path.
	ErrInvalidIdentifier = errors.New("storage: identifier has no file id or path")
)
