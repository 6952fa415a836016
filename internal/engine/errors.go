package engine

import "errors"

// Precondition failures. Missing level data never errors; it only shrinks
// the level set.
var (
	// ErrInvalidPrice means the snapshot's current price is missing or
	// non-positive. Every downstream distance depends on it, so the
	// engine fails fast instead of producing nonsense proximities.
	ErrInvalidPrice = errors.New("engine: invalid current price")

	// ErrNoTicker means the snapshot has no ticker identity.
	ErrNoTicker = errors.New("engine: missing ticker")
)
