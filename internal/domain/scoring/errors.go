package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrIncompleteMatch means scoring was attempted on a match without
	// a final result. The trigger contract should make this unreachable.
	ErrIncompleteMatch = errors.New("match has no final result")
)
