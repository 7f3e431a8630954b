package service

import "errors"

// Validation and lifecycle errors surfaced to the HTTP layer.
var (
	// ErrInvalidMatch reports a fixture with missing teams or kickoff.
	ErrInvalidMatch = errors.New("invalid match")

	// ErrInvalidPrediction reports a scoreline with negative goals.
	ErrInvalidPrediction = errors.New("invalid prediction")

	// ErrInvalidResult reports a final score with negative goals.
	ErrInvalidResult = errors.New("invalid result")

	// ErrInvalidProfile reports a malformed profile update.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrMatchLocked reports a prediction submitted at or after kickoff.
	ErrMatchLocked = errors.New("match locked for predictions")

	// ErrQueueFull reports that the scoring queue rejected a job.
	ErrQueueFull = errors.New("scoring queue full")
)
