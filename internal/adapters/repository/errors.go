package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrDuplicateMatch      = errors.New("match already exists")
	ErrDuplicatePrediction = errors.New("prediction already exists for user and match")
	ErrDuplicateUser       = errors.New("user already exists")

	// ErrInvalidState means a lifecycle transition was attempted out of
	// order, e.g. recording a result on a match that is not live.
	ErrInvalidState = errors.New("invalid match state for transition")
)
