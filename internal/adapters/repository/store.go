// Package repository defines the persistence interfaces and their
// in-memory and Postgres implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/toto/internal/domain/model"
)

// MatchStore owns the match lifecycle: fixtures are created once,
// mutated only by the result feed, and never deleted once played.
type MatchStore interface {
	// CreateMatch persists a new fixture.
	// Returns ErrDuplicateMatch if the ID is already taken.
	CreateMatch(ctx context.Context, m model.Match) error

	// Match returns a fixture by ID or ErrMatchNotFound.
	Match(ctx context.Context, id string) (model.Match, error)

	// Matches returns all fixtures ordered by kickoff ascending.
	Matches(ctx context.Context) ([]model.Match, error)

	// UpcomingMatches returns scheduled fixtures ordered by kickoff
	// ascending.
	UpcomingMatches(ctx context.Context) ([]model.Match, error)

	// MarkLive transitions a scheduled match to live.
	// Returns ErrInvalidState for any other current state.
	MarkLive(ctx context.Context, id string) error

	// RecordResult stores the final score and transitions a live match
	// to finished, returning the updated match.
	// Returns ErrInvalidState unless the match is currently live.
	RecordResult(ctx context.Context, id string, result model.Score) (model.Match, error)
}

// PredictionStore owns prediction creation and point assignment.
// Predictions are write-once per (user, match) pair.
type PredictionStore interface {
	// CreatePrediction atomically checks for an existing (user, match)
	// prediction and inserts. Returns ErrDuplicatePrediction if one
	// already exists.
	CreatePrediction(ctx context.Context, p model.Prediction) error

	// Prediction returns one user's prediction for a match or
	// ErrPredictionNotFound.
	Prediction(ctx context.Context, userID, matchID string) (model.Prediction, error)

	// PredictionsForMatch returns every prediction on a match.
	PredictionsForMatch(ctx context.Context, matchID string) ([]model.Prediction, error)

	// PredictionsForUser returns a user's predictions, newest first.
	PredictionsForUser(ctx context.Context, userID string) ([]model.Prediction, error)

	// Predictions returns the full prediction set, used by the
	// standings aggregation.
	Predictions(ctx context.Context) ([]model.Prediction, error)

	// ApplyPoints assigns points to predictions by prediction ID,
	// atomically: readers observe either none or all of the match's
	// points.
	ApplyPoints(ctx context.Context, matchID string, points map[string]int) error
}

// UserStore owns profile records.
type UserStore interface {
	// CreateUser persists a new user.
	// Returns ErrDuplicateUser if the ID is already taken.
	CreateUser(ctx context.Context, u model.User) error

	// User returns a user by ID or ErrUserNotFound.
	User(ctx context.Context, id string) (model.User, error)

	// Users returns all users.
	Users(ctx context.Context) ([]model.User, error)

	// UpdateUserEmail changes a user's email, returning the updated
	// record or ErrUserNotFound.
	UpdateUserEmail(ctx context.Context, id, email string) (model.User, error)
}

// Store bundles all persistence concerns behind one dependency.
type Store interface {
	MatchStore
	PredictionStore
	UserStore

	// Counts reports stored record totals for monitoring.
	Counts(ctx context.Context) (matches, predictions, users int)
}

// Clock abstracts time for stores that stamp records. Tests substitute
// a fixed clock.
type Clock func() time.Time
