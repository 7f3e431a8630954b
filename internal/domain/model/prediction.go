package model

import "time"

// Prediction is a user's scoreline tip for a match. At most one
// prediction exists per (user, match) pair and it is write-once.
// Points is nil until the match result has been scored.
type Prediction struct {
	ID        string
	UserID    string
	MatchID   string
	HomeGoals int
	AwayGoals int
	CreatedAt time.Time
	Points    *int
}

// NewPrediction creates an unscored prediction stamped with the given
// creation time.
func NewPrediction(id, userID, matchID string, homeGoals, awayGoals int, createdAt time.Time) Prediction {
	return Prediction{
		ID:        id,
		UserID:    userID,
		MatchID:   matchID,
		HomeGoals: homeGoals,
		AwayGoals: awayGoals,
		CreatedAt: createdAt,
	}
}

// Scored reports whether points have been assigned.
func (p Prediction) Scored() bool {
	return p.Points != nil
}
