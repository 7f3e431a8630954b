// Package types contains read shapes shared between the service and the
// HTTP API. Field names mirror what the web client consumes.
package types

import "time"

// Score is a scoreline as serialized to clients.
type Score struct {
	HomeGoals int `json:"homeGoals"`
	AwayGoals int `json:"awayGoals"`
}

// Match is the fixture read shape. Score is omitted until the match has
// finished.
type Match struct {
	ID          string    `json:"id"`
	HomeTeam    string    `json:"homeTeam"`
	AwayTeam    string    `json:"awayTeam"`
	Competition string    `json:"competition"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Score       *Score    `json:"score,omitempty"`
}

// Prediction is the stored-prediction read shape. Points is omitted
// until the match has been scored.
type Prediction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MatchID   string    `json:"matchId"`
	HomeGoals int       `json:"homeGoals"`
	AwayGoals int       `json:"awayGoals"`
	CreatedAt time.Time `json:"createdAt"`
	Points    *int      `json:"points,omitempty"`
}

// LeaderboardEntry is one row of the ranked standings.
type LeaderboardEntry struct {
	Rank               int    `json:"rank"`
	UserID             string `json:"userId"`
	Username           string `json:"username"`
	Points             int    `json:"points"`
	CorrectPredictions int    `json:"correctPredictions"`
	TotalPredictions   int    `json:"totalPredictions"`
}

// ProfileStats summarizes a user's tipping record.
type ProfileStats struct {
	TotalPoints        int `json:"totalPoints"`
	CorrectPredictions int `json:"correctPredictions"`
	TotalPredictions   int `json:"totalPredictions"`
	CurrentRank        int `json:"currentRank"`
}

// Profile is the profile read shape.
type Profile struct {
	UserID            string       `json:"userId"`
	Username          string       `json:"username"`
	Email             string       `json:"email"`
	JoinDate          time.Time    `json:"joinDate"`
	Stats             ProfileStats `json:"stats"`
	RecentPredictions []Prediction `json:"recentPredictions"`
}
