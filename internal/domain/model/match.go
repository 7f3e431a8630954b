// Package model contains domain models passed between layers.
package model

import "time"

// MatchStatus is the lifecycle state of a match. The set is closed:
// scheduled -> live -> finished, with no other transitions.
type MatchStatus string

// Match lifecycle states.
const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// Valid reports whether s is one of the known lifecycle states.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusLive, MatchStatusFinished:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle step.
func (s MatchStatus) CanTransition(next MatchStatus) bool {
	switch s {
	case MatchStatusScheduled:
		return next == MatchStatusLive
	case MatchStatusLive:
		return next == MatchStatusFinished
	case MatchStatusFinished:
		return false
	}
	return false
}

// Score is a final or predicted scoreline.
type Score struct {
	HomeGoals int
	AwayGoals int
}

// Match represents a fixture between two teams.
// Result is nil until the match is finished.
type Match struct {
	ID          string
	HomeTeam    string
	AwayTeam    string
	Competition string
	Kickoff     time.Time
	Status      MatchStatus
	Result      *Score
}

// NewMatch creates a scheduled match.
func NewMatch(id, homeTeam, awayTeam, competition string, kickoff time.Time) Match {
	return Match{
		ID:          id,
		HomeTeam:    homeTeam,
		AwayTeam:    awayTeam,
		Competition: competition,
		Kickoff:     kickoff,
		Status:      MatchStatusScheduled,
	}
}

// Started reports whether the match has kicked off at the given instant.
// Predictions close at kickoff, not at match completion.
func (m Match) Started(now time.Time) bool {
	return !now.Before(m.Kickoff)
}

// Finished reports whether the match has a final result.
func (m Match) Finished() bool {
	return m.Status == MatchStatusFinished
}
