// Package scoring converts finalized match results into prediction points.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/toto/internal/domain/model"
)

// Default point values. Exact scoreline beats correct outcome.
const (
	defaultExactScorePoints = 3
	defaultOutcomePoints    = 1
)

// Outcome is the direction of a result: home win, away win, or draw,
// independent of the exact scoreline.
type Outcome string

// Possible outcomes.
const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeAwayWin Outcome = "away_win"
	OutcomeDraw    Outcome = "draw"
)

// OutcomeOf derives the outcome from a scoreline.
func OutcomeOf(s model.Score) Outcome {
	switch {
	case s.HomeGoals > s.AwayGoals:
		return OutcomeHomeWin
	case s.AwayGoals > s.HomeGoals:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithExactScorePoints sets the points awarded for an exact scoreline.
func WithExactScorePoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.exactScorePoints = points
		}
	}
}

// WithOutcomePoints sets the points awarded for a correct outcome with
// a wrong scoreline.
func WithOutcomePoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.outcomePoints = points
		}
	}
}

// Engine computes points for predictions against a final result.
// Scoring each prediction is independent of every other prediction.
type Engine struct {
	exactScorePoints int
	outcomePoints    int
}

// NewEngine creates an Engine with default point values.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		exactScorePoints: defaultExactScorePoints,
		outcomePoints:    defaultOutcomePoints,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Points scores a single predicted scoreline against the actual result.
func (e *Engine) Points(predicted, actual model.Score) int {
	if predicted == actual {
		return e.exactScorePoints
	}
	if OutcomeOf(predicted) == OutcomeOf(actual) {
		return e.outcomePoints
	}
	return 0
}

// ScoreMatch computes points for every prediction on a finished match,
// keyed by prediction ID. It fails with ErrIncompleteMatch if the match
// has no final result; no points are assigned in that case.
func (e *Engine) ScoreMatch(ctx context.Context, m model.Match, predictions []model.Prediction) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring cancelled: %w", err)
	}
	if !m.Finished() || m.Result == nil {
		return nil, fmt.Errorf("match %s: %w", m.ID, ErrIncompleteMatch)
	}

	points := make(map[string]int, len(predictions))
	for _, p := range predictions {
		points[p.ID] = e.Points(model.Score{HomeGoals: p.HomeGoals, AwayGoals: p.AwayGoals}, *m.Result)
	}
	return points, nil
}
