package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/toto/internal/domain/model"
	"github.com/okian/toto/pkg/metrics"
)

type userMatchKey struct {
	userID  string
	matchID string
}

// MemoryStore is the default Store implementation. A single RWMutex
// serializes writes, which gives CreatePrediction its atomic
// check-and-insert and ApplyPoints its all-or-nothing visibility.
type MemoryStore struct {
	mu          sync.RWMutex
	matches     map[string]model.Match
	predictions map[string]model.Prediction
	byUserMatch map[userMatchKey]string
	users       map[string]model.User
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:     make(map[string]model.Match),
		predictions: make(map[string]model.Prediction),
		byUserMatch: make(map[userMatchKey]string),
		users:       make(map[string]model.User),
	}
}

// CreateMatch implements MatchStore.
func (s *MemoryStore) CreateMatch(ctx context.Context, m model.Match) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; ok {
		return fmt.Errorf("match %s: %w", m.ID, ErrDuplicateMatch)
	}
	s.matches[m.ID] = m
	metrics.UpdateStoreMatches(len(s.matches))
	return nil
}

// Match implements MatchStore.
func (s *MemoryStore) Match(ctx context.Context, id string) (model.Match, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	return m, nil
}

// Matches implements MatchStore.
func (s *MemoryStore) Matches(ctx context.Context) ([]model.Match, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

// UpcomingMatches implements MatchStore.
func (s *MemoryStore) UpcomingMatches(ctx context.Context) ([]model.Match, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Match, 0)
	for _, m := range s.matches {
		if m.Status == model.MatchStatusScheduled {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

// MarkLive implements MatchStore.
func (s *MemoryStore) MarkLive(ctx context.Context, id string) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	if !m.Status.CanTransition(model.MatchStatusLive) {
		return fmt.Errorf("match %s is %s: %w", id, m.Status, ErrInvalidState)
	}
	m.Status = model.MatchStatusLive
	s.matches[id] = m
	return nil
}

// RecordResult implements MatchStore.
func (s *MemoryStore) RecordResult(ctx context.Context, id string, result model.Score) (model.Match, error) {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	if !m.Status.CanTransition(model.MatchStatusFinished) {
		return model.Match{}, fmt.Errorf("match %s is %s: %w", id, m.Status, ErrInvalidState)
	}
	m.Status = model.MatchStatusFinished
	m.Result = &model.Score{HomeGoals: result.HomeGoals, AwayGoals: result.AwayGoals}
	s.matches[id] = m
	return m, nil
}

// CreatePrediction implements PredictionStore. The uniqueness index and
// the insert happen under one lock, so concurrent double-submits cannot
// both succeed.
func (s *MemoryStore) CreatePrediction(ctx context.Context, p model.Prediction) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	key := userMatchKey{userID: p.UserID, matchID: p.MatchID}
	if _, ok := s.byUserMatch[key]; ok {
		return fmt.Errorf("user %s match %s: %w", p.UserID, p.MatchID, ErrDuplicatePrediction)
	}
	s.predictions[p.ID] = p
	s.byUserMatch[key] = p.ID
	metrics.UpdateStorePredictions(len(s.predictions))
	return nil
}

// Prediction implements PredictionStore.
func (s *MemoryStore) Prediction(ctx context.Context, userID, matchID string) (model.Prediction, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUserMatch[userMatchKey{userID: userID, matchID: matchID}]
	if !ok {
		return model.Prediction{}, fmt.Errorf("user %s match %s: %w", userID, matchID, ErrPredictionNotFound)
	}
	return s.predictions[id], nil
}

// PredictionsForMatch implements PredictionStore.
func (s *MemoryStore) PredictionsForMatch(ctx context.Context, matchID string) ([]model.Prediction, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Prediction, 0)
	for _, p := range s.predictions {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	sortPredictions(out)
	return out, nil
}

// PredictionsForUser implements PredictionStore.
func (s *MemoryStore) PredictionsForUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Prediction, 0)
	for _, p := range s.predictions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sortPredictions(out)
	return out, nil
}

// Predictions implements PredictionStore.
func (s *MemoryStore) Predictions(ctx context.Context) ([]model.Prediction, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Prediction, 0, len(s.predictions))
	for _, p := range s.predictions {
		out = append(out, p)
	}
	sortPredictions(out)
	return out, nil
}

// ApplyPoints implements PredictionStore. All referenced predictions
// are validated before any point is written, and the write happens
// under one lock, so readers never observe a partially scored match.
func (s *MemoryStore) ApplyPoints(ctx context.Context, matchID string, points map[string]int) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[matchID]; !ok {
		return fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
	}
	for id := range points {
		p, ok := s.predictions[id]
		if !ok || p.MatchID != matchID {
			return fmt.Errorf("prediction %s on match %s: %w", id, matchID, ErrPredictionNotFound)
		}
	}
	for id, pts := range points {
		p := s.predictions[id]
		v := pts
		p.Points = &v
		s.predictions[id] = p
	}
	return nil
}

// CreateUser implements UserStore.
func (s *MemoryStore) CreateUser(ctx context.Context, u model.User) error {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrDuplicateUser)
	}
	s.users[u.ID] = u
	metrics.UpdateStoreUsers(len(s.users))
	return nil
}

// User implements UserStore.
func (s *MemoryStore) User(ctx context.Context, id string) (model.User, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return u, nil
}

// Users implements UserStore.
func (s *MemoryStore) Users(ctx context.Context) ([]model.User, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateUserEmail implements UserStore.
func (s *MemoryStore) UpdateUserEmail(ctx context.Context, id, email string) (model.User, error) {
	defer observeUpdate(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	u.Email = email
	s.users[id] = u
	return u, nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(ctx context.Context) (matches, predictions, users int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), len(s.predictions), len(s.users)
}

func sortMatches(out []model.Match) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].Kickoff.Before(out[j].Kickoff)
		}
		return out[i].ID < out[j].ID
	})
}

func sortPredictions(out []model.Prediction) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func observeUpdate(start time.Time) {
	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
}

func observeQuery(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
}
