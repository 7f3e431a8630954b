// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/toto/internal/adapters/mq/queue"
	workerpool "github.com/okian/toto/internal/adapters/mq/worker"
	repository "github.com/okian/toto/internal/adapters/repository"
	"github.com/okian/toto/internal/domain/dedupe"
	"github.com/okian/toto/internal/domain/model"
	"github.com/okian/toto/internal/domain/scoring"
	"github.com/okian/toto/internal/domain/standings"
	"github.com/okian/toto/internal/domain/types"
	"github.com/okian/toto/pkg/logger"
	"github.com/okian/toto/pkg/metrics"
)

// recentPredictionsLimit caps the prediction history embedded in a
// profile response.
const recentPredictionsLimit = 5

// Service implements the API dependencies for the tipping system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	jobQueue jobqueue.Queue
	engine   *scoring.Engine
	pool     *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	exactScorePoints int
	outcomePoints    int
	clock            repository.Clock

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the persistence backend. Defaults to the in-memory
// store when unset.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of scoring worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the scoring queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the scoring-trigger dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScoringRules sets the points awarded for exact scorelines and for
// correct outcomes.
func WithScoringRules(exactScore, outcome int) Option {
	return func(s *Service) {
		if exactScore > 0 {
			s.exactScorePoints = exactScore
		}
		if outcome >= 0 {
			s.outcomePoints = outcome
		}
	}
}

// WithClock sets the time source used for kickoff comparisons and
// record timestamps.
func WithClock(clock repository.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        10000,
		dedupeSize:       50000,
		exactScorePoints: 3,
		outcomePoints:    1,
		clock:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tipping service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.engine = scoring.NewEngine(
		scoring.WithExactScorePoints(s.exactScorePoints),
		scoring.WithOutcomePoints(s.outcomePoints),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.store, s.store, s.engine, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tipping service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued scoring jobs.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tipping service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "tipping service stopped")
}

// CreateMatch registers a new fixture in the scheduled state.
func (s *Service) CreateMatch(ctx context.Context, homeTeam, awayTeam, competition string, kickoff time.Time) (types.Match, error) {
	homeTeam = strings.TrimSpace(homeTeam)
	awayTeam = strings.TrimSpace(awayTeam)
	if homeTeam == "" || awayTeam == "" || kickoff.IsZero() {
		return types.Match{}, fmt.Errorf("%w: team names and kickoff are required", ErrInvalidMatch)
	}

	m := model.NewMatch(uuid.NewString(), homeTeam, awayTeam, strings.TrimSpace(competition), kickoff.UTC())
	if err := s.store.CreateMatch(ctx, m); err != nil {
		return types.Match{}, fmt.Errorf("create match: %w", err)
	}

	s.logger.Info(ctx, "fixture created",
		logger.String("matchID", m.ID),
		logger.String("homeTeam", m.HomeTeam),
		logger.String("awayTeam", m.AwayTeam),
	)
	return matchView(m), nil
}

// Match returns one fixture.
func (s *Service) Match(ctx context.Context, id string) (types.Match, error) {
	m, err := s.store.Match(ctx, id)
	if err != nil {
		return types.Match{}, err
	}
	return matchView(m), nil
}

// Matches returns all fixtures ordered by kickoff.
func (s *Service) Matches(ctx context.Context) ([]types.Match, error) {
	ms, err := s.store.Matches(ctx)
	if err != nil {
		return nil, err
	}
	return matchViews(ms), nil
}

// UpcomingMatches returns fixtures still open for predictions.
func (s *Service) UpcomingMatches(ctx context.Context) ([]types.Match, error) {
	ms, err := s.store.UpcomingMatches(ctx)
	if err != nil {
		return nil, err
	}
	return matchViews(ms), nil
}

// MarkLive transitions a scheduled fixture to live.
func (s *Service) MarkLive(ctx context.Context, id string) error {
	if err := s.store.MarkLive(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "match went live", logger.String("matchID", id))
	return nil
}

// RecordResult stores the final score of a live match and triggers the
// asynchronous scoring pass. Resubmitting the identical scoreline is
// accepted so a result lost to queue backpressure can be retried; the
// deduper swallows duplicate scoring triggers.
func (s *Service) RecordResult(ctx context.Context, matchID string, homeGoals, awayGoals int) (types.Match, error) {
	if homeGoals < 0 || awayGoals < 0 {
		return types.Match{}, fmt.Errorf("%w: goals must be non-negative", ErrInvalidResult)
	}

	result := model.Score{HomeGoals: homeGoals, AwayGoals: awayGoals}
	m, err := s.store.RecordResult(ctx, matchID, result)
	if errors.Is(err, repository.ErrInvalidState) {
		return s.retryScoring(ctx, matchID, result, err)
	}
	if err != nil {
		return types.Match{}, err
	}

	if err := s.triggerScoring(ctx, matchID); err != nil {
		return types.Match{}, err
	}

	s.logger.Info(ctx, "result recorded, scoring queued",
		logger.String("matchID", matchID),
		logger.Int("homeGoals", homeGoals),
		logger.Int("awayGoals", awayGoals),
	)
	return matchView(m), nil
}

// triggerScoring enqueues the scoring job for a finished match once.
// On enqueue failure the dedupe record is released so a later
// submission of the same result can re-trigger the pass.
func (s *Service) triggerScoring(ctx context.Context, matchID string) error {
	if s.deduper.SeenAndRecord(ctx, "score:"+matchID) {
		return nil
	}

	if !s.jobQueue.Enqueue(ctx, jobqueue.Job{MatchID: matchID, TriggeredAt: s.clock()}) {
		s.deduper.Unrecord(ctx, "score:"+matchID)
		metrics.RecordErrorByComponent("service", "scoring_enqueue_failed")
		return fmt.Errorf("enqueue scoring for match %s: %w", matchID, ErrQueueFull)
	}
	return nil
}

// retryScoring handles a result submitted for a match that already
// finished. A resubmission with the stored scoreline re-triggers the
// scoring pass, which recovers matches whose earlier trigger was lost
// to backpressure. Any other resubmission keeps the invalid-state
// error.
func (s *Service) retryScoring(ctx context.Context, matchID string, result model.Score, cause error) (types.Match, error) {
	m, err := s.store.Match(ctx, matchID)
	if err != nil {
		return types.Match{}, err
	}
	if !m.Finished() || m.Result == nil || *m.Result != result {
		return types.Match{}, cause
	}

	if err := s.triggerScoring(ctx, matchID); err != nil {
		return types.Match{}, err
	}

	s.logger.Info(ctx, "scoring re-triggered for finished match", logger.String("matchID", matchID))
	return matchView(m), nil
}

// SubmitPrediction stores a user's scoreline for a match. Predictions
// are write-once and lock at kickoff.
func (s *Service) SubmitPrediction(ctx context.Context, userID, matchID string, homeGoals, awayGoals int) (types.Prediction, error) {
	if userID == "" || matchID == "" {
		return types.Prediction{}, fmt.Errorf("%w: user and match are required", ErrInvalidPrediction)
	}
	if homeGoals < 0 || awayGoals < 0 {
		return types.Prediction{}, fmt.Errorf("%w: goals must be non-negative", ErrInvalidPrediction)
	}

	m, err := s.store.Match(ctx, matchID)
	if err != nil {
		return types.Prediction{}, err
	}
	if m.Status != model.MatchStatusScheduled || m.Started(s.clock()) {
		return types.Prediction{}, fmt.Errorf("match %s: %w", matchID, ErrMatchLocked)
	}

	p := model.NewPrediction(uuid.NewString(), userID, matchID, homeGoals, awayGoals, s.clock().UTC())
	if err := s.store.CreatePrediction(ctx, p); err != nil {
		metrics.RecordPredictionRejected()
		return types.Prediction{}, err
	}

	metrics.RecordPredictionSubmitted()
	s.logger.Info(ctx, "prediction submitted",
		logger.String("userID", userID),
		logger.String("matchID", matchID),
	)
	return predictionView(p), nil
}

// PredictionFor returns one user's prediction for a match.
func (s *Service) PredictionFor(ctx context.Context, userID, matchID string) (types.Prediction, error) {
	p, err := s.store.Prediction(ctx, userID, matchID)
	if err != nil {
		return types.Prediction{}, err
	}
	return predictionView(p), nil
}

// UserPredictions returns a user's predictions, newest first.
func (s *Service) UserPredictions(ctx context.Context, userID string) ([]types.Prediction, error) {
	ps, err := s.store.PredictionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]types.Prediction, len(ps))
	for i, p := range ps {
		views[i] = predictionView(p)
	}
	return views, nil
}

// Leaderboard returns the ranked standings, truncated to limit when
// limit is positive.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	rows, err := s.standings(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	entries := make([]types.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = types.LeaderboardEntry{
			Rank:               row.Rank,
			UserID:             row.UserID,
			Username:           row.Name,
			Points:             row.Points,
			CorrectPredictions: row.CorrectPredictions,
			TotalPredictions:   row.TotalPredictions,
		}
	}
	return entries, nil
}

// RegisterUser creates a user record and returns its profile view.
func (s *Service) RegisterUser(ctx context.Context, name, email string) (types.Profile, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return types.Profile{}, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if email == "" || !strings.Contains(email, "@") {
		return types.Profile{}, fmt.Errorf("%w: malformed email", ErrInvalidProfile)
	}

	u := model.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		JoinedAt: s.clock().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return types.Profile{}, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info(ctx, "user registered", logger.String("userID", u.ID))
	return types.Profile{
		UserID:            u.ID,
		Username:          u.Name,
		Email:             u.Email,
		JoinDate:          u.JoinedAt,
		RecentPredictions: []types.Prediction{},
	}, nil
}

// Profile returns a user's record with derived stats and recent
// predictions.
func (s *Service) Profile(ctx context.Context, userID string) (types.Profile, error) {
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}

	rows, err := s.standings(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	var stats types.ProfileStats
	for _, row := range rows {
		if row.UserID == userID {
			stats = types.ProfileStats{
				TotalPoints:        row.Points,
				CorrectPredictions: row.CorrectPredictions,
				TotalPredictions:   row.TotalPredictions,
				CurrentRank:        row.Rank,
			}
			break
		}
	}

	ps, err := s.store.PredictionsForUser(ctx, userID)
	if err != nil {
		return types.Profile{}, err
	}
	if len(ps) > recentPredictionsLimit {
		ps = ps[:recentPredictionsLimit]
	}
	recent := make([]types.Prediction, len(ps))
	for i, p := range ps {
		recent[i] = predictionView(p)
	}

	return types.Profile{
		UserID:            u.ID,
		Username:          u.Name,
		Email:             u.Email,
		JoinDate:          u.JoinedAt,
		Stats:             stats,
		RecentPredictions: recent,
	}, nil
}

// UpdateProfileEmail changes a user's email address.
func (s *Service) UpdateProfileEmail(ctx context.Context, userID, email string) (types.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return types.Profile{}, fmt.Errorf("%w: malformed email", ErrInvalidProfile)
	}
	if _, err := s.store.UpdateUserEmail(ctx, userID, email); err != nil {
		return types.Profile{}, err
	}
	return s.Profile(ctx, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		matches, predictions, users := s.store.Counts(ctx)
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["totalMatches"] = matches
		stats["totalPredictions"] = predictions
		stats["totalUsers"] = users

		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// standings recomputes the ranked rows from the full prediction set.
func (s *Service) standings(ctx context.Context) ([]standings.Row, error) {
	predictions, err := s.store.Predictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return standings.Compute(predictions, names), nil
}

func matchView(m model.Match) types.Match {
	v := types.Match{
		ID:          m.ID,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		Competition: m.Competition,
		Date:        m.Kickoff,
		Status:      string(m.Status),
	}
	if m.Result != nil {
		v.Score = &types.Score{HomeGoals: m.Result.HomeGoals, AwayGoals: m.Result.AwayGoals}
	}
	return v
}

func matchViews(ms []model.Match) []types.Match {
	views := make([]types.Match, len(ms))
	for i, m := range ms {
		views[i] = matchView(m)
	}
	return views
}

func predictionView(p model.Prediction) types.Prediction {
	return types.Prediction{
		ID:        p.ID,
		UserID:    p.UserID,
		MatchID:   p.MatchID,
		HomeGoals: p.HomeGoals,
		AwayGoals: p.AwayGoals,
		CreatedAt: p.CreatedAt,
		Points:    p.Points,
	}
}
