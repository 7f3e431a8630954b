package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/okian/toto/internal/domain/model"
)

// uniqueViolation is the Postgres error code raised when an insert hits
// a unique constraint.
const uniqueViolation = "23505"

// PostgresStore is the durable Store implementation. The uniqueness
// invariant on (user_id, match_id) is enforced by the database, and
// result recording and point assignment run inside transactions.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a Postgres connection, verifies it, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cfg := defaultPostgresConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id          TEXT PRIMARY KEY,
			home_team   TEXT NOT NULL,
			away_team   TEXT NOT NULL,
			competition TEXT NOT NULL,
			kickoff     TIMESTAMPTZ NOT NULL,
			status      TEXT NOT NULL,
			home_goals  INT,
			away_goals  INT
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			match_id   TEXT NOT NULL REFERENCES matches(id),
			home_goals INT NOT NULL,
			away_goals INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			points     INT,
			UNIQUE (user_id, match_id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			email     TEXT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// CreateMatch implements MatchStore.
func (s *PostgresStore) CreateMatch(ctx context.Context, m model.Match) error {
	const q = `
		INSERT INTO matches (id, home_team, away_team, competition, kickoff, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, q, m.ID, m.HomeTeam, m.AwayTeam, m.Competition, m.Kickoff, string(m.Status))
	if isUniqueViolation(err) {
		return fmt.Errorf("match %s: %w", m.ID, ErrDuplicateMatch)
	}
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// Match implements MatchStore.
func (s *PostgresStore) Match(ctx context.Context, id string) (model.Match, error) {
	const q = `
		SELECT id, home_team, away_team, competition, kickoff, status, home_goals, away_goals
		FROM matches
		WHERE id = $1
	`
	m, err := scanMatch(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("querying match: %w", err)
	}
	return m, nil
}

// Matches implements MatchStore.
func (s *PostgresStore) Matches(ctx context.Context) ([]model.Match, error) {
	const q = `
		SELECT id, home_team, away_team, competition, kickoff, status, home_goals, away_goals
		FROM matches
		ORDER BY kickoff, id
	`
	return s.queryMatches(ctx, q)
}

// UpcomingMatches implements MatchStore.
func (s *PostgresStore) UpcomingMatches(ctx context.Context) ([]model.Match, error) {
	const q = `
		SELECT id, home_team, away_team, competition, kickoff, status, home_goals, away_goals
		FROM matches
		WHERE status = 'scheduled'
		ORDER BY kickoff, id
	`
	return s.queryMatches(ctx, q)
}

func (s *PostgresStore) queryMatches(ctx context.Context, q string, args ...any) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	out := make([]model.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating match rows: %w", err)
	}
	return out, nil
}

// MarkLive implements MatchStore.
func (s *PostgresStore) MarkLive(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.MatchStatusLive, nil)
}

// RecordResult implements MatchStore.
func (s *PostgresStore) RecordResult(ctx context.Context, id string, result model.Score) (model.Match, error) {
	if err := s.transition(ctx, id, model.MatchStatusFinished, &result); err != nil {
		return model.Match{}, err
	}
	return s.Match(ctx, id)
}

// transition moves a match to next inside a transaction, holding a row
// lock across the status check so concurrent feeds cannot race.
func (s *PostgresStore) transition(ctx context.Context, id string, next model.MatchStatus, result *model.Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM matches WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	if err != nil {
		return fmt.Errorf("locking match row: %w", err)
	}
	if !model.MatchStatus(current).CanTransition(next) {
		return fmt.Errorf("match %s is %s: %w", id, current, ErrInvalidState)
	}

	if result != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE matches SET status = $1, home_goals = $2, away_goals = $3 WHERE id = $4`,
			string(next), result.HomeGoals, result.AwayGoals, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, string(next), id)
	}
	if err != nil {
		return fmt.Errorf("updating match: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition tx: %w", err)
	}
	return nil
}

// CreatePrediction implements PredictionStore. The UNIQUE(user_id,
// match_id) constraint makes the insert an atomic check-and-insert.
func (s *PostgresStore) CreatePrediction(ctx context.Context, p model.Prediction) error {
	const q = `
		INSERT INTO predictions (id, user_id, match_id, home_goals, away_goals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, q, p.ID, p.UserID, p.MatchID, p.HomeGoals, p.AwayGoals, p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s match %s: %w", p.UserID, p.MatchID, ErrDuplicatePrediction)
	}
	if err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}
	return nil
}

// Prediction implements PredictionStore.
func (s *PostgresStore) Prediction(ctx context.Context, userID, matchID string) (model.Prediction, error) {
	const q = `
		SELECT id, user_id, match_id, home_goals, away_goals, created_at, points
		FROM predictions
		WHERE user_id = $1 AND match_id = $2
	`
	p, err := scanPrediction(s.db.QueryRowContext(ctx, q, userID, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, fmt.Errorf("user %s match %s: %w", userID, matchID, ErrPredictionNotFound)
	}
	if err != nil {
		return model.Prediction{}, fmt.Errorf("querying prediction: %w", err)
	}
	return p, nil
}

// PredictionsForMatch implements PredictionStore.
func (s *PostgresStore) PredictionsForMatch(ctx context.Context, matchID string) ([]model.Prediction, error) {
	const q = `
		SELECT id, user_id, match_id, home_goals, away_goals, created_at, points
		FROM predictions
		WHERE match_id = $1
		ORDER BY created_at DESC, id
	`
	return s.queryPredictions(ctx, q, matchID)
}

// PredictionsForUser implements PredictionStore.
func (s *PostgresStore) PredictionsForUser(ctx context.Context, userID string) ([]model.Prediction, error) {
	const q = `
		SELECT id, user_id, match_id, home_goals, away_goals, created_at, points
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	return s.queryPredictions(ctx, q, userID)
}

// Predictions implements PredictionStore.
func (s *PostgresStore) Predictions(ctx context.Context) ([]model.Prediction, error) {
	const q = `
		SELECT id, user_id, match_id, home_goals, away_goals, created_at, points
		FROM predictions
		ORDER BY created_at DESC, id
	`
	return s.queryPredictions(ctx, q)
}

func (s *PostgresStore) queryPredictions(ctx context.Context, q string, args ...any) ([]model.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Prediction, 0)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return out, nil
}

// ApplyPoints implements PredictionStore. All updates share one
// transaction; a missing prediction aborts the whole pass.
func (s *PostgresStore) ApplyPoints(ctx context.Context, matchID string, points map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin points tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for id, pts := range points {
		res, err := tx.ExecContext(ctx,
			`UPDATE predictions SET points = $1 WHERE id = $2 AND match_id = $3`,
			pts, id, matchID)
		if err != nil {
			return fmt.Errorf("updating prediction %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking prediction %s update: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("prediction %s on match %s: %w", id, matchID, ErrPredictionNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit points tx: %w", err)
	}
	return nil
}

// CreateUser implements UserStore.
func (s *PostgresStore) CreateUser(ctx context.Context, u model.User) error {
	const q = `INSERT INTO users (id, name, email, joined_at) VALUES ($1, $2, $3, $4)`
	_, err := s.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.JoinedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.ID, ErrDuplicateUser)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// User implements UserStore.
func (s *PostgresStore) User(ctx context.Context, id string) (model.User, error) {
	const q = `SELECT id, name, email, joined_at FROM users WHERE id = $1`
	var u model.User
	err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Email, &u.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// Users implements UserStore.
func (s *PostgresStore) Users(ctx context.Context) ([]model.User, error) {
	const q = `SELECT id, name, email, joined_at FROM users ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return out, nil
}

// UpdateUserEmail implements UserStore.
func (s *PostgresStore) UpdateUserEmail(ctx context.Context, id, email string) (model.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET email = $1 WHERE id = $2`, email, id)
	if err != nil {
		return model.User{}, fmt.Errorf("updating user email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.User{}, fmt.Errorf("checking user update: %w", err)
	}
	if n == 0 {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return s.User(ctx, id)
}

// Counts implements Store.
func (s *PostgresStore) Counts(ctx context.Context) (matches, predictions, users int) {
	_ = s.db.QueryRowContext(ctx, `SELECT count(*) FROM matches`).Scan(&matches)
	_ = s.db.QueryRowContext(ctx, `SELECT count(*) FROM predictions`).Scan(&predictions)
	_ = s.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&users)
	return matches, predictions, users
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (model.Match, error) {
	var (
		m         model.Match
		status    string
		homeGoals sql.NullInt64
		awayGoals sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Competition, &m.Kickoff, &status, &homeGoals, &awayGoals); err != nil {
		return model.Match{}, err
	}
	m.Status = model.MatchStatus(status)
	if homeGoals.Valid && awayGoals.Valid {
		m.Result = &model.Score{HomeGoals: int(homeGoals.Int64), AwayGoals: int(awayGoals.Int64)}
	}
	return m, nil
}

func scanPrediction(row rowScanner) (model.Prediction, error) {
	var (
		p      model.Prediction
		points sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.MatchID, &p.HomeGoals, &p.AwayGoals, &p.CreatedAt, &points); err != nil {
		return model.Prediction{}, err
	}
	if points.Valid {
		v := int(points.Int64)
		p.Points = &v
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
