// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/toto/internal/domain/types"
)

// defaultMaxLeaderboardLimit caps the leaderboard page size.
const defaultMaxLeaderboardLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	// Fixture management.
	CreateMatch(ctx context.Context, homeTeam, awayTeam, competition string, kickoff time.Time) (types.Match, error)
	Match(ctx context.Context, id string) (types.Match, error)
	Matches(ctx context.Context) ([]types.Match, error)
	UpcomingMatches(ctx context.Context) ([]types.Match, error)
	MarkLive(ctx context.Context, id string) error
	RecordResult(ctx context.Context, matchID string, homeGoals, awayGoals int) (types.Match, error)

	// Predictions.
	SubmitPrediction(ctx context.Context, userID, matchID string, homeGoals, awayGoals int) (types.Prediction, error)
	PredictionFor(ctx context.Context, userID, matchID string) (types.Prediction, error)
	UserPredictions(ctx context.Context, userID string) ([]types.Prediction, error)

	// Users.
	RegisterUser(ctx context.Context, name, email string) (types.Profile, error)

	// Read views.
	Leaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
	Profile(ctx context.Context, userID string) (types.Profile, error)
	UpdateProfileEmail(ctx context.Context, userID, email string) (types.Profile, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	matchesHandler     *MatchesHandler
	predictionsHandler *PredictionsHandler
	leaderboardHandler *LeaderboardHandler
	profileHandler     *ProfileHandler
	usersHandler       *UsersHandler

	authMiddleware mux.MiddlewareFunc
	tokenIssuer    TokenIssuer
	maxLimit       int
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxLeaderboardLimit caps the limit query parameter on the
// leaderboard route.
func WithMaxLeaderboardLimit(limit int) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithAuthMiddleware guards the profile routes with the given
// middleware. Without it the profile routes reject every request.
func WithAuthMiddleware(mw mux.MiddlewareFunc) ServerOption {
	return func(s *Server) {
		s.authMiddleware = mw
	}
}

// WithTokenIssuer makes user registration return a bearer token for
// the profile routes.
func WithTokenIssuer(issuer TokenIssuer) ServerOption {
	return func(s *Server) {
		s.tokenIssuer = issuer
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		maxLimit: defaultMaxLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.matchesHandler = NewMatchesHandler(deps)
	s.predictionsHandler = NewPredictionsHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.profileHandler = NewProfileHandler(deps)
	s.usersHandler = NewUsersHandler(deps, s.tokenIssuer)
	return s
}

// Register attaches all HTTP routes to the router.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/matches/upcoming", MetricsMiddleware(s.matchesHandler.HandleUpcoming, "matches_upcoming")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleList, "matches_list")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleCreate, "matches_create")).Methods(http.MethodPost)
	apiRouter.HandleFunc("/matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "matches_get")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/matches/{id}/live", MetricsMiddleware(s.matchesHandler.HandleMarkLive, "matches_live")).Methods(http.MethodPut)
	apiRouter.HandleFunc("/matches/{id}/result", MetricsMiddleware(s.matchesHandler.HandleRecordResult, "matches_result")).Methods(http.MethodPut)

	apiRouter.HandleFunc("/users", MetricsMiddleware(s.usersHandler.HandleRegister, "users_register")).Methods(http.MethodPost)

	apiRouter.HandleFunc("/predictions", MetricsMiddleware(s.predictionsHandler.HandleSubmit, "predictions_submit")).Methods(http.MethodPost)
	apiRouter.HandleFunc("/matches/{matchId}/predictions/{userId}", MetricsMiddleware(s.predictionsHandler.HandleGet, "predictions_get")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userId}/predictions", MetricsMiddleware(s.predictionsHandler.HandleForUser, "predictions_for_user")).Methods(http.MethodGet)

	apiRouter.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")).Methods(http.MethodGet)

	profileRouter := apiRouter.PathPrefix("/profile").Subrouter()
	if s.authMiddleware != nil {
		profileRouter.Use(s.authMiddleware)
	}
	profileRouter.HandleFunc("", MetricsMiddleware(s.profileHandler.HandleGet, "profile_get")).Methods(http.MethodGet)
	profileRouter.HandleFunc("", MetricsMiddleware(s.profileHandler.HandleUpdate, "profile_update")).Methods(http.MethodPut)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps a service or repository error onto its HTTP
// status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	writeError(w, status, code, err)
}
