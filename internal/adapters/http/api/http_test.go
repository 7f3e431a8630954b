package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	api "github.com/okian/toto/internal/adapters/http/api"
	repository "github.com/okian/toto/internal/adapters/repository"
	service "github.com/okian/toto/internal/app"
	"github.com/okian/toto/internal/auth"
	"github.com/okian/toto/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var testKickoff = time.Date(2026, time.April, 4, 15, 0, 0, 0, time.UTC)

// mockDeps implements api.Dependencies and api.StatsProvider backed by
// fixed data.
type mockDeps struct {
	matches     map[string]types.Match
	predictions map[string]types.Prediction
	profiles    map[string]types.Profile
	entries     []types.LeaderboardEntry

	submitErr   error
	resultErr   error
	registerErr error
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		matches:     make(map[string]types.Match),
		predictions: make(map[string]types.Prediction),
		profiles:    make(map[string]types.Profile),
	}
}

func (m *mockDeps) CreateMatch(ctx context.Context, homeTeam, awayTeam, competition string, kickoff time.Time) (types.Match, error) {
	match := types.Match{ID: "m-new", HomeTeam: homeTeam, AwayTeam: awayTeam, Competition: competition, Date: kickoff, Status: "scheduled"}
	m.matches[match.ID] = match
	return match, nil
}

func (m *mockDeps) Match(ctx context.Context, id string) (types.Match, error) {
	match, ok := m.matches[id]
	if !ok {
		return types.Match{}, fmt.Errorf("match %s: %w", id, repository.ErrMatchNotFound)
	}
	return match, nil
}

func (m *mockDeps) Matches(ctx context.Context) ([]types.Match, error) {
	out := make([]types.Match, 0, len(m.matches))
	for _, match := range m.matches {
		out = append(out, match)
	}
	return out, nil
}

func (m *mockDeps) UpcomingMatches(ctx context.Context) ([]types.Match, error) {
	out := []types.Match{}
	for _, match := range m.matches {
		if match.Status == "scheduled" {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *mockDeps) MarkLive(ctx context.Context, id string) error {
	match, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("match %s: %w", id, repository.ErrMatchNotFound)
	}
	match.Status = "live"
	m.matches[id] = match
	return nil
}

func (m *mockDeps) RecordResult(ctx context.Context, matchID string, homeGoals, awayGoals int) (types.Match, error) {
	if m.resultErr != nil {
		return types.Match{}, m.resultErr
	}
	match, ok := m.matches[matchID]
	if !ok {
		return types.Match{}, fmt.Errorf("match %s: %w", matchID, repository.ErrMatchNotFound)
	}
	match.Status = "finished"
	match.Score = &types.Score{HomeGoals: homeGoals, AwayGoals: awayGoals}
	m.matches[matchID] = match
	return match, nil
}

func (m *mockDeps) SubmitPrediction(ctx context.Context, userID, matchID string, homeGoals, awayGoals int) (types.Prediction, error) {
	if m.submitErr != nil {
		return types.Prediction{}, m.submitErr
	}
	p := types.Prediction{ID: "p-new", UserID: userID, MatchID: matchID, HomeGoals: homeGoals, AwayGoals: awayGoals, CreatedAt: testKickoff.Add(-time.Hour)}
	m.predictions[userID+"/"+matchID] = p
	return p, nil
}

func (m *mockDeps) PredictionFor(ctx context.Context, userID, matchID string) (types.Prediction, error) {
	p, ok := m.predictions[userID+"/"+matchID]
	if !ok {
		return types.Prediction{}, fmt.Errorf("prediction: %w", repository.ErrPredictionNotFound)
	}
	return p, nil
}

func (m *mockDeps) UserPredictions(ctx context.Context, userID string) ([]types.Prediction, error) {
	out := []types.Prediction{}
	for key, p := range m.predictions {
		if strings.HasPrefix(key, userID+"/") {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockDeps) Leaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	entries := m.entries
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *mockDeps) RegisterUser(ctx context.Context, name, email string) (types.Profile, error) {
	if m.registerErr != nil {
		return types.Profile{}, m.registerErr
	}
	p := types.Profile{UserID: "u-new", Username: name, Email: email, RecentPredictions: []types.Prediction{}}
	m.profiles[p.UserID] = p
	return p, nil
}

func (m *mockDeps) Profile(ctx context.Context, userID string) (types.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return types.Profile{}, fmt.Errorf("user %s: %w", userID, repository.ErrUserNotFound)
	}
	return p, nil
}

func (m *mockDeps) UpdateProfileEmail(ctx context.Context, userID, email string) (types.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return types.Profile{}, fmt.Errorf("user %s: %w", userID, repository.ErrUserNotFound)
	}
	p.Email = email
	m.profiles[userID] = p
	return p, nil
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestRouter(deps *mockDeps, opts ...api.ServerOption) *mux.Router {
	r := mux.NewRouter()
	api.NewServer(deps, deps, opts...).Register(context.Background(), r)
	return r
}

func doRequest(router *mux.Router, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMatchRoutes(t *testing.T) {
	Convey("Given a router with one scheduled fixture", t, func() {
		deps := newMockDeps()
		deps.matches["m1"] = types.Match{ID: "m1", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Date: testKickoff, Status: "scheduled"}
		router := newTestRouter(deps)

		Convey("Then GET /api/matches/upcoming returns it", func() {
			rec := doRequest(router, http.MethodGet, "/api/matches/upcoming", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var matches []types.Match
			So(json.Unmarshal(rec.Body.Bytes(), &matches), ShouldBeNil)
			So(matches, ShouldHaveLength, 1)
			So(matches[0].ID, ShouldEqual, "m1")
		})

		Convey("Then GET /api/matches/{id} returns the fixture", func() {
			rec := doRequest(router, http.MethodGet, "/api/matches/m1", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then an unknown fixture maps to 404", func() {
			rec := doRequest(router, http.MethodGet, "/api/matches/ghost", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a fixture is created", func() {
			body := `{"homeTeam":"Leeds","awayTeam":"Spurs","competition":"Premier League","date":"2026-04-05T15:00:00Z"}`
			rec := doRequest(router, http.MethodPost, "/api/matches", body, nil)

			Convey("Then it responds 201 with the fixture", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				var m types.Match
				So(json.Unmarshal(rec.Body.Bytes(), &m), ShouldBeNil)
				So(m.HomeTeam, ShouldEqual, "Leeds")
			})
		})

		Convey("When the creation payload is malformed", func() {
			rec := doRequest(router, http.MethodPost, "/api/matches", `{"homeTeam":"Leeds","date":"yesterday"}`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a result is recorded", func() {
			rec := doRequest(router, http.MethodPut, "/api/matches/m1/result", `{"homeGoals":2,"awayGoals":1}`, nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var m types.Match
			So(json.Unmarshal(rec.Body.Bytes(), &m), ShouldBeNil)
			So(m.Status, ShouldEqual, "finished")
			So(m.Score.HomeGoals, ShouldEqual, 2)
		})

		Convey("When a result targets a fixture in the wrong state", func() {
			deps.resultErr = fmt.Errorf("match m1: %w", repository.ErrInvalidState)
			rec := doRequest(router, http.MethodPut, "/api/matches/m1/result", `{"homeGoals":2,"awayGoals":1}`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPredictionRoutes(t *testing.T) {
	Convey("Given a router", t, func() {
		deps := newMockDeps()
		router := newTestRouter(deps)

		Convey("When a prediction is submitted", func() {
			body := `{"userId":"alice","matchId":"m1","homeGoals":2,"awayGoals":1}`
			rec := doRequest(router, http.MethodPost, "/api/predictions", body, nil)

			Convey("Then it responds 201", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
			})

			Convey("Then it is readable per match and per user", func() {
				rec := doRequest(router, http.MethodGet, "/api/matches/m1/predictions/alice", "", nil)
				So(rec.Code, ShouldEqual, http.StatusOK)

				rec = doRequest(router, http.MethodGet, "/api/users/alice/predictions", "", nil)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var predictions []types.Prediction
				So(json.Unmarshal(rec.Body.Bytes(), &predictions), ShouldBeNil)
				So(predictions, ShouldHaveLength, 1)
			})
		})

		Convey("When the payload is missing the match", func() {
			rec := doRequest(router, http.MethodPost, "/api/predictions", `{"userId":"alice"}`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the match is locked", func() {
			deps.submitErr = fmt.Errorf("match m1: %w", service.ErrMatchLocked)
			body := `{"userId":"alice","matchId":"m1","homeGoals":2,"awayGoals":1}`
			rec := doRequest(router, http.MethodPost, "/api/predictions", body, nil)
			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the pair already predicted", func() {
			deps.submitErr = fmt.Errorf("prediction: %w", repository.ErrDuplicatePrediction)
			body := `{"userId":"alice","matchId":"m1","homeGoals":2,"awayGoals":1}`
			rec := doRequest(router, http.MethodPost, "/api/predictions", body, nil)
			So(rec.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When the prediction does not exist", func() {
			rec := doRequest(router, http.MethodGet, "/api/matches/m1/predictions/ghost", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardRoute(t *testing.T) {
	Convey("Given a router with standings", t, func() {
		deps := newMockDeps()
		deps.entries = []types.LeaderboardEntry{
			{Rank: 1, UserID: "alice", Username: "Alice", Points: 9},
			{Rank: 1, UserID: "bob", Username: "Bob", Points: 9},
			{Rank: 3, UserID: "carol", Username: "Carol", Points: 6},
		}
		router := newTestRouter(deps, api.WithMaxLeaderboardLimit(10))

		Convey("Then the full board is returned without a limit", func() {
			rec := doRequest(router, http.MethodGet, "/api/leaderboard", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var entries []types.LeaderboardEntry
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 3)
			So(entries[1].Rank, ShouldEqual, 1)
			So(entries[2].Rank, ShouldEqual, 3)
		})

		Convey("Then a limit truncates the board", func() {
			rec := doRequest(router, http.MethodGet, "/api/leaderboard?limit=2", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var entries []types.LeaderboardEntry
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
		})

		Convey("Then a malformed limit is rejected", func() {
			rec := doRequest(router, http.MethodGet, "/api/leaderboard?limit=abc", "", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then an oversized limit is rejected", func() {
			rec := doRequest(router, http.MethodGet, "/api/leaderboard?limit=1000", "", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestProfileRoutes(t *testing.T) {
	Convey("Given a router guarded by JWT auth", t, func() {
		deps := newMockDeps()
		deps.profiles["alice"] = types.Profile{UserID: "alice", Username: "Alice", Email: "alice@example.com"}
		tokens := auth.NewTokenManager("test-secret")
		router := newTestRouter(deps, api.WithAuthMiddleware(tokens.Middleware))

		token, err := tokens.Generate("alice")
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		authHeader := http.Header{"Authorization": []string{"Bearer " + token}}

		Convey("Then GET /api/profile resolves the token's user", func() {
			rec := doRequest(router, http.MethodGet, "/api/profile", "", authHeader)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var p types.Profile
			So(json.Unmarshal(rec.Body.Bytes(), &p), ShouldBeNil)
			So(p.Username, ShouldEqual, "Alice")
		})

		Convey("Then PUT /api/profile updates the email", func() {
			rec := doRequest(router, http.MethodPut, "/api/profile", `{"email":"new@example.com"}`, authHeader)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var p types.Profile
			So(json.Unmarshal(rec.Body.Bytes(), &p), ShouldBeNil)
			So(p.Email, ShouldEqual, "new@example.com")
		})

		Convey("Then requests without a token are rejected", func() {
			rec := doRequest(router, http.MethodGet, "/api/profile", "", nil)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestUserRegistrationRoute(t *testing.T) {
	Convey("Given a router issuing tokens on registration", t, func() {
		deps := newMockDeps()
		tokens := auth.NewTokenManager("test-secret")
		router := newTestRouter(deps,
			api.WithAuthMiddleware(tokens.Middleware),
			api.WithTokenIssuer(tokens),
		)

		Convey("When a user registers", func() {
			body := `{"username":"Alice","email":"alice@example.com"}`
			rec := doRequest(router, http.MethodPost, "/api/users", body, nil)

			Convey("Then it responds 201 with a profile and token", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var resp struct {
					User  types.Profile `json:"user"`
					Token string        `json:"token"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.User.Username, ShouldEqual, "Alice")
				So(resp.Token, ShouldNotBeEmpty)

				Convey("Then the token unlocks the profile routes", func() {
					header := http.Header{"Authorization": []string{"Bearer " + resp.Token}}
					rec := doRequest(router, http.MethodGet, "/api/profile", "", header)
					So(rec.Code, ShouldEqual, http.StatusOK)

					var p types.Profile
					So(json.Unmarshal(rec.Body.Bytes(), &p), ShouldBeNil)
					So(p.UserID, ShouldEqual, resp.User.UserID)
				})
			})
		})

		Convey("When the registration is invalid", func() {
			deps.registerErr = fmt.Errorf("register: %w", service.ErrInvalidProfile)
			rec := doRequest(router, http.MethodPost, "/api/users", `{"username":"Alice"}`, nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When no token issuer is configured", func() {
			plain := newTestRouter(newMockDeps())
			rec := doRequest(plain, http.MethodPost, "/api/users", `{"username":"Bob","email":"bob@example.com"}`, nil)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(rec.Body.String(), ShouldNotContainSubstring, "token")
		})
	})
}

func TestStatsRoute(t *testing.T) {
	Convey("Given a router", t, func() {
		deps := newMockDeps()
		router := newTestRouter(deps)

		Convey("Then GET /stats returns the provider payload", func() {
			rec := doRequest(router, http.MethodGet, "/stats", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "started")
		})
	})
}
