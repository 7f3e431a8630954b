// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/toto/internal/domain/types"
)

// MatchDependencies defines the interface for fixture operations.
type MatchDependencies interface {
	CreateMatch(ctx context.Context, homeTeam, awayTeam, competition string, kickoff time.Time) (types.Match, error)
	Match(ctx context.Context, id string) (types.Match, error)
	Matches(ctx context.Context) ([]types.Match, error)
	UpcomingMatches(ctx context.Context) ([]types.Match, error)
	MarkLive(ctx context.Context, id string) error
	RecordResult(ctx context.Context, matchID string, homeGoals, awayGoals int) (types.Match, error)
}

// MatchesHandler handles fixture requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new fixture handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// createMatchRequest mirrors the OpenAPI schema for POST /api/matches.
type createMatchRequest struct {
	HomeTeam    string `json:"homeTeam"`
	AwayTeam    string `json:"awayTeam"`
	Competition string `json:"competition"`
	Date        string `json:"date"`
}

func (m createMatchRequest) validate() error {
	switch {
	case strings.TrimSpace(m.HomeTeam) == "":
		return errors.New("missing homeTeam")
	case strings.TrimSpace(m.AwayTeam) == "":
		return errors.New("missing awayTeam")
	case strings.TrimSpace(m.Date) == "":
		return errors.New("missing date")
	}
	if _, err := time.Parse(time.RFC3339, m.Date); err != nil {
		return errors.New("invalid date; must be RFC3339")
	}
	return nil
}

// resultRequest mirrors the schema for PUT /api/matches/{id}/result.
type resultRequest struct {
	HomeGoals int `json:"homeGoals"`
	AwayGoals int `json:"awayGoals"`
}

// HandleList handles GET /api/matches requests.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.Matches(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleUpcoming handles GET /api/matches/upcoming requests.
func (h *MatchesHandler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.UpcomingMatches(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleGet handles GET /api/matches/{id} requests.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Match(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleCreate handles POST /api/matches requests.
func (h *MatchesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	kickoff, _ := time.Parse(time.RFC3339, req.Date)
	m, err := h.deps.CreateMatch(r.Context(), req.HomeTeam, req.AwayTeam, req.Competition, kickoff)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleMarkLive handles PUT /api/matches/{id}/live requests.
func (h *MatchesHandler) HandleMarkLive(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.deps.MarkLive(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	m, err := h.deps.Match(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleRecordResult handles PUT /api/matches/{id}/result requests.
func (h *MatchesHandler) HandleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	m, err := h.deps.RecordResult(r.Context(), mux.Vars(r)["id"], req.HomeGoals, req.AwayGoals)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
