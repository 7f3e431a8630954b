// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okian/toto/internal/auth"
	"github.com/okian/toto/internal/domain/types"
)

// PredictionDependencies defines the interface for prediction
// operations.
type PredictionDependencies interface {
	SubmitPrediction(ctx context.Context, userID, matchID string, homeGoals, awayGoals int) (types.Prediction, error)
	PredictionFor(ctx context.Context, userID, matchID string) (types.Prediction, error)
	UserPredictions(ctx context.Context, userID string) ([]types.Prediction, error)
}

// PredictionsHandler handles prediction requests.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new prediction handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// predictionRequest mirrors the OpenAPI schema for POST /api/predictions.
// UserID may be omitted when the request is authenticated.
type predictionRequest struct {
	UserID    string `json:"userId"`
	MatchID   string `json:"matchId"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`
}

func (p predictionRequest) validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return errors.New("missing userId")
	case strings.TrimSpace(p.MatchID) == "":
		return errors.New("missing matchId")
	}
	return nil
}

// HandleSubmit handles POST /api/predictions requests.
func (h *PredictionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		req.UserID = userID
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	p, err := h.deps.SubmitPrediction(r.Context(), req.UserID, req.MatchID, req.HomeGoals, req.AwayGoals)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /api/matches/{matchId}/predictions/{userId}
// requests.
func (h *PredictionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, err := h.deps.PredictionFor(r.Context(), vars["userId"], vars["matchId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleForUser handles GET /api/users/{userId}/predictions requests.
func (h *PredictionsHandler) HandleForUser(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.deps.UserPredictions(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictions)
}
