// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/toto/internal/domain/types"
)

// UserDependencies defines the interface for user registration.
type UserDependencies interface {
	RegisterUser(ctx context.Context, name, email string) (types.Profile, error)
}

// TokenIssuer signs bearer tokens for the profile routes.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// UsersHandler handles user registration requests.
type UsersHandler struct {
	deps   UserDependencies
	tokens TokenIssuer
}

// NewUsersHandler creates a new user registration handler.
func NewUsersHandler(deps UserDependencies, tokens TokenIssuer) *UsersHandler {
	return &UsersHandler{deps: deps, tokens: tokens}
}

// registerUserRequest mirrors the schema for POST /api/users.
type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// registerUserResponse carries the new profile and, when a token issuer
// is configured, the bearer token for the profile routes.
type registerUserResponse struct {
	User  types.Profile `json:"user"`
	Token string        `json:"token,omitempty"`
}

// HandleRegister handles POST /api/users requests.
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	profile, err := h.deps.RegisterUser(r.Context(), req.Username, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := registerUserResponse{User: profile}
	if h.tokens != nil {
		token, err := h.tokens.Generate(profile.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusCreated, resp)
}
