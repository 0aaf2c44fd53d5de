package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/forum-be/internal/auth"
	"github.com/isdelr/forum-be/internal/models"
	"github.com/isdelr/forum-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up and sign-in requests.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// CredentialsPayload defines the structure for sign-up and sign-in requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUp registers a new account and returns a bearer token for it.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyExists):
			http.Error(w, "Username is already taken", http.StatusConflict)
		case errors.Is(err, services.ErrInvalidInput):
			http.Error(w, "Username and password must be provided", http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
			http.Error(w, "Failed to register user", http.StatusInternalServerError)
		}
		return
	}

	h.writeToken(w, user)
}

// SignIn authenticates a user and returns a bearer token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	h.writeToken(w, user)
}

// writeToken issues a token for the user and writes it as the response body.
// The token is an opaque string; clients present it back verbatim.
func (h *AuthHandler) writeToken(w http.ResponseWriter, user models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to issue token")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(token))
}
