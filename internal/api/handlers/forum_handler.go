package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/forum-be/internal/auth"
	"github.com/isdelr/forum-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ForumHandler handles HTTP requests for topics and messages.
type ForumHandler struct {
	service services.ForumServiceProvider
}

// NewForumHandler creates a new ForumHandler.
func NewForumHandler(service services.ForumServiceProvider) *ForumHandler {
	return &ForumHandler{service: service}
}

// MessagePayload carries a message in topic requests.
type MessagePayload struct {
	ID      string     `json:"id"`
	Text    string     `json:"text"`
	Created *time.Time `json:"created,omitempty"`
}

// TopicPayload defines the structure for topic create/update requests.
type TopicPayload struct {
	ID        string          `json:"id"`
	TopicName *string         `json:"topicName"`
	Message   *MessagePayload `json:"message"`
}

// CreateTopic handles the request to create a topic with its seed message.
func (h *ForumHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var payload TopicPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Message == nil {
		http.Error(w, "Topic and initial message must be provided", http.StatusBadRequest)
		return
	}

	title := ""
	if payload.TopicName != nil {
		title = *payload.TopicName
	}

	topic, err := h.service.CreateTopic(title, payload.Message.Text, payload.Message.Created, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, topic)
}

// GetAllTopics handles the paginated topic listing.
func (h *ForumHandler) GetAllTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.GetAllTopics(queryInt(r, "page", 0), queryInt(r, "size", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// GetTopic handles retrieving a single topic by its ID.
func (h *ForumHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.service.GetTopicByID(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

// UpdateTopic handles retitling a topic. Owner only.
func (h *ForumHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var payload TopicPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	topic, err := h.service.UpdateTopic(payload.ID, payload.TopicName, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

// AddMessage handles appending a message to a topic. Responds with the
// updated topic as read in the same transaction as the write.
func (h *ForumHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var payload MessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	topic, err := h.service.AddMessage(chi.URLParam(r, "id"), payload.Text, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

// UpdateMessage handles editing a message's text. Author only.
func (h *ForumHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	topicID := chi.URLParam(r, "id")

	var payload MessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	topic, err := h.service.UpdateMessage(topicID, payload.ID, payload.Text, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

// DeleteMessage handles removing a message. Author only; deleting a topic's
// last message removes the topic as well.
func (h *ForumHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMessage(chi.URLParam(r, "id"), username); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTopicMessages handles the paginated message listing for a topic.
func (h *ForumHandler) GetTopicMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.GetTopicMessages(chi.URLParam(r, "id"), queryInt(r, "page", 0), queryInt(r, "size", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// requester extracts the authenticated username bound by the auth middleware.
func requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing or invalid auth token", http.StatusUnauthorized)
		return "", false
	}
	return claims.Username, true
}

// writeServiceError maps typed service failures to HTTP status codes.
// Anything unmapped is a generic server error with no user-facing detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrBadCredentials):
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyExists), errors.Is(err, services.ErrMessageNotInTopic):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
