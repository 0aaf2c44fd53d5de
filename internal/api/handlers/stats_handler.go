package handlers

import (
	"net/http"

	"github.com/isdelr/forum-be/internal/models"
)

// StatsProvider exposes the latest activity snapshot.
type StatsProvider interface {
	Latest() models.Stats
}

// StatsHandler handles HTTP requests for activity statistics.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get returns the most recent stats snapshot.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Latest())
}
