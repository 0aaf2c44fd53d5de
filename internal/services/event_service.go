package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/forum-be/internal/models"
	ws "github.com/isdelr/forum-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Publish(eventType, level, message string, topicID *string)
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records forum activity and fans it out to connected websocket
// clients. Publishing never fails the operation that triggered it.
type EventService struct {
	db  *sql.DB
	hub *ws.Hub
}

// NewEventService creates a new EventService. The hub may be nil when no live
// feed is wanted.
func NewEventService(db *sql.DB, hub *ws.Hub) *EventService {
	return &EventService{db: db, hub: hub}
}

// Publish logs a new event to the database and broadcasts it on the hub.
func (s *EventService) Publish(eventType, level, message string, topicID *string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		TopicID:   topicID,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, topic_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.TopicID, event.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to persist event")
		return
	}

	if s.hub == nil {
		return
	}
	// The global feed and per-topic watchers are disjoint sets, so every
	// connected client sees an event at most once.
	payload := ws.NewEventMessage(event)
	s.hub.Broadcast <- payload
	if topicID != nil {
		s.hub.BroadcastTo(*topicID, payload)
	}
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, topic_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.TopicID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
