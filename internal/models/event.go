package models

import "time"

// Event represents a loggable action in the forum.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "topic.create", "message.delete"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	TopicID   *string   `json:"topicId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
