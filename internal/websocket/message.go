package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewEventMessage builds the wire form of an "event" envelope.
func NewEventMessage(event interface{}) []byte {
	return marshal(Message{Action: "event", Payload: event})
}

// NewStatsMessage builds the wire form of a "stats" envelope.
func NewStatsMessage(stats interface{}) []byte {
	return marshal(Message{Action: "stats", Payload: stats})
}

// NewErrorMessage builds the wire form of an "error" envelope.
func NewErrorMessage(detail string) []byte {
	return marshal(Message{Action: "error", Payload: detail})
}

func marshal(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode websocket message")
		return []byte(`{"action":"error","payload":"encoding failure"}`)
	}
	return data
}
