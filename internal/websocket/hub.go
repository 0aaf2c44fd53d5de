package websocket

import "github.com/rs/zerolog/log"

// TargetedMessage is a message addressed to the watchers of a single topic.
type TargetedMessage struct {
	TopicID string
	Data    []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client and subscription state is owned by the Run goroutine; callers
// reach it only through the channels.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Messages for the global feed.
	Broadcast chan []byte

	// Messages for the watchers of a single topic.
	targeted chan TargetedMessage

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of topic IDs to the set of clients watching that topic.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		targeted:      make(chan TargetedMessage),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If the client connected for a specific topic, subscribe it.
			if client.TopicID != "" {
				h.addSubscription(client, client.TopicID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				// Topic watchers receive only their topic's messages.
				if client.TopicID != "" {
					continue
				}
				h.send(client, message)
			}
		case message := <-h.targeted:
			for client := range h.subscriptions[message.TopicID] {
				h.send(client, message.Data)
			}
		}
	}
}

// BroadcastTo sends a message to all clients watching a specific topic ID.
// Delivery happens on the Run goroutine, which owns the client state.
func (h *Hub) BroadcastTo(topicID string, message []byte) {
	h.targeted <- TargetedMessage{TopicID: topicID, Data: message}
}

// send delivers one message, dropping the client when its buffer is full.
// Only called from Run.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
		h.removeSubscription(client)
	}
}

func (h *Hub) addSubscription(client *Client, topicID string) {
	if h.subscriptions[topicID] == nil {
		h.subscriptions[topicID] = make(map[*Client]bool)
	}
	h.subscriptions[topicID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for topicID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, topicID)
			}
		}
	}
}
