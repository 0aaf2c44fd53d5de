package models

import "time"

// Message is a single authored post belonging to exactly one topic.
type Message struct {
	ID      string    `json:"id"`
	TopicID string    `json:"topicId"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// OwnedBy reports whether the given user authored the message.
func (m Message) OwnedBy(u User) bool {
	return m.Author == u.Username
}
