package models

import "time"

// Topic is a discussion thread holding an ordered collection of messages.
// Messages are stored as rows keyed by topic id; a topic never exists with
// zero messages.
type Topic struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created"`
	UserID   int64     `json:"userId"`
	Messages []Message `json:"messages"`
}

// OwnedBy reports whether the given user created the topic.
func (t Topic) OwnedBy(u User) bool {
	return t.UserID == u.ID
}
