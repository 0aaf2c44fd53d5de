package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/forum-be/internal/models"
)

// Default page sizes for listings.
const (
	DefaultTopicPageSize   = 5
	DefaultMessagePageSize = 10
)

// ForumServiceProvider defines the interface for forum services.
type ForumServiceProvider interface {
	CreateTopic(title, seedText string, seedCreated *time.Time, username string) (models.Topic, error)
	GetAllTopics(page, size int) (models.Page[models.Topic], error)
	GetTopicByID(id string) (models.Topic, error)
	UpdateTopic(id string, newTitle *string, username string) (models.Topic, error)
	AddMessage(topicID, text, username string) (models.Topic, error)
	UpdateMessage(topicID, messageID, newText, username string) (models.Topic, error)
	DeleteMessage(messageID, username string) error
	GetTopicMessages(topicID string, page, size int) (models.Page[models.Message], error)
}

// ForumService provides the business logic for topics and messages.
type ForumService struct {
	db       *sql.DB
	eventSvc EventServiceProvider
}

// NewForumService creates a new ForumService.
func NewForumService(db *sql.DB, eventSvc EventServiceProvider) *ForumService {
	return &ForumService{db: db, eventSvc: eventSvc}
}

// querier is satisfied by both *sql.DB and *sql.Tx so load helpers can run
// inside or outside a transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// owned is any entity with an ownership relation to a user. mutableBy is the
// single authorization predicate applied before every mutation.
type owned interface {
	OwnedBy(models.User) bool
}

func mutableBy(entity owned, user models.User) error {
	if !entity.OwnedBy(user) {
		return fmt.Errorf("only the author may modify this: %w", ErrNotAuthorized)
	}
	return nil
}

// CreateTopic creates a topic together with its seed message in one
// transaction. The seed message's author is the requester; its timestamp is
// the caller-supplied one, or now when omitted.
func (s *ForumService) CreateTopic(title, seedText string, seedCreated *time.Time, username string) (models.Topic, error) {
	if seedText == "" {
		return models.Topic{}, fmt.Errorf("topic requires an initial message: %w", ErrInvalidInput)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Topic{}, err
	}
	defer tx.Rollback()

	user, err := s.requester(tx, username)
	if err != nil {
		return models.Topic{}, err
	}

	now := time.Now()
	topic := models.Topic{
		ID:      uuid.New().String(),
		Title:   title,
		Created: now,
		UserID:  user.ID,
	}

	message := models.Message{
		ID:      uuid.New().String(),
		TopicID: topic.ID,
		Author:  user.Username,
		Text:    seedText,
		Created: now,
	}
	if seedCreated != nil {
		message.Created = *seedCreated
	}

	if _, err := tx.Exec("INSERT INTO topics(id, title, created, user_id) VALUES(?, ?, ?, ?)",
		topic.ID, topic.Title, topic.Created, topic.UserID); err != nil {
		return models.Topic{}, err
	}
	if _, err := tx.Exec("INSERT INTO messages(id, topic_id, author, text, created) VALUES(?, ?, ?, ?, ?)",
		message.ID, message.TopicID, message.Author, message.Text, message.Created); err != nil {
		return models.Topic{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Topic{}, err
	}

	topic.Messages = []models.Message{message}
	s.eventSvc.Publish("topic.create", "info", fmt.Sprintf("Topic %q created by %s", topic.Title, user.Username), &topic.ID)
	return topic, nil
}

// GetAllTopics returns one page of all topics, oldest first.
func (s *ForumService) GetAllTopics(page, size int) (models.Page[models.Topic], error) {
	page, size = normalizePaging(page, size, DefaultTopicPageSize)

	var total int64
	if err := s.db.QueryRow("SELECT COUNT(1) FROM topics").Scan(&total); err != nil {
		return models.Page[models.Topic]{}, err
	}

	rows, err := s.db.Query("SELECT id, title, created, user_id FROM topics ORDER BY created, id LIMIT ? OFFSET ?",
		size, page*size)
	if err != nil {
		return models.Page[models.Topic]{}, err
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var topic models.Topic
		if err := rows.Scan(&topic.ID, &topic.Title, &topic.Created, &topic.UserID); err != nil {
			return models.Page[models.Topic]{}, err
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Topic]{}, err
	}

	for i := range topics {
		if topics[i].Messages, err = loadMessages(s.db, topics[i].ID); err != nil {
			return models.Page[models.Topic]{}, err
		}
	}

	return models.NewPage(topics, page, size, total), nil
}

// GetTopicByID retrieves a topic with its messages in insertion order.
func (s *ForumService) GetTopicByID(id string) (models.Topic, error) {
	return loadTopic(s.db, id)
}

// UpdateTopic replaces a topic's title. Only the topic's owner may update it;
// a nil title leaves it unchanged.
func (s *ForumService) UpdateTopic(id string, newTitle *string, username string) (models.Topic, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Topic{}, err
	}
	defer tx.Rollback()

	topic, err := loadTopic(tx, id)
	if err != nil {
		return models.Topic{}, err
	}
	user, err := s.requester(tx, username)
	if err != nil {
		return models.Topic{}, err
	}
	if err := mutableBy(topic, user); err != nil {
		return models.Topic{}, err
	}

	if newTitle != nil {
		topic.Title = *newTitle
		if _, err := tx.Exec("UPDATE topics SET title = ? WHERE id = ?", topic.Title, topic.ID); err != nil {
			return models.Topic{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Topic{}, err
	}

	s.eventSvc.Publish("topic.update", "info", fmt.Sprintf("Topic %q updated by %s", topic.Title, user.Username), &topic.ID)
	return topic, nil
}

// AddMessage appends a message to an existing topic. The author is always the
// requester's username and the timestamp is now. Returns the topic with the
// new message included, read inside the same transaction as the write.
func (s *ForumService) AddMessage(topicID, text, username string) (models.Topic, error) {
	if text == "" {
		return models.Topic{}, fmt.Errorf("message text must be provided: %w", ErrInvalidInput)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Topic{}, err
	}
	defer tx.Rollback()

	user, err := s.requester(tx, username)
	if err != nil {
		return models.Topic{}, err
	}
	if err := topicExists(tx, topicID); err != nil {
		return models.Topic{}, err
	}

	message := models.Message{
		ID:      uuid.New().String(),
		TopicID: topicID,
		Author:  user.Username,
		Text:    text,
		Created: time.Now(),
	}
	if _, err := tx.Exec("INSERT INTO messages(id, topic_id, author, text, created) VALUES(?, ?, ?, ?, ?)",
		message.ID, message.TopicID, message.Author, message.Text, message.Created); err != nil {
		return models.Topic{}, err
	}

	topic, err := loadTopic(tx, topicID)
	if err != nil {
		return models.Topic{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Topic{}, err
	}

	s.eventSvc.Publish("message.add", "info", fmt.Sprintf("Message added by %s", user.Username), &topicID)
	return topic, nil
}

// UpdateMessage replaces a message's text. The message must belong to the
// given topic and the requester must be its author. Returns the topic the
// message belongs to.
func (s *ForumService) UpdateMessage(topicID, messageID, newText, username string) (models.Topic, error) {
	if newText == "" {
		return models.Topic{}, fmt.Errorf("message text must be provided: %w", ErrInvalidInput)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Topic{}, err
	}
	defer tx.Rollback()

	if err := topicExists(tx, topicID); err != nil {
		return models.Topic{}, err
	}
	message, err := loadMessage(tx, messageID)
	if err != nil {
		return models.Topic{}, err
	}
	if message.TopicID != topicID {
		return models.Topic{}, fmt.Errorf("message %s belongs to topic %s: %w", message.ID, message.TopicID, ErrMessageNotInTopic)
	}

	user, err := s.requester(tx, username)
	if err != nil {
		return models.Topic{}, err
	}
	if err := mutableBy(message, user); err != nil {
		return models.Topic{}, err
	}

	if _, err := tx.Exec("UPDATE messages SET text = ? WHERE id = ?", newText, message.ID); err != nil {
		return models.Topic{}, err
	}

	topic, err := loadTopic(tx, topicID)
	if err != nil {
		return models.Topic{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Topic{}, err
	}

	s.eventSvc.Publish("message.update", "info", fmt.Sprintf("Message updated by %s", user.Username), &topicID)
	return topic, nil
}

// DeleteMessage removes a message authored by the requester. Deleting the last
// message of a topic deletes the topic as well, so no topic is ever left with
// zero messages.
func (s *ForumService) DeleteMessage(messageID, username string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	message, err := loadMessage(tx, messageID)
	if err != nil {
		return err
	}
	user, err := s.requester(tx, username)
	if err != nil {
		return err
	}
	if err := mutableBy(message, user); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE id = ?", message.ID); err != nil {
		return err
	}

	var remaining int64
	if err := tx.QueryRow("SELECT COUNT(1) FROM messages WHERE topic_id = ?", message.TopicID).Scan(&remaining); err != nil {
		return err
	}
	if remaining == 0 {
		if _, err := tx.Exec("DELETE FROM topics WHERE id = ?", message.TopicID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if remaining == 0 {
		s.eventSvc.Publish("topic.delete", "info", fmt.Sprintf("Topic deleted after its last message was removed by %s", user.Username), nil)
	} else {
		s.eventSvc.Publish("message.delete", "info", fmt.Sprintf("Message deleted by %s", user.Username), &message.TopicID)
	}
	return nil
}

// GetTopicMessages returns one page of a topic's messages in insertion order.
func (s *ForumService) GetTopicMessages(topicID string, page, size int) (models.Page[models.Message], error) {
	page, size = normalizePaging(page, size, DefaultMessagePageSize)

	if err := topicExists(s.db, topicID); err != nil {
		return models.Page[models.Message]{}, err
	}

	var total int64
	if err := s.db.QueryRow("SELECT COUNT(1) FROM messages WHERE topic_id = ?", topicID).Scan(&total); err != nil {
		return models.Page[models.Message]{}, err
	}

	rows, err := s.db.Query("SELECT id, topic_id, author, text, created FROM messages WHERE topic_id = ? ORDER BY created, id LIMIT ? OFFSET ?",
		topicID, size, page*size)
	if err != nil {
		return models.Page[models.Message]{}, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(&message.ID, &message.TopicID, &message.Author, &message.Text, &message.Created); err != nil {
			return models.Page[models.Message]{}, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Message]{}, err
	}

	return models.NewPage(messages, page, size, total), nil
}

// requester resolves the authenticated username to a user row. An unresolvable
// requester is an authorization failure, not a lookup failure.
func (s *ForumService) requester(q querier, username string) (models.User, error) {
	var user models.User
	row := q.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("requester %q not found: %w", username, ErrNotAuthorized)
		}
		return models.User{}, err
	}
	return user, nil
}

func topicExists(q querier, id string) error {
	var n int
	if err := q.QueryRow("SELECT COUNT(1) FROM topics WHERE id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	return nil
}

func loadTopic(q querier, id string) (models.Topic, error) {
	var topic models.Topic
	row := q.QueryRow("SELECT id, title, created, user_id FROM topics WHERE id = ?", id)
	err := row.Scan(&topic.ID, &topic.Title, &topic.Created, &topic.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
		}
		return models.Topic{}, err
	}
	if topic.Messages, err = loadMessages(q, topic.ID); err != nil {
		return models.Topic{}, err
	}
	return topic, nil
}

func loadMessage(q querier, id string) (models.Message, error) {
	var message models.Message
	row := q.QueryRow("SELECT id, topic_id, author, text, created FROM messages WHERE id = ?", id)
	err := row.Scan(&message.ID, &message.TopicID, &message.Author, &message.Text, &message.Created)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Message{}, fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		return models.Message{}, err
	}
	return message, nil
}

func loadMessages(q querier, topicID string) ([]models.Message, error) {
	rows, err := q.Query("SELECT id, topic_id, author, text, created FROM messages WHERE topic_id = ? ORDER BY created, id", topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(&message.ID, &message.TopicID, &message.Author, &message.Text, &message.Created); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func normalizePaging(page, size, defaultSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultSize
	}
	return page, size
}
