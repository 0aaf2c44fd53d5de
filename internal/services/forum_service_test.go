package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/forum-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTopicWithSeedMessage(t *testing.T) {
	forum, users, _ := newTestServices(t)
	alice := registerUser(t, users, "alice")

	seedTime := time.Now().Add(-time.Hour)
	topic, err := forum.CreateTopic("Hello", "first post", &seedTime, "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, topic.ID)
	assert.Equal(t, "Hello", topic.Title)
	assert.Equal(t, alice.ID, topic.UserID)
	require.Len(t, topic.Messages, 1)
	assert.Equal(t, "alice", topic.Messages[0].Author)
	assert.Equal(t, "first post", topic.Messages[0].Text)
	assert.WithinDuration(t, seedTime, topic.Messages[0].Created, time.Second)

	// The persisted topic matches what was returned.
	got, err := forum.GetTopicByID(topic.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, topic.Messages[0].ID, got.Messages[0].ID)
}

func TestCreateTopicSeedTimestampDefaultsToNow(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Hello", "first post", nil, "alice")
	require.NoError(t, err)
	require.Len(t, topic.Messages, 1)
	assert.WithinDuration(t, time.Now(), topic.Messages[0].Created, 5*time.Second)
}

func TestCreateTopicRequiresSeedText(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	_, err := forum.CreateTopic("Hello", "", nil, "alice")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateTopicUnknownRequester(t *testing.T) {
	forum, _, _ := newTestServices(t)

	_, err := forum.CreateTopic("Hello", "first post", nil, "ghost")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetTopicByIDNotFound(t *testing.T) {
	forum, _, _ := newTestServices(t)

	_, err := forum.GetTopicByID(uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTopicOwnerOnly(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")
	registerUser(t, users, "bob")

	topic, err := forum.CreateTopic("Original", "seed", nil, "alice")
	require.NoError(t, err)

	newTitle := "Hijacked"
	_, err = forum.UpdateTopic(topic.ID, &newTitle, "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	unchanged, err := forum.GetTopicByID(topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", unchanged.Title)

	renamed := "Renamed"
	updated, err := forum.UpdateTopic(topic.ID, &renamed, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestUpdateTopicNilTitleLeavesItAlone(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Original", "seed", nil, "alice")
	require.NoError(t, err)

	updated, err := forum.UpdateTopic(topic.ID, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title)
}

func TestAddMessage(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")
	registerUser(t, users, "bob")

	topic, err := forum.CreateTopic("Chat", "seed", nil, "alice")
	require.NoError(t, err)

	// The returned topic already carries the new message; no re-read needed.
	updated, err := forum.AddMessage(topic.ID, "hello there", "bob")
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, "seed", updated.Messages[0].Text)
	assert.Equal(t, "hello there", updated.Messages[1].Text)
	assert.Equal(t, "bob", updated.Messages[1].Author)
	assert.Equal(t, topic.ID, updated.Messages[1].TopicID)
}

func TestAddMessageTopicNotFound(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	_, err := forum.AddMessage(uuid.New().String(), "hello", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMessageAuthorOnly(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")
	registerUser(t, users, "bob")

	topic, err := forum.CreateTopic("Chat", "seed", nil, "alice")
	require.NoError(t, err)
	messageID := topic.Messages[0].ID

	_, err = forum.UpdateMessage(topic.ID, messageID, "defaced", "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	unchanged, err := forum.GetTopicByID(topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed", unchanged.Messages[0].Text)

	updated, err := forum.UpdateMessage(topic.ID, messageID, "edited", "alice")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Messages[0].Text)
}

func TestUpdateMessageWrongTopic(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	first, err := forum.CreateTopic("First", "seed one", nil, "alice")
	require.NoError(t, err)
	second, err := forum.CreateTopic("Second", "seed two", nil, "alice")
	require.NoError(t, err)

	_, err = forum.UpdateMessage(first.ID, second.Messages[0].ID, "moved?", "alice")
	assert.ErrorIs(t, err, ErrMessageNotInTopic)
}

func TestDeleteLastMessageDeletesTopic(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Ephemeral", "only message", nil, "alice")
	require.NoError(t, err)

	require.NoError(t, forum.DeleteMessage(topic.Messages[0].ID, "alice"))

	_, err = forum.GetTopicByID(topic.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOneOfSeveralMessagesKeepsTopic(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Durable", "seed", nil, "alice")
	require.NoError(t, err)
	withReply, err := forum.AddMessage(topic.ID, "second", "alice")
	require.NoError(t, err)
	require.Len(t, withReply.Messages, 2)

	require.NoError(t, forum.DeleteMessage(withReply.Messages[1].ID, "alice"))

	got, err := forum.GetTopicByID(topic.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "seed", got.Messages[0].Text)
}

func TestDeleteMessageAuthorOnly(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")
	registerUser(t, users, "bob")

	topic, err := forum.CreateTopic("Chat", "seed", nil, "alice")
	require.NoError(t, err)

	err = forum.DeleteMessage(topic.Messages[0].ID, "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err := forum.GetTopicByID(topic.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestDeleteMessageNotFound(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	err := forum.DeleteMessage(uuid.New().String(), "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopicPagination(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	for i := 0; i < 7; i++ {
		_, err := forum.CreateTopic(fmt.Sprintf("Topic %d", i), "seed", nil, "alice")
		require.NoError(t, err)
	}

	page, err := forum.GetAllTopics(0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Content, DefaultTopicPageSize)
	assert.Equal(t, int64(7), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	rest, err := forum.GetAllTopics(1, 0)
	require.NoError(t, err)
	assert.Len(t, rest.Content, 2)

	// Repeated reads return the same ordering.
	again, err := forum.GetAllTopics(0, 0)
	require.NoError(t, err)
	for i := range page.Content {
		assert.Equal(t, page.Content[i].ID, again.Content[i].ID)
	}

	// Pages are disjoint.
	seen := map[string]bool{}
	for _, topic := range page.Content {
		seen[topic.ID] = true
	}
	for _, topic := range rest.Content {
		assert.False(t, seen[topic.ID], "topic %s appeared on both pages", topic.ID)
	}
}

func TestMessagePagination(t *testing.T) {
	forum, users, _ := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Busy", "message 0", nil, "alice")
	require.NoError(t, err)
	for i := 1; i < 12; i++ {
		_, err := forum.AddMessage(topic.ID, fmt.Sprintf("message %d", i), "alice")
		require.NoError(t, err)
	}

	page, err := forum.GetTopicMessages(topic.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Content, DefaultMessagePageSize)
	assert.Equal(t, int64(12), page.TotalElements)
	assert.Equal(t, "message 0", page.Content[0].Text)

	rest, err := forum.GetTopicMessages(topic.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, rest.Content, 2)
	assert.Equal(t, "message 10", rest.Content[0].Text)
	assert.Equal(t, "message 11", rest.Content[1].Text)

	small, err := forum.GetTopicMessages(topic.ID, 0, 3)
	require.NoError(t, err)
	assert.Len(t, small.Content, 3)
}

func TestGetTopicMessagesTopicNotFound(t *testing.T) {
	forum, _, _ := newTestServices(t)

	_, err := forum.GetTopicMessages(uuid.New().String(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForumActivityIsRecordedAsEvents(t *testing.T) {
	forum, users, events := newTestServices(t)
	registerUser(t, users, "alice")

	topic, err := forum.CreateTopic("Watched", "seed", nil, "alice")
	require.NoError(t, err)
	_, err = forum.AddMessage(topic.ID, "more", "alice")
	require.NoError(t, err)

	recent, err := events.GetRecentEvents(10)
	require.NoError(t, err)

	types := make([]string, 0, len(recent))
	for _, event := range recent {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, "topic.create")
	assert.Contains(t, types, "message.add")

	var seen models.Event
	for _, event := range recent {
		if event.Type == "topic.create" {
			seen = event
		}
	}
	require.NotNil(t, seen.TopicID)
	assert.Equal(t, topic.ID, *seen.TopicID)
}
