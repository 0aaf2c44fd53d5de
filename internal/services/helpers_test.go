package services

import (
	"database/sql"
	"testing"

	"github.com/isdelr/forum-be/internal/database"
	"github.com/isdelr/forum-be/internal/models"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory sqlite database with the full schema applied.
// A single connection keeps the in-memory database alive for the whole test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestServices wires a forum service with a real event service (no hub)
// over a fresh database.
func newTestServices(t *testing.T) (*ForumService, *UserService, *EventService) {
	t.Helper()

	db := newTestDB(t)
	eventSvc := NewEventService(db, nil)
	return NewForumService(db, eventSvc), NewUserService(db), eventSvc
}

func registerUser(t *testing.T, users *UserService, username string) models.User {
	t.Helper()

	user, err := users.Register(username, "secret-"+username)
	require.NoError(t, err)
	return user
}
