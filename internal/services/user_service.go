package services

import (
	"database/sql"
	"fmt"

	"github.com/isdelr/forum-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, password string) (models.User, error)
	Authenticate(username, password string) (models.User, error)
	GetByUsername(username string) (models.User, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new account, hashing the password. A taken username
// fails with ErrAlreadyExists; the check and the insert share a transaction
// so the unique constraint never leaks as a raw store error.
func (s *UserService) Register(username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("username and password must be provided: %w", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow("SELECT COUNT(1) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, fmt.Errorf("username %q is taken: %w", username, ErrAlreadyExists)
	}

	res, err := tx.Exec("INSERT INTO users(username, password_hash) VALUES(?, ?)", username, string(hashedPassword))
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	return s.getByID(id)
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return models.User{}, fmt.Errorf("unknown user %q: %w", username, ErrBadCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("wrong password for %q: %w", username, ErrBadCredentials)
	}

	return user, nil
}

// GetByUsername retrieves a single user by username, including the password hash.
func (s *UserService) GetByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) getByID(id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}
