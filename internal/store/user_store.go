package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

// CreateUser inserts a user with an already-hashed password. Emails are
// stored lower-cased and must be unique.
func (s *SQLStore) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	const op = "create"
	email = normalizeEmail(email)
	if email == "" {
		return nil, gateway.Validation(gateway.EntityUser, op, "email must not be empty")
	}

	existing, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, gateway.Validation(gateway.EntityUser, op, "email %s is already registered", email)
	}

	u := model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = s.exec(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return nil, internal(gateway.EntityUser, op, err)
	}
	return &u, nil
}

// UserByEmail returns the user with the given email, or nil.
func (s *SQLStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.get(ctx, &u,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?",
		normalizeEmail(email),
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntityUser, "fetch", err)
	}
	return &u, nil
}

// UserByID returns the user with the given ID, or nil.
func (s *SQLStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.get(ctx, &u,
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntityUser, "fetch", err)
	}
	return &u, nil
}

// CreateSession issues a bearer token for userID valid for ttl.
func (s *SQLStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	now := time.Now().UTC()
	sess := model.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	_, err := s.exec(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return nil, internal(gateway.EntitySession, "create", err)
	}
	return &sess, nil
}

// SessionByToken returns the session for token, or nil when it is unknown.
// Expired sessions are returned as-is; callers check IsExpired.
func (s *SQLStore) SessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	err := s.get(ctx, &sess,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?", token,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntitySession, "fetch", err)
	}
	return &sess, nil
}

// DeleteSession revokes a token. Unknown tokens are ignored.
func (s *SQLStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.exec(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return internal(gateway.EntitySession, "delete", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
