package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

// ErrInvalidCredentials is returned when the email or password do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the subset of the SQL store the local provider needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
}

// Local authenticates against users stored in the embedded database and
// remembers the signed-in user ID in a TokenStore.
type Local struct {
	users  UserStore
	tokens TokenStore
	logger *slog.Logger
}

var _ Provider = (*Local)(nil)

// NewLocal creates a Local provider.
func NewLocal(users UserStore, tokens TokenStore, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{users: users, tokens: tokens, logger: logger}
}

// Register creates an account and signs it in.
func (l *Local) Register(ctx context.Context, email, password string) (*model.User, error) {
	if err := ValidateCredentials(email, password, true); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := l.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}
	if err := l.tokens.Save(u.ID); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	l.logger.Info("registered user", "user_id", u.ID)
	return u, nil
}

// Login verifies the password and signs the user in.
func (l *Local) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := ValidateCredentials(email, password, false); err != nil {
		return nil, err
	}

	u, err := l.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, gateway.E(gateway.KindUnauthenticated, gateway.EntityUser, "login", ErrInvalidCredentials)
	}

	if err := l.tokens.Save(u.ID); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	l.logger.Info("signed in", "user_id", u.ID)
	return u, nil
}

// Logout forgets the signed-in user.
func (l *Local) Logout(ctx context.Context) error {
	if err := l.tokens.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// CurrentUser resolves the stored user ID. A stale ID (the user no longer
// exists) is cleared and reported as signed out.
func (l *Local) CurrentUser(ctx context.Context) (*model.User, error) {
	id, err := l.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if id == "" {
		return nil, nil
	}

	u, err := l.users.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		l.logger.Warn("stored session refers to a missing user", "user_id", id)
		if err := l.tokens.Clear(); err != nil {
			return nil, fmt.Errorf("clearing session: %w", err)
		}
		return nil, nil
	}
	return u, nil
}
