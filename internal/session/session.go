// Package session resolves the signed-in user that owns lists.
package session

import (
	"context"
	"strings"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// Provider supplies the current user identity.
type Provider interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error

	// CurrentUser returns the signed-in user, or nil when signed out.
	CurrentUser(ctx context.Context) (*model.User, error)
}

// TokenStore persists the opaque token identifying the signed-in user.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// ValidateCredentials checks the email and password shape before any backend
// call is made. Register additionally enforces MinPasswordLength.
func ValidateCredentials(email, password string, registering bool) error {
	op := "login"
	if registering {
		op = "register"
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return gateway.Validation(gateway.EntityUser, op, "email must not be empty")
	}
	if !strings.Contains(email, "@") {
		return gateway.Validation(gateway.EntityUser, op, "email %q is not valid", email)
	}
	if password == "" {
		return gateway.Validation(gateway.EntityUser, op, "password must not be empty")
	}
	if registering && len(password) < MinPasswordLength {
		return gateway.Validation(gateway.EntityUser, op, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// RequireUser returns the current user's ID or an unauthenticated error.
func RequireUser(ctx context.Context, p Provider) (string, error) {
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", gateway.ErrUnauthenticated
	}
	return u.ID, nil
}
