package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login exchanges credentials for a session token and persists it.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := session.ValidateCredentials(email, password, false); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "login", email, password)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*model.User, error) {
	if err := session.ValidateCredentials(email, password, true); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "register", email, password)
}

func (c *Client) authenticate(ctx context.Context, op, email, password string) (*model.User, error) {
	var resp authResponse
	err := c.do(ctx, request{gateway.EntityUser, op, http.MethodPost, "/" + op, credentials{email, password}}, &resp)
	if err != nil {
		return nil, err
	}
	if err := c.setToken(resp.Token); err != nil {
		return nil, gateway.E(gateway.KindInternal, gateway.EntitySession, op, err)
	}
	c.cacheUser(resp.User)
	c.logger.Info("signed in", "user_id", resp.User.ID, "expires_at", resp.ExpiresAt)
	return resp.User, nil
}

// Logout revokes the token on the server and forgets it locally. The local
// token is cleared even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	tok, err := c.currentToken()
	if err != nil {
		return gateway.E(gateway.KindInternal, gateway.EntitySession, "logout", err)
	}
	if tok == "" {
		return nil
	}

	remoteErr := c.do(ctx, request{gateway.EntitySession, "logout", http.MethodPost, "/logout", nil}, nil)
	if remoteErr != nil && !isUnauthorized(remoteErr) {
		c.logger.Warn("server logout failed", "error", remoteErr)
	}
	if err := c.setToken(""); err != nil {
		return gateway.E(gateway.KindInternal, gateway.EntitySession, "logout", err)
	}
	return nil
}

// CurrentUser asks the server who the stored token belongs to and caches the
// answer until the token changes. A rejected token is cleared and reported
// as signed out.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	tok, err := c.currentToken()
	if err != nil {
		return nil, gateway.E(gateway.KindInternal, gateway.EntitySession, "fetch", err)
	}
	if tok == "" {
		return nil, nil
	}
	if u := c.cachedUser(); u != nil {
		return u, nil
	}

	var u model.User
	err = c.do(ctx, request{gateway.EntityUser, "fetch", http.MethodGet, "/me", nil}, &u)
	if isUnauthorized(err) {
		c.logger.Info("stored session rejected, signing out")
		if clearErr := c.setToken(""); clearErr != nil {
			return nil, gateway.E(gateway.KindInternal, gateway.EntitySession, "fetch", clearErr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.cacheUser(&u)
	return &u, nil
}
