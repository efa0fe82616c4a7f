package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/session"
)

const userIDKey = "user_id"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// authMiddleware resolves the bearer token to a user ID.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "invalid authorization format")
		}

		sess, err := s.store.SessionByToken(c.Request().Context(), token)
		if err != nil {
			return s.writeError(c, err)
		}
		if sess == nil {
			return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "invalid token")
		}
		if sess.IsExpired() {
			return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "token expired")
		}

		c.Set(userIDKey, sess.UserID)
		c.Set("token", token)
		return next(c)
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, gateway.KindValidation, "invalid request")
	}
	if err := session.ValidateCredentials(req.Email, req.Password, true); err != nil {
		return s.writeError(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return s.writeError(c, err)
	}

	ctx := c.Request().Context()
	u, err := s.store.CreateUser(ctx, req.Email, string(hash))
	if err != nil {
		return s.writeError(c, err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return s.issueSession(c, u)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, gateway.KindValidation, "invalid request")
	}
	if err := session.ValidateCredentials(req.Email, req.Password, false); err != nil {
		return s.writeError(c, err)
	}

	ctx := c.Request().Context()
	u, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		return s.writeError(c, err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return s.issueSession(c, u)
}

func (s *Server) issueSession(c echo.Context, u *model.User) error {
	sess, err := s.store.CreateSession(c.Request().Context(), u.ID, SessionTTL)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, AuthResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      u,
	})
}

func (s *Server) handleMe(c echo.Context) error {
	u, err := s.store.UserByID(c.Request().Context(), currentUserID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if u == nil {
		return errorJSON(c, http.StatusUnauthorized, gateway.KindUnauthenticated, "user not found")
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	if err := s.store.DeleteSession(c.Request().Context(), token); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
