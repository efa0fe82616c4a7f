// Package server is the reference HTTP backend for remote mode: JSON row
// CRUD for lists, tasks and subtasks behind bearer-token sessions.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nhle/geotask/internal/store"
)

// SessionTTL is how long an issued token stays valid.
const SessionTTL = 30 * 24 * time.Hour

// Server serves the row API.
type Server struct {
	store  *store.SQLStore
	echo   *echo.Echo
	logger *slog.Logger
}

// New creates a server backed by s.
func New(s *store.SQLStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{store: s, logger: logger}
	srv.setupEcho()
	return srv
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(s.requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")

	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/lists", s.handleFetchLists)
	protected.POST("/lists", s.handleCreateList)
	protected.GET("/lists/:id", s.handleFetchList)
	protected.PATCH("/lists/:id", s.handleUpdateList)
	protected.DELETE("/lists/:id", s.handleDeleteList)
	protected.GET("/lists/:id/tasks", s.handleFetchTasks)

	protected.POST("/tasks", s.handleCreateTask)
	protected.GET("/tasks/:id", s.handleFetchTask)
	protected.PATCH("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)
	protected.GET("/tasks/:id/subtasks", s.handleFetchSubtasks)

	protected.POST("/subtasks", s.handleCreateSubtask)
	protected.GET("/subtasks/:id", s.handleFetchSubtask)
	protected.PATCH("/subtasks/:id", s.handleUpdateSubtask)
	protected.DELETE("/subtasks/:id", s.handleDeleteSubtask)

	s.echo = e
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		s.logger.Info("http request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", res.Status,
			"size", res.Size,
			"duration", time.Since(start).String(),
		)
		return nil
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
