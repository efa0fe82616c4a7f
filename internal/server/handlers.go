package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

type ownerFunc func(ctx context.Context, id string) (string, error)

// authorize checks that the row identified by id belongs to the caller.
func (s *Server) authorize(c echo.Context, owner ownerFunc, entity, op, id string) error {
	got, err := owner(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if got == "" {
		return gateway.NotFound(entity, op, id)
	}
	if got != currentUserID(c) {
		return gateway.E(gateway.KindPermissionDenied, entity, op,
			fmt.Errorf("%s %s belongs to another user", entity, id))
	}
	return nil
}

func bindBody(c echo.Context, entity, op string, dest any) error {
	if err := c.Bind(dest); err != nil {
		return gateway.Validation(entity, op, "invalid request body")
	}
	return nil
}

// Lists

func (s *Server) handleFetchLists(c echo.Context) error {
	lists, err := s.store.FetchLists(c.Request().Context(), currentUserID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, lists)
}

func (s *Server) handleCreateList(c echo.Context) error {
	var in model.NewList
	if err := bindBody(c, gateway.EntityList, "create", &in); err != nil {
		return s.writeError(c, err)
	}
	uid := currentUserID(c)
	if in.OwnerID == "" {
		in.OwnerID = uid
	}
	if in.OwnerID != uid {
		return s.writeError(c, gateway.E(gateway.KindPermissionDenied, gateway.EntityList, "create",
			fmt.Errorf("cannot create a list for another user")))
	}

	l, err := s.store.CreateList(c.Request().Context(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) handleFetchList(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.ListOwner, gateway.EntityList, "fetch", id); err != nil {
		return s.writeError(c, err)
	}
	l, err := s.store.FetchList(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	if l == nil {
		return s.writeError(c, gateway.NotFound(gateway.EntityList, "fetch", id))
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) handleUpdateList(c echo.Context) error {
	id := c.Param("id")
	var patch model.ListPatch
	if err := bindBody(c, gateway.EntityList, "update", &patch); err != nil {
		return s.writeError(c, err)
	}
	if err := s.authorize(c, s.store.ListOwner, gateway.EntityList, "update", id); err != nil {
		return s.writeError(c, err)
	}
	l, err := s.store.UpdateList(c.Request().Context(), id, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) handleDeleteList(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.ListOwner, gateway.EntityList, "delete", id); err != nil {
		return s.writeError(c, err)
	}
	if err := s.store.DeleteList(c.Request().Context(), id); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Tasks

func (s *Server) handleFetchTasks(c echo.Context) error {
	listID := c.Param("id")
	if err := s.authorize(c, s.store.ListOwner, gateway.EntityList, "fetch", listID); err != nil {
		return s.writeError(c, err)
	}
	tasks, err := s.store.FetchTasks(c.Request().Context(), listID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var in model.NewTask
	if err := bindBody(c, gateway.EntityTask, "create", &in); err != nil {
		return s.writeError(c, err)
	}
	if err := s.authorize(c, s.store.ListOwner, gateway.EntityList, "create", in.ListID); err != nil {
		return s.writeError(c, err)
	}
	t, err := s.store.CreateTask(c.Request().Context(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleFetchTask(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.TaskOwner, gateway.EntityTask, "fetch", id); err != nil {
		return s.writeError(c, err)
	}
	t, err := s.store.FetchTask(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	if t == nil {
		return s.writeError(c, gateway.NotFound(gateway.EntityTask, "fetch", id))
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	id := c.Param("id")
	var patch model.TaskPatch
	if err := bindBody(c, gateway.EntityTask, "update", &patch); err != nil {
		return s.writeError(c, err)
	}
	if err := s.authorize(c, s.store.TaskOwner, gateway.EntityTask, "update", id); err != nil {
		return s.writeError(c, err)
	}
	t, err := s.store.UpdateTask(c.Request().Context(), id, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.TaskOwner, gateway.EntityTask, "delete", id); err != nil {
		return s.writeError(c, err)
	}
	if err := s.store.DeleteTask(c.Request().Context(), id); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Subtasks

func (s *Server) handleFetchSubtasks(c echo.Context) error {
	taskID := c.Param("id")
	if err := s.authorize(c, s.store.TaskOwner, gateway.EntityTask, "fetch", taskID); err != nil {
		return s.writeError(c, err)
	}
	subtasks, err := s.store.FetchSubtasks(c.Request().Context(), taskID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, subtasks)
}

func (s *Server) handleCreateSubtask(c echo.Context) error {
	var in model.NewSubtask
	if err := bindBody(c, gateway.EntitySubtask, "create", &in); err != nil {
		return s.writeError(c, err)
	}
	if err := s.authorize(c, s.store.TaskOwner, gateway.EntityTask, "create", in.TaskID); err != nil {
		return s.writeError(c, err)
	}
	st, err := s.store.CreateSubtask(c.Request().Context(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (s *Server) handleFetchSubtask(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.SubtaskOwner, gateway.EntitySubtask, "fetch", id); err != nil {
		return s.writeError(c, err)
	}
	st, err := s.store.FetchSubtask(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	if st == nil {
		return s.writeError(c, gateway.NotFound(gateway.EntitySubtask, "fetch", id))
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleUpdateSubtask(c echo.Context) error {
	id := c.Param("id")
	var patch model.SubtaskPatch
	if err := bindBody(c, gateway.EntitySubtask, "update", &patch); err != nil {
		return s.writeError(c, err)
	}
	if err := s.authorize(c, s.store.SubtaskOwner, gateway.EntitySubtask, "update", id); err != nil {
		return s.writeError(c, err)
	}
	st, err := s.store.UpdateSubtask(c.Request().Context(), id, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleDeleteSubtask(c echo.Context) error {
	id := c.Param("id")
	if err := s.authorize(c, s.store.SubtaskOwner, gateway.EntitySubtask, "delete", id); err != nil {
		return s.writeError(c, err)
	}
	if err := s.store.DeleteSubtask(c.Request().Context(), id); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
