package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

const subtaskColumns = "id, task_id, name, completed, created_at"

// CreateSubtask inserts a subtask under an existing task. Blank names are
// rejected.
func (s *SQLStore) CreateSubtask(ctx context.Context, in model.NewSubtask) (*model.Subtask, error) {
	const op = "create"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, gateway.Validation(gateway.EntitySubtask, op, "subtask name must not be empty")
	}

	parent, err := s.FetchTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, gateway.NotFound(gateway.EntityTask, op, in.TaskID)
	}

	id := uuid.New().String()
	_, err = s.exec(ctx, `
		INSERT INTO subtasks (id, task_id, name, completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, in.TaskID, name, 0, time.Now().UTC(),
	)
	if err != nil {
		return nil, internal(gateway.EntitySubtask, op, err)
	}
	return s.mustFetchSubtask(ctx, id, op)
}

// FetchSubtasks returns the subtasks of a task in creation order.
func (s *SQLStore) FetchSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	subtasks := []model.Subtask{}
	err := s.sel(ctx, &subtasks,
		"SELECT "+subtaskColumns+" FROM subtasks WHERE task_id = ? ORDER BY created_at, id",
		taskID,
	)
	if err != nil {
		return nil, internal(gateway.EntitySubtask, "fetch", err)
	}
	return subtasks, nil
}

// FetchSubtask retrieves a single subtask by ID, or nil if it does not exist.
func (s *SQLStore) FetchSubtask(ctx context.Context, id string) (*model.Subtask, error) {
	var st model.Subtask
	err := s.get(ctx, &st, "SELECT "+subtaskColumns+" FROM subtasks WHERE id = ?", id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntitySubtask, "fetch", err)
	}
	return &st, nil
}

// UpdateSubtask applies patch to the subtask and returns the updated row.
func (s *SQLStore) UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error) {
	const op = "update"
	current, err := s.FetchSubtask(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, gateway.NotFound(gateway.EntitySubtask, op, id)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, gateway.Validation(gateway.EntitySubtask, op, "subtask name must not be empty")
	}

	next := patch.Apply(*current)
	res, err := s.exec(ctx,
		"UPDATE subtasks SET name = ?, completed = ? WHERE id = ?",
		strings.TrimSpace(next.Name), boolToInt(next.Completed), id,
	)
	if err != nil {
		return nil, internal(gateway.EntitySubtask, op, err)
	}
	if err := mustAffect(res, gateway.EntitySubtask, op, id); err != nil {
		return nil, err
	}
	return s.mustFetchSubtask(ctx, id, op)
}

// DeleteSubtask removes a subtask by ID.
func (s *SQLStore) DeleteSubtask(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return internal(gateway.EntitySubtask, "delete", err)
	}
	return mustAffect(res, gateway.EntitySubtask, "delete", id)
}

// SubtaskOwner returns the owner of the list that ultimately holds the
// subtask, or "" when the subtask does not exist.
func (s *SQLStore) SubtaskOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.get(ctx, &owner, `
		SELECT l.owner_id FROM subtasks st
		JOIN tasks t ON t.id = st.task_id
		JOIN lists l ON l.id = t.list_id
		WHERE st.id = ?`, id)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", internal(gateway.EntitySubtask, "fetch", err)
	}
	return owner, nil
}

func (s *SQLStore) mustFetchSubtask(ctx context.Context, id, op string) (*model.Subtask, error) {
	st, err := s.FetchSubtask(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, gateway.NotFound(gateway.EntitySubtask, op, id)
	}
	return st, nil
}
