package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

const taskColumns = `id, list_id, name, completed,
	location_latitude, location_longitude,
	created_at, updated_at`

type taskRow struct {
	ID        string          `db:"id"`
	ListID    string          `db:"list_id"`
	Name      string          `db:"name"`
	Completed bool            `db:"completed"`
	Lat       sql.NullFloat64 `db:"location_latitude"`
	Lon       sql.NullFloat64 `db:"location_longitude"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r taskRow) toModel() model.Task {
	t := model.Task{
		ID:        r.ID,
		ListID:    r.ListID,
		Name:      r.Name,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Lat.Valid && r.Lon.Valid {
		t.Location = &model.GeoPoint{Latitude: r.Lat.Float64, Longitude: r.Lon.Float64}
	}
	return t
}

// CreateTask inserts a task into an existing list. An empty name is allowed:
// new tasks start blank and are named through an edit.
func (s *SQLStore) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	const op = "create"
	owner, err := s.ListOwner(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, gateway.NotFound(gateway.EntityList, op, in.ListID)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.exec(ctx, `
		INSERT INTO tasks (id, list_id, name, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.ListID, strings.TrimSpace(in.Name), boolToInt(in.Completed), now, now,
	)
	if err != nil {
		return nil, internal(gateway.EntityTask, op, err)
	}
	return s.mustFetchTask(ctx, id, op)
}

// FetchTasks returns the tasks of a list in creation order.
func (s *SQLStore) FetchTasks(ctx context.Context, listID string) ([]model.Task, error) {
	var rows []taskRow
	err := s.sel(ctx, &rows,
		"SELECT "+taskColumns+" FROM tasks WHERE list_id = ? ORDER BY created_at, id",
		listID,
	)
	if err != nil {
		return nil, internal(gateway.EntityTask, "fetch", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// FetchTask retrieves a single task by ID, or nil if it does not exist.
func (s *SQLStore) FetchTask(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.get(ctx, &row, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntityTask, "fetch", err)
	}
	t := row.toModel()
	return &t, nil
}

// UpdateTask applies patch to the task and returns the updated row.
func (s *SQLStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	const op = "update"
	current, err := s.FetchTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, gateway.NotFound(gateway.EntityTask, op, id)
	}
	if patch.Location != nil && !patch.ClearLocation {
		if err := patch.Location.Validate(); err != nil {
			return nil, gateway.E(gateway.KindValidation, gateway.EntityTask, op, err)
		}
	}

	next := patch.Apply(*current)
	var loc model.GeoPoint
	if next.Location != nil {
		loc = *next.Location
	}
	has := next.Location != nil

	res, err := s.exec(ctx, `
		UPDATE tasks SET
			name = ?, completed = ?,
			location_latitude = ?, location_longitude = ?,
			updated_at = ?
		WHERE id = ?`,
		strings.TrimSpace(next.Name), boolToInt(next.Completed),
		nullFloat(loc.Latitude, has), nullFloat(loc.Longitude, has),
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, internal(gateway.EntityTask, op, err)
	}
	if err := mustAffect(res, gateway.EntityTask, op, id); err != nil {
		return nil, err
	}
	return s.mustFetchTask(ctx, id, op)
}

// DeleteTask removes a task. Its subtasks are removed by cascade.
func (s *SQLStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return internal(gateway.EntityTask, "delete", err)
	}
	return mustAffect(res, gateway.EntityTask, "delete", id)
}

// TaskOwner returns the owner of the list holding the task, or "" when the
// task does not exist.
func (s *SQLStore) TaskOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.get(ctx, &owner, `
		SELECT l.owner_id FROM tasks t
		JOIN lists l ON l.id = t.list_id
		WHERE t.id = ?`, id)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", internal(gateway.EntityTask, "fetch", err)
	}
	return owner, nil
}

func (s *SQLStore) mustFetchTask(ctx context.Context, id, op string) (*model.Task, error) {
	t, err := s.FetchTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, gateway.NotFound(gateway.EntityTask, op, id)
	}
	return t, nil
}
