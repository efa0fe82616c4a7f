// Package gateway defines the row-level CRUD contract the sync engine uses to
// reach durable storage, and the error taxonomy every implementation reports
// through.
package gateway

import (
	"context"

	"github.com/nhle/geotask/internal/model"
)

// Lists is the persistence contract for lists.
type Lists interface {
	// CreateList inserts a list and returns the stored row with its
	// generated ID.
	CreateList(ctx context.Context, in model.NewList) (*model.List, error)

	// FetchLists returns every list owned by ownerID in creation order.
	FetchLists(ctx context.Context, ownerID string) ([]model.List, error)

	// FetchList returns the list with the given ID, or nil if it does not
	// exist.
	FetchList(ctx context.Context, id string) (*model.List, error)

	// UpdateList applies patch and returns the updated row.
	UpdateList(ctx context.Context, id string, patch model.ListPatch) (*model.List, error)

	// DeleteList removes a list and, through referential rules, its tasks.
	DeleteList(ctx context.Context, id string) error
}

// Tasks is the persistence contract for tasks.
type Tasks interface {
	CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error)
	FetchTasks(ctx context.Context, listID string) ([]model.Task, error)
	FetchTask(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Subtasks is the persistence contract for subtasks.
type Subtasks interface {
	CreateSubtask(ctx context.Context, in model.NewSubtask) (*model.Subtask, error)
	FetchSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error)
	FetchSubtask(ctx context.Context, id string) (*model.Subtask, error)
	UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error)
	DeleteSubtask(ctx context.Context, id string) error
}

// Gateway bundles the three entity contracts.
type Gateway interface {
	Lists
	Tasks
	Subtasks
}
