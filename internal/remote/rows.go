package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

func (c *Client) CreateList(ctx context.Context, in model.NewList) (*model.List, error) {
	var l model.List
	err := c.do(ctx, request{gateway.EntityList, "create", http.MethodPost, "/lists", in}, &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FetchLists returns the lists of the signed-in user. The server derives
// the owner from the token; ownerID is accepted for interface parity.
func (c *Client) FetchLists(ctx context.Context, ownerID string) ([]model.List, error) {
	var lists []model.List
	err := c.do(ctx, request{gateway.EntityList, "fetch", http.MethodGet, "/lists", nil}, &lists)
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) FetchList(ctx context.Context, id string) (*model.List, error) {
	var l model.List
	found, err := c.fetchOne(ctx, gateway.EntityList, "/lists/"+url.PathEscape(id), &l)
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

func (c *Client) UpdateList(ctx context.Context, id string, patch model.ListPatch) (*model.List, error) {
	var l model.List
	err := c.do(ctx, request{gateway.EntityList, "update", http.MethodPatch, "/lists/" + url.PathEscape(id), patch}, &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) DeleteList(ctx context.Context, id string) error {
	return c.do(ctx, request{gateway.EntityList, "delete", http.MethodDelete, "/lists/" + url.PathEscape(id), nil}, nil)
}

func (c *Client) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	var t model.Task
	err := c.do(ctx, request{gateway.EntityTask, "create", http.MethodPost, "/tasks", in}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) FetchTasks(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	path := "/lists/" + url.PathEscape(listID) + "/tasks"
	err := c.do(ctx, request{gateway.EntityTask, "fetch", http.MethodGet, path, nil}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) FetchTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	found, err := c.fetchOne(ctx, gateway.EntityTask, "/tasks/"+url.PathEscape(id), &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var t model.Task
	err := c.do(ctx, request{gateway.EntityTask, "update", http.MethodPatch, "/tasks/" + url.PathEscape(id), patch}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{gateway.EntityTask, "delete", http.MethodDelete, "/tasks/" + url.PathEscape(id), nil}, nil)
}

func (c *Client) CreateSubtask(ctx context.Context, in model.NewSubtask) (*model.Subtask, error) {
	var st model.Subtask
	err := c.do(ctx, request{gateway.EntitySubtask, "create", http.MethodPost, "/subtasks", in}, &st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) FetchSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	subtasks := []model.Subtask{}
	path := "/tasks/" + url.PathEscape(taskID) + "/subtasks"
	err := c.do(ctx, request{gateway.EntitySubtask, "fetch", http.MethodGet, path, nil}, &subtasks)
	if err != nil {
		return nil, err
	}
	return subtasks, nil
}

func (c *Client) FetchSubtask(ctx context.Context, id string) (*model.Subtask, error) {
	var st model.Subtask
	found, err := c.fetchOne(ctx, gateway.EntitySubtask, "/subtasks/"+url.PathEscape(id), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (c *Client) UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error) {
	var st model.Subtask
	err := c.do(ctx, request{gateway.EntitySubtask, "update", http.MethodPatch, "/subtasks/" + url.PathEscape(id), patch}, &st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) DeleteSubtask(ctx context.Context, id string) error {
	return c.do(ctx, request{gateway.EntitySubtask, "delete", http.MethodDelete, "/subtasks/" + url.PathEscape(id), nil}, nil)
}
