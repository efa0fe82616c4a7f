// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreateList inserts a list owned by ownerID or fails the test.
func MustCreateList(t *testing.T, s *store.SQLStore, ownerID, name string) *model.List {
	t.Helper()

	l, err := s.CreateList(context.Background(), model.NewList{Name: name, OwnerID: ownerID})
	if err != nil {
		t.Fatalf("creating list %q: %v", name, err)
	}
	return l
}

// MustCreateTask inserts a task into listID or fails the test.
func MustCreateTask(t *testing.T, s *store.SQLStore, listID, name string) *model.Task {
	t.Helper()

	task, err := s.CreateTask(context.Background(), model.NewTask{ListID: listID, Name: name})
	if err != nil {
		t.Fatalf("creating task %q: %v", name, err)
	}
	return task
}

// MustCreateSubtask inserts a subtask under taskID or fails the test.
func MustCreateSubtask(t *testing.T, s *store.SQLStore, taskID, name string) *model.Subtask {
	t.Helper()

	st, err := s.CreateSubtask(context.Background(), model.NewSubtask{TaskID: taskID, Name: name})
	if err != nil {
		t.Fatalf("creating subtask %q: %v", name, err)
	}
	return st
}
