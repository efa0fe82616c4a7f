package model

import "time"

// Task is a single to-do item belonging to one list. An empty Name only
// exists transiently while the task is being edited.
type Task struct {
	ID        string    `json:"id" db:"id"`
	ListID    string    `json:"list_id" db:"list_id"`
	Name      string    `json:"name" db:"name"`
	Completed bool      `json:"completed" db:"completed"`
	Location  *GeoPoint `json:"location" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewTask holds the fields for creating a task.
type NewTask struct {
	ListID    string `json:"list_id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// TaskPatch is a partial update for a task. Nil fields are left unchanged;
// ClearLocation removes the location and wins over Location.
type TaskPatch struct {
	Name          *string   `json:"name,omitempty"`
	Completed     *bool     `json:"completed,omitempty"`
	Location      *GeoPoint `json:"location,omitempty"`
	ClearLocation bool      `json:"clear_location,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Completed == nil && p.Location == nil && !p.ClearLocation
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	switch {
	case p.ClearLocation:
		t.Location = nil
	case p.Location != nil:
		loc := *p.Location
		t.Location = &loc
	}
	return t
}

// Subtask is a checklist entry within a task.
// Its lifecycle is bound to the parent task (CASCADE delete).
type Subtask struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	Name      string    `json:"name" db:"name"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewSubtask holds the fields for creating a subtask.
type NewSubtask struct {
	TaskID string `json:"task_id"`
	Name   string `json:"name"`
}

// SubtaskPatch is a partial update for a subtask.
type SubtaskPatch struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SubtaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Completed == nil
}

// Apply returns a copy of s with the patch applied.
func (p SubtaskPatch) Apply(s Subtask) Subtask {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Completed != nil {
		s.Completed = *p.Completed
	}
	return s
}

// AllCompleted reports whether subtasks is non-empty and every entry is
// completed.
func AllCompleted(subtasks []Subtask) bool {
	if len(subtasks) == 0 {
		return false
	}
	for _, s := range subtasks {
		if !s.Completed {
			return false
		}
	}
	return true
}
