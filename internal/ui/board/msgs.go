package board

import "github.com/nhle/geotask/internal/editsession"

// SelectListMsg asks for a list to become the selection.
type SelectListMsg struct{ ID string }

// OpenTaskMsg asks for a task and its subtasks to be loaded.
type OpenTaskMsg struct{ ID string }

// StartEditMsg asks to begin editing target with its current name.
type StartEditMsg struct {
	Target editsession.Target
	Text   string
}

// CommitEditMsg asks to commit the open edit.
type CommitEditMsg struct{}

// ToggleMsg asks to flip the completed flag of a task or subtask.
type ToggleMsg struct{ Target editsession.Target }

// DeleteMsg asks to delete an entity.
type DeleteMsg struct{ Target editsession.Target }

// NewListMsg asks for the new list dialog.
type NewListMsg struct{}

// NewTaskMsg asks to create a blank task in a list.
type NewTaskMsg struct{ ListID string }

// NewSubtaskMsg carries the name typed for a new subtask.
type NewSubtaskMsg struct {
	TaskID string
	Name   string
}

// LocationMsg asks for the location dialog of a list.
type LocationMsg struct{ ListID string }
