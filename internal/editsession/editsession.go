// Package editsession tracks the single entity whose name is being edited
// inline. Edits always commit: blank text goes to the committer's delete
// path, anything else renames it. There is no discard path.
package editsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Kind is the entity type under edit.
type Kind int

const (
	KindList Kind = iota
	KindTask
	KindSubtask
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindTask:
		return "task"
	case KindSubtask:
		return "subtask"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target identifies the entity being edited.
type Target struct {
	Kind Kind
	ID   string
}

// IsZero reports whether t names no entity.
func (t Target) IsZero() bool { return t.ID == "" }

// State is an observation of the session. Editing is false in Idle, in which
// case Target is zero and Text is empty.
type State struct {
	Editing bool
	Target  Target
	Text    string
}

// Committer applies a finished edit. The sync engine implements it.
// CommitDelete may refuse, as it does for lists, leaving the edit open.
type Committer interface {
	CommitRename(ctx context.Context, target Target, name string) error
	CommitDelete(ctx context.Context, target Target) error
}

// Session is the edit state machine. It is safe for concurrent use; commits
// are serialized.
type Session struct {
	committer Committer

	commitMu sync.Mutex

	mu    sync.Mutex
	state State
}

// New creates an idle session that commits through c.
func New(c Committer) *Session {
	return &Session{committer: c}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsEditing reports whether target is the entity under edit.
func (s *Session) IsEditing(target Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Editing && s.state.Target == target
}

// CanCreate reports whether a new sibling entity may be created. Creation is
// blocked while an edit is open so two blank entities never coexist.
func (s *Session) CanCreate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.Editing
}

// Start begins editing target with initialText. An open edit on a different
// entity is committed first; if that commit fails the session stays on the
// old entity and the error is returned. Starting the entity already under
// edit keeps its pending text.
func (s *Session) Start(ctx context.Context, target Target, initialText string) error {
	if target.IsZero() {
		return fmt.Errorf("starting edit: empty target")
	}

	cur := s.State()
	if cur.Editing {
		if cur.Target == target {
			return nil
		}
		if err := s.Commit(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.state = State{Editing: true, Target: target, Text: initialText}
	s.mu.Unlock()
	return nil
}

// SetText records a keystroke. It is ignored while idle.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Editing {
		s.state.Text = text
	}
}

// Commit finishes the open edit. Trimmed-empty text calls CommitDelete;
// otherwise it is renamed to the trimmed text. On success the session goes
// idle. On failure it stays in Editing so the user can retry. Committing
// while idle does nothing.
func (s *Session) Commit(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	cur := s.State()
	if !cur.Editing {
		return nil
	}

	name := strings.TrimSpace(cur.Text)
	var err error
	if name == "" {
		err = s.committer.CommitDelete(ctx, cur.Target)
	} else {
		err = s.committer.CommitRename(ctx, cur.Target, name)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.Editing && s.state.Target == cur.Target {
		s.state = State{}
	}
	s.mu.Unlock()
	return nil
}

// Clear drops the open edit without committing. The sync engine uses it
// when the edited entity no longer exists.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

// ClearTarget drops the open edit only if it is on target.
func (s *Session) ClearTarget(target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Target == target {
		s.state = State{}
	}
}
