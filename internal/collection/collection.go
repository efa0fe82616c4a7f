// Package collection holds the in-memory lists, tasks and subtasks the
// front-end renders from. Only the sync engine mutates it, and only with
// rows the backend has confirmed.
package collection

import (
	"sync"

	"github.com/nhle/geotask/internal/model"
)

// ChangeKind identifies what part of the collection changed.
type ChangeKind int

const (
	ChangeLists ChangeKind = iota
	ChangeSelection
	ChangeTasks
	ChangeSubtasks
	ChangeStatus
)

// Change describes a single mutation. ListsChanged is set whenever the set
// of lists or any list's fields changed, which is what geofencing watches.
type Change struct {
	Kind         ChangeKind
	ListID       string
	TaskID       string
	ListsChanged bool
}

// Key names a fetchable slice of the collection for loading and error
// tracking.
type Key string

// ListsKey is the key for the list slice.
const ListsKey Key = "lists"

// TasksKey is the key for the tasks of one list.
func TasksKey(listID string) Key { return Key("tasks/" + listID) }

// SubtasksKey is the key for the subtasks of one task.
func SubtasksKey(taskID string) Key { return Key("subtasks/" + taskID) }

// Store is the local collection. The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	lists    []model.List
	tasks    map[string][]model.Task
	subtasks map[string][]model.Subtask
	fetched  map[string]bool
	selected string
	loading  map[Key]bool
	errs     map[Key]error

	subMu sync.Mutex
	subs  []func(Change)
}

// New returns an empty collection.
func New() *Store {
	return &Store{
		tasks:    make(map[string][]model.Task),
		subtasks: make(map[string][]model.Subtask),
		fetched:  make(map[string]bool),
		loading:  make(map[Key]bool),
		errs:     make(map[Key]error),
	}
}

// Subscribe registers fn to be called after every change. Callbacks run on
// the mutating goroutine, outside the collection lock.
func (s *Store) Subscribe(fn func(Change)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) emit(changes ...Change) {
	s.subMu.Lock()
	subs := make([]func(Change), len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

// --- lists ---

// SetLists replaces every list. Tasks and subtasks of lists that are no
// longer present are dropped, and a selection pointing at a vanished list is
// cleared.
func (s *Store) SetLists(lists []model.List) {
	s.mu.Lock()
	s.lists = cloneLists(lists)

	present := make(map[string]bool, len(lists))
	for _, l := range lists {
		present[l.ID] = true
	}
	for listID := range s.tasks {
		if !present[listID] {
			s.dropTasksLocked(listID)
		}
	}

	changes := []Change{{Kind: ChangeLists, ListsChanged: true}}
	if s.selected != "" && !present[s.selected] {
		s.selected = ""
		changes = append(changes, Change{Kind: ChangeSelection})
	}
	s.mu.Unlock()

	s.emit(changes...)
}

// AppendList adds a confirmed list at the end.
func (s *Store) AppendList(l model.List) {
	s.mu.Lock()
	s.lists = append(s.lists, cloneList(l))
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeLists, ListID: l.ID, ListsChanged: true})
}

// ReplaceList swaps in an updated list. It reports false when the list is
// not in the collection.
func (s *Store) ReplaceList(l model.List) bool {
	s.mu.Lock()
	idx := s.listIndexLocked(l.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.lists[idx] = cloneList(l)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeLists, ListID: l.ID, ListsChanged: true})
	return true
}

// RemoveList drops a list with its tasks and subtasks. If it was selected,
// the list that followed it becomes selected, else the one before it, else
// nothing. It reports whether the list was present.
func (s *Store) RemoveList(id string) bool {
	s.mu.Lock()
	idx := s.listIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.lists = append(s.lists[:idx:idx], s.lists[idx+1:]...)
	s.dropTasksLocked(id)

	changes := []Change{{Kind: ChangeLists, ListID: id, ListsChanged: true}}
	if s.selected == id {
		s.selected = ""
		if len(s.lists) > 0 {
			next := idx
			if next >= len(s.lists) {
				next = len(s.lists) - 1
			}
			s.selected = s.lists[next].ID
		}
		changes = append(changes, Change{Kind: ChangeSelection, ListID: s.selected})
	}
	s.mu.Unlock()

	s.emit(changes...)
	return true
}

// Select marks a list as selected. An empty id clears the selection.
// Selecting an unknown list is ignored and reports false.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	if id != "" && s.listIndexLocked(id) < 0 {
		s.mu.Unlock()
		return false
	}
	changed := s.selected != id
	s.selected = id
	s.mu.Unlock()

	if changed {
		s.emit(Change{Kind: ChangeSelection, ListID: id})
	}
	return true
}

// Lists returns a copy of every list in order.
func (s *Store) Lists() []model.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLists(s.lists)
}

// List returns a copy of one list.
func (s *Store) List(id string) (model.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.listIndexLocked(id)
	if idx < 0 {
		return model.List{}, false
	}
	return cloneList(s.lists[idx]), true
}

// SelectedID returns the selected list ID, or "".
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectedList returns the selected list, if any.
func (s *Store) SelectedList() (model.List, bool) {
	return s.List(s.SelectedID())
}

// --- tasks ---

// SetTasks replaces the tasks of one list.
func (s *Store) SetTasks(listID string, tasks []model.Task) {
	s.mu.Lock()
	kept := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		kept[t.ID] = true
	}
	for _, old := range s.tasks[listID] {
		if !kept[old.ID] {
			delete(s.subtasks, old.ID)
			delete(s.fetched, old.ID)
		}
	}
	s.tasks[listID] = cloneTasks(tasks)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTasks, ListID: listID})
}

// ClearTasks drops the tasks (and their subtasks) of one list.
func (s *Store) ClearTasks(listID string) {
	s.mu.Lock()
	s.dropTasksLocked(listID)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTasks, ListID: listID})
}

// AppendTask adds a confirmed task to the end of its list.
func (s *Store) AppendTask(t model.Task) {
	s.mu.Lock()
	s.tasks[t.ListID] = append(s.tasks[t.ListID], cloneTask(t))
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTasks, ListID: t.ListID, TaskID: t.ID})
}

// PutTask replaces the task if present, otherwise appends it.
func (s *Store) PutTask(t model.Task) {
	if s.ReplaceTask(t) {
		return
	}
	s.AppendTask(t)
}

// ReplaceTask swaps in an updated task. It reports false when absent.
func (s *Store) ReplaceTask(t model.Task) bool {
	s.mu.Lock()
	tasks := s.tasks[t.ListID]
	idx := taskIndex(tasks, t.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	tasks[idx] = cloneTask(t)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTasks, ListID: t.ListID, TaskID: t.ID})
	return true
}

// RemoveTask drops a task and its subtasks. It reports whether it was
// present.
func (s *Store) RemoveTask(id string) bool {
	s.mu.Lock()
	listID, idx := s.findTaskLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	tasks := s.tasks[listID]
	s.tasks[listID] = append(tasks[:idx:idx], tasks[idx+1:]...)
	delete(s.subtasks, id)
	delete(s.fetched, id)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeTasks, ListID: listID, TaskID: id})
	return true
}

// Tasks returns a copy of the tasks of one list.
func (s *Store) Tasks(listID string) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks[listID])
}

// Task returns a copy of a task from any list.
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listID, idx := s.findTaskLocked(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return cloneTask(s.tasks[listID][idx]), true
}

// --- subtasks ---

// SetSubtasks replaces the subtasks of one task.
func (s *Store) SetSubtasks(taskID string, subtasks []model.Subtask) {
	s.mu.Lock()
	s.subtasks[taskID] = cloneSubtasks(subtasks)
	s.fetched[taskID] = true
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSubtasks, TaskID: taskID})
}

// ClearSubtasks drops the subtasks of one task.
func (s *Store) ClearSubtasks(taskID string) {
	s.mu.Lock()
	delete(s.subtasks, taskID)
	delete(s.fetched, taskID)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSubtasks, TaskID: taskID})
}

// AppendSubtask adds a confirmed subtask to the end of its task.
func (s *Store) AppendSubtask(st model.Subtask) {
	s.mu.Lock()
	s.subtasks[st.TaskID] = append(s.subtasks[st.TaskID], st)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSubtasks, TaskID: st.TaskID})
}

// ReplaceSubtask swaps in an updated subtask. It reports false when absent.
func (s *Store) ReplaceSubtask(st model.Subtask) bool {
	s.mu.Lock()
	subs := s.subtasks[st.TaskID]
	idx := subtaskIndex(subs, st.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	subs[idx] = st
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSubtasks, TaskID: st.TaskID})
	return true
}

// RemoveSubtask drops a subtask. It reports whether it was present.
func (s *Store) RemoveSubtask(id string) bool {
	s.mu.Lock()
	taskID, idx := s.findSubtaskLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	subs := s.subtasks[taskID]
	s.subtasks[taskID] = append(subs[:idx:idx], subs[idx+1:]...)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSubtasks, TaskID: taskID})
	return true
}

// Subtasks returns a copy of the subtasks of one task.
func (s *Store) Subtasks(taskID string) []model.Subtask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSubtasks(s.subtasks[taskID])
}

// SubtasksLoaded reports whether the full subtask set of a task has been
// stored with SetSubtasks since it was last dropped.
func (s *Store) SubtasksLoaded(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetched[taskID]
}

// Subtask returns a copy of a subtask from any task.
func (s *Store) Subtask(id string) (model.Subtask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taskID, idx := s.findSubtaskLocked(id)
	if idx < 0 {
		return model.Subtask{}, false
	}
	return s.subtasks[taskID][idx], true
}

// --- fetch status ---

// SetLoading marks a slice as loading or settled.
func (s *Store) SetLoading(key Key, loading bool) {
	s.mu.Lock()
	if loading {
		s.loading[key] = true
	} else {
		delete(s.loading, key)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeStatus})
}

// Loading reports whether a fetch for key is in flight.
func (s *Store) Loading(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[key]
}

// SetFetchError records the last fetch failure for key; nil clears it.
func (s *Store) SetFetchError(key Key, err error) {
	s.mu.Lock()
	if err != nil {
		s.errs[key] = err
	} else {
		delete(s.errs, key)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeStatus})
}

// FetchError returns the last fetch failure for key, if any.
func (s *Store) FetchError(key Key) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[key]
}

// --- helpers (callers hold s.mu) ---

func (s *Store) listIndexLocked(id string) int {
	for i, l := range s.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findTaskLocked(id string) (string, int) {
	for listID, tasks := range s.tasks {
		if idx := taskIndex(tasks, id); idx >= 0 {
			return listID, idx
		}
	}
	return "", -1
}

func (s *Store) findSubtaskLocked(id string) (string, int) {
	for taskID, subs := range s.subtasks {
		if idx := subtaskIndex(subs, id); idx >= 0 {
			return taskID, idx
		}
	}
	return "", -1
}

func (s *Store) dropTasksLocked(listID string) {
	for _, t := range s.tasks[listID] {
		delete(s.subtasks, t.ID)
		delete(s.fetched, t.ID)
	}
	delete(s.tasks, listID)
}

func taskIndex(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func subtaskIndex(subs []model.Subtask, id string) int {
	for i, st := range subs {
		if st.ID == id {
			return i
		}
	}
	return -1
}
