package collection

import "github.com/nhle/geotask/internal/model"

// Snapshot is a deep copy of the entity state, safe to hold across
// mutations and to compare with reflect.DeepEqual.
type Snapshot struct {
	Lists          []model.List
	Tasks          map[string][]model.Task
	Subtasks       map[string][]model.Subtask
	SelectedListID string
}

// Snapshot copies the current entity state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Lists:          cloneLists(s.lists),
		Tasks:          make(map[string][]model.Task, len(s.tasks)),
		Subtasks:       make(map[string][]model.Subtask, len(s.subtasks)),
		SelectedListID: s.selected,
	}
	for k, v := range s.tasks {
		snap.Tasks[k] = cloneTasks(v)
	}
	for k, v := range s.subtasks {
		snap.Subtasks[k] = cloneSubtasks(v)
	}
	return snap
}

func cloneList(l model.List) model.List {
	if l.Location != nil {
		loc := *l.Location
		l.Location = &loc
	}
	return l
}

func cloneLists(in []model.List) []model.List {
	if in == nil {
		return nil
	}
	out := make([]model.List, len(in))
	for i, l := range in {
		out[i] = cloneList(l)
	}
	return out
}

func cloneTask(t model.Task) model.Task {
	if t.Location != nil {
		loc := *t.Location
		t.Location = &loc
	}
	return t
}

func cloneTasks(in []model.Task) []model.Task {
	if in == nil {
		return nil
	}
	out := make([]model.Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneSubtasks(in []model.Subtask) []model.Subtask {
	if in == nil {
		return nil
	}
	out := make([]model.Subtask, len(in))
	copy(out, in)
	return out
}
