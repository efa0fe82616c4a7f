package geofence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nhle/geotask/internal/model"
)

// Simulator is an in-process Platform. It keeps the registered regions and
// converts location samples into Enter and Exit events.
type Simulator struct {
	mu            sync.Mutex
	regions       map[string]Region
	inside        map[string]bool
	denied        bool
	registrations int
	onEvent       func(context.Context, Event)
}

var _ Platform = (*Simulator)(nil)

// NewSimulator creates a simulator that calls onEvent for each transition.
// onEvent may be nil.
func NewSimulator(onEvent func(context.Context, Event)) *Simulator {
	return &Simulator{
		regions: make(map[string]Region),
		inside:  make(map[string]bool),
		onEvent: onEvent,
	}
}

// SetPermission grants or revokes region monitoring.
func (s *Simulator) SetPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied = !granted
}

// Registrations counts successful Register calls.
func (s *Simulator) Registrations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations
}

// Active returns the registered regions sorted by identifier.
func (s *Simulator) Active(context.Context) ([]Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Region, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

// Register starts monitoring regions, replacing any with the same
// identifier.
func (s *Simulator) Register(_ context.Context, regions []Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied {
		return ErrPermissionDenied
	}
	for _, r := range regions {
		if old, ok := s.regions[r.Identifier]; ok && !old.sameArea(r) {
			delete(s.inside, r.Identifier)
		}
		s.regions[r.Identifier] = r
	}
	s.registrations++
	return nil
}

// Unregister stops monitoring the given identifiers.
func (s *Simulator) Unregister(_ context.Context, identifiers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range identifiers {
		delete(s.regions, id)
		delete(s.inside, id)
	}
	return nil
}

// Observe feeds a location sample and emits an event for every region the
// sample entered or left. The events are also returned.
func (s *Simulator) Observe(ctx context.Context, p model.GeoPoint) []Event {
	s.mu.Lock()
	var events []Event
	now := time.Now()
	for id, r := range s.regions {
		in := r.Contains(p)
		switch {
		case in && !s.inside[id]:
			s.inside[id] = true
			events = append(events, Event{Type: Enter, Region: r, At: now})
		case !in && s.inside[id]:
			delete(s.inside, id)
			events = append(events, Event{Type: Exit, Region: r, At: now})
		}
	}
	onEvent := s.onEvent
	s.mu.Unlock()

	sort.Slice(events, func(i, j int) bool {
		return events[i].Region.Identifier < events[j].Region.Identifier
	})
	if onEvent != nil {
		for _, ev := range events {
			onEvent(ctx, ev)
		}
	}
	return events
}
