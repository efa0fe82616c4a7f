package geofence

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/model"
)

// Engine reconciles the platform's monitored regions with the located lists.
type Engine struct {
	platform Platform
	radius   float64
	strategy Strategy
	mode     IdentifierMode
	logger   *slog.Logger

	mu      sync.Mutex
	pending bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRadius overrides DefaultRadiusMeters.
func WithRadius(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.radius = meters
		}
	}
}

// WithStrategy selects full or diff re-registration.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithIdentifierMode selects name or id identifiers.
func WithIdentifierMode(m IdentifierMode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine driving platform. Defaults: 200 m radius,
// full re-registration, identifiers from list names.
func NewEngine(platform Platform, opts ...Option) *Engine {
	e := &Engine{
		platform: platform,
		radius:   DefaultRadiusMeters,
		strategy: StrategyFull,
		mode:     IdentifyByName,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pending reports whether the last sync failed for lack of permission and
// is waiting for the next change to retry.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Sync makes the platform monitor exactly the regions derived from lists.
// It does nothing when the platform already matches. A permission failure
// leaves the engine pending and is returned.
func (e *Engine) Sync(ctx context.Context, lists []model.List) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	desired, dups := Desired(lists, e.mode, e.radius)
	for _, id := range dups {
		e.logger.Warn("duplicate geofence identifier, keeping the first list", "identifier", id)
	}

	active, err := e.platform.Active(ctx)
	if err != nil {
		return e.failLocked(err)
	}
	if sameSet(active, desired) {
		e.pending = false
		return nil
	}

	switch e.strategy {
	case StrategyDiff:
		err = e.applyDiff(ctx, active, desired)
	default:
		err = e.applyFull(ctx, active, desired)
	}
	if err != nil {
		return e.failLocked(err)
	}

	e.pending = false
	e.logger.Info("geofences registered",
		"strategy", string(e.strategy),
		"count", len(desired),
		"identifiers", Identifiers(desired),
	)
	return nil
}

func (e *Engine) failLocked(err error) error {
	if errors.Is(err, ErrPermissionDenied) {
		e.pending = true
		e.logger.Warn("geofencing paused until location permission is granted", "error", err)
		return err
	}
	e.logger.Error("geofence registration failed", "error", err)
	return err
}

func (e *Engine) applyFull(ctx context.Context, active, desired []Region) error {
	if len(active) > 0 {
		ids := make([]string, 0, len(active))
		for _, r := range active {
			ids = append(ids, r.Identifier)
		}
		if err := e.platform.Unregister(ctx, ids); err != nil {
			return err
		}
	}
	if len(desired) == 0 {
		return nil
	}
	return e.platform.Register(ctx, desired)
}

func (e *Engine) applyDiff(ctx context.Context, active, desired []Region) error {
	want := make(map[string]Region, len(desired))
	for _, r := range desired {
		want[r.Identifier] = r
	}
	have := make(map[string]Region, len(active))
	for _, r := range active {
		have[r.Identifier] = r
	}

	var stale []string
	for _, r := range active {
		if w, ok := want[r.Identifier]; !ok || !w.sameArea(r) {
			stale = append(stale, r.Identifier)
		}
	}
	var add []Region
	for _, r := range desired {
		if h, ok := have[r.Identifier]; !ok || !h.same(r) {
			add = append(add, r)
		}
	}

	if len(stale) > 0 {
		if err := e.platform.Unregister(ctx, stale); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		return e.platform.Register(ctx, add)
	}
	return nil
}

// Attach re-syncs whenever the collection's lists change. Failures are
// logged; a pending engine retries on the next change.
func (e *Engine) Attach(ctx context.Context, coll *collection.Store) {
	coll.Subscribe(func(c collection.Change) {
		if !c.ListsChanged {
			return
		}
		if err := e.Sync(ctx, coll.Lists()); err != nil {
			e.logger.Debug("geofence sync after list change failed", "error", err)
		}
	})
}
