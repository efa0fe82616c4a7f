package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nhle/geotask/internal/app"
	"github.com/nhle/geotask/internal/collection"
	"github.com/nhle/geotask/internal/credential"
	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/geofence"
	"github.com/nhle/geotask/internal/location"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/notify"
	"github.com/nhle/geotask/internal/remote"
	"github.com/nhle/geotask/internal/session"
	"github.com/nhle/geotask/internal/store"
	appsync "github.com/nhle/geotask/internal/sync"
)

// runtime is the wired client: gateway, session, engine, geofencing and
// location sampling.
type runtime struct {
	logger *slog.Logger

	store         *store.SQLStore
	gateway       gateway.Gateway
	sessions      session.Provider
	engine        *appsync.Engine
	geo           *geofence.Engine
	sim           *geofence.Simulator
	location      *location.Static
	sampler       *location.Sampler
	notifications app.NotificationReader

	live atomic.Bool
}

// newRuntime wires every component from cfg. Extra notifiers receive
// reminders alongside the log and, in local mode, the notification table.
func newRuntime(ctx context.Context, cfg *model.AppConfig, logger *slog.Logger, extra ...notify.Notifier) (*runtime, error) {
	rt := &runtime{logger: logger}

	tokens, err := credential.OpenKeyring(credential.DefaultDir())
	if err != nil {
		return nil, err
	}

	switch cfg.Backend.Mode {
	case model.BackendRemote:
		client := remote.NewClient(cfg.Backend.ServerURL, tokens, remote.WithLogger(logger))
		rt.gateway = client
		rt.sessions = client
	default:
		s, err := openStore(cfg.Backend)
		if err != nil {
			return nil, err
		}
		rt.store = s
		rt.gateway = s
		rt.sessions = session.NewLocal(s, tokens, logger)
		rt.notifications = s
	}

	coll := collection.New()
	rt.engine = appsync.New(rt.gateway, coll, rt.sessions,
		appsync.WithOperationTimeout(cfg.Sync.OperationTimeout()),
		appsync.WithLogger(logger),
	)

	notifiers := notify.Multi{notify.Log{Logger: logger}}
	if rt.store != nil {
		notifiers = append(notifiers, notify.Store{Store: rt.store})
	}
	notifiers = append(notifiers, extra...)
	handler := geofence.NewHandler(notifiers, logger)

	rt.sim = geofence.NewSimulator(func(ctx context.Context, ev geofence.Event) {
		if !rt.live.Load() {
			return
		}
		if err := handler.Handle(ctx, ev); err != nil {
			logger.Warn("handling region event failed", "error", err)
		}
	})

	strategy, err := geofence.ParseStrategy(cfg.Geofence.Strategy)
	if err != nil {
		rt.Close()
		return nil, err
	}
	mode, err := geofence.ParseIdentifierMode(cfg.Geofence.Identifier)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.geo = geofence.NewEngine(rt.sim,
		geofence.WithRadius(cfg.Geofence.RadiusMeters),
		geofence.WithStrategy(strategy),
		geofence.WithIdentifierMode(mode),
		geofence.WithLogger(logger),
	)
	rt.geo.Attach(ctx, coll)

	cache := location.NewFileCache(cfg.Location.CachePath)
	rt.location = location.NewStatic(cfg.Location.DefaultPoint())
	rt.sampler = location.NewSampler(rt.location, cache,
		location.WithInterval(cfg.Location.SampleInterval()),
		location.WithFallback(cfg.Location.DefaultPoint()),
		location.WithLogger(logger),
	)
	if last, ok := rt.sampler.LastKnown(); ok {
		rt.location.Set(last.Point)
	}
	rt.sampler.Subscribe(func(ctx context.Context, p model.GeoPoint) {
		rt.sim.Observe(ctx, p)
	})

	return rt, nil
}

// Arm loads the signed-in user's lists so their regions get registered,
// replays the last known location without raising reminders, and then lets
// region events through.
func (rt *runtime) Arm(ctx context.Context) {
	if err := rt.engine.FetchLists(ctx); err != nil && !gateway.IsUnauthenticated(err) {
		rt.logger.Warn("initial list fetch failed", "error", err)
	}
	if last, ok := rt.sampler.LastKnown(); ok {
		rt.sim.Observe(ctx, last.Point)
	}
	rt.live.Store(true)
}

// Close releases the database, if one was opened.
func (rt *runtime) Close() {
	if rt.store == nil {
		return
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing store failed", "error", err)
	}
}

// openStore opens the configured database, creating the parent directory
// of a SQLite file first.
func openStore(b model.BackendConfig) (*store.SQLStore, error) {
	if b.Driver == store.DriverSQLite && b.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(b.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	s, err := store.Open(b.Driver, b.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", b.Driver, err)
	}
	return s, nil
}

// requireLocal returns the store, or an error in remote mode.
func (rt *runtime) requireLocal(what string) (*store.SQLStore, error) {
	if rt.store == nil {
		return nil, errors.New(what + " is only available with the local backend")
	}
	return rt.store, nil
}
