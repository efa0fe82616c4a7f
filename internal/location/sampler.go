package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/geotask/internal/model"
)

// DefaultInterval is the foreground sampling cadence.
const DefaultInterval = 60 * time.Second

// sampleTimeout bounds a single position read.
const sampleTimeout = 15 * time.Second

// DefaultPoint is the map centre used when no sample is available.
var DefaultPoint = model.GeoPoint{Latitude: 55.676098, Longitude: 12.568337}

// Sampler reads the position on a fixed cadence and on demand, keeping the
// last known location for map centring.
type Sampler struct {
	provider Provider
	cache    Cache
	interval time.Duration
	fallback model.GeoPoint
	logger   *slog.Logger

	mu      sync.Mutex
	last    *Sample
	lastErr error
	subs    []func(context.Context, model.GeoPoint)
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithInterval sets the foreground cadence. Non-positive values keep the
// default.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFallback sets the point used when nothing has been sampled.
func WithFallback(p model.GeoPoint) Option {
	return func(s *Sampler) { s.fallback = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// NewSampler creates a sampler. The cache's stored sample, if any, becomes
// the initial last known location. cache may be nil.
func NewSampler(p Provider, cache Cache, opts ...Option) *Sampler {
	s := &Sampler{
		provider: p,
		cache:    cache,
		interval: DefaultInterval,
		fallback: DefaultPoint,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cache != nil {
		cached, err := cache.Load()
		if err != nil {
			s.logger.Warn("ignoring unreadable location cache", "error", err)
		} else {
			s.last = cached
		}
	}
	return s
}

// Subscribe registers fn to receive every accepted sample.
func (s *Sampler) Subscribe(fn func(context.Context, model.GeoPoint)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Start begins foreground sampling: one sample immediately, then one per
// interval until Stop or ctx is done.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.loop(ctx, stopCh, doneCh)
}

// Stop halts foreground sampling and waits for the loop to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
}

func (s *Sampler) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sampler) tick(ctx context.Context) {
	if _, err := s.SampleNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("foreground location sample failed", "error", err)
	}
}

// SampleNow asks for permission, reads the position and records it. A
// denied permission returns ErrPermissionDenied and leaves the last known
// location untouched.
func (s *Sampler) SampleNow(ctx context.Context) (model.GeoPoint, error) {
	perm, err := s.provider.RequestPermission(ctx)
	if err != nil {
		return model.GeoPoint{}, s.setErr(fmt.Errorf("requesting location permission: %w", err))
	}
	if perm != PermissionGranted {
		s.logger.Warn("location permission not granted", "permission", perm.String())
		return model.GeoPoint{}, s.setErr(ErrPermissionDenied)
	}

	readCtx, cancel := context.WithTimeout(ctx, sampleTimeout)
	p, err := s.provider.Current(readCtx)
	cancel()
	if err != nil {
		return model.GeoPoint{}, s.setErr(fmt.Errorf("reading location: %w", err))
	}

	if err := s.accept(ctx, p, time.Now()); err != nil {
		return p, err
	}
	return p, nil
}

// HandleBackgroundUpdate records the first point of a batch delivered by
// the platform while the app is in the background.
func (s *Sampler) HandleBackgroundUpdate(ctx context.Context, points []model.GeoPoint) error {
	if len(points) == 0 {
		return nil
	}
	return s.accept(ctx, points[0], time.Now())
}

func (s *Sampler) accept(ctx context.Context, p model.GeoPoint, at time.Time) error {
	if err := p.Validate(); err != nil {
		return s.setErr(fmt.Errorf("rejecting location sample: %w", err))
	}

	sample := Sample{Point: p, TakenAt: at.UTC()}
	s.mu.Lock()
	s.last = &sample
	s.lastErr = nil
	subs := make([]func(context.Context, model.GeoPoint), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ctx, p)
	}

	if s.cache != nil {
		if err := s.cache.Save(sample); err != nil {
			s.logger.Warn("saving last known location", "error", err)
			return err
		}
	}
	return nil
}

func (s *Sampler) setErr(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// LastKnown returns the most recent sample.
func (s *Sampler) LastKnown() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Sample{}, false
	}
	return *s.last, true
}

// LastError returns the error from the latest failed sample, cleared by the
// next successful one.
func (s *Sampler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// InitialRegion returns where a map view should open: the last known
// location at close zoom, or the fallback point at a wider span.
func (s *Sampler) InitialRegion() model.GeoRegion {
	if last, ok := s.LastKnown(); ok {
		return model.RegionAround(last.Point, model.SampleLatitudeDelta, model.SampleLongitudeDelta)
	}
	return model.RegionAround(s.fallback, model.DefaultLatitudeDelta, model.DefaultLongitudeDelta)
}
