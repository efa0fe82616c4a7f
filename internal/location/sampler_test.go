package location

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/model"
)

var copenhagen = model.GeoPoint{Latitude: 55.6761, Longitude: 12.5683}

func TestInitialRegionFallsBackToDefault(t *testing.T) {
	s := NewSampler(NewStatic(copenhagen), nil)

	r := s.InitialRegion()
	assert.Equal(t, model.GeoRegion{
		Latitude:       55.676098,
		Longitude:      12.568337,
		LatitudeDelta:  0.2,
		LongitudeDelta: 0.2,
	}, r)
}

func TestSampleNowUpdatesLastKnown(t *testing.T) {
	cache := &MemoryCache{}
	s := NewSampler(NewStatic(copenhagen), cache)

	p, err := s.SampleNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, copenhagen, p)

	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, copenhagen, last.Point)

	r := s.InitialRegion()
	assert.Equal(t, 0.0922, r.LatitudeDelta)
	assert.Equal(t, 0.0421, r.LongitudeDelta)
	assert.Equal(t, copenhagen.Latitude, r.Latitude)

	cached, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, copenhagen, cached.Point)
}

func TestPermissionDeniedKeepsDefault(t *testing.T) {
	p := NewStatic(copenhagen)
	p.SetPermission(PermissionDenied)
	s := NewSampler(p, nil)

	_, err := s.SampleNow(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, s.LastError(), ErrPermissionDenied)

	_, ok := s.LastKnown()
	assert.False(t, ok)
	assert.Equal(t, 0.2, s.InitialRegion().LatitudeDelta)
}

func TestBackgroundUpdatePersistsFirstPoint(t *testing.T) {
	cache := &MemoryCache{}
	s := NewSampler(NewStatic(copenhagen), cache)

	second := model.GeoPoint{Latitude: 1, Longitude: 1}
	require.NoError(t, s.HandleBackgroundUpdate(context.Background(), []model.GeoPoint{copenhagen, second}))

	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, copenhagen, last.Point)

	require.NoError(t, s.HandleBackgroundUpdate(context.Background(), nil))
	assert.Error(t, s.HandleBackgroundUpdate(context.Background(), []model.GeoPoint{{Latitude: 120}}))
}

func TestSubscribersSeeSamples(t *testing.T) {
	s := NewSampler(NewStatic(copenhagen), nil)
	var got []model.GeoPoint
	s.Subscribe(func(_ context.Context, p model.GeoPoint) { got = append(got, p) })

	_, err := s.SampleNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.GeoPoint{copenhagen}, got)
}

func TestStartSamplesOnInterval(t *testing.T) {
	s := NewSampler(NewStatic(copenhagen), nil, WithInterval(5*time.Millisecond))
	var n atomic.Int32
	s.Subscribe(func(context.Context, model.GeoPoint) { n.Add(1) })

	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
	s.Stop()

	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no samples after Stop")
}

func TestFileCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "location.yaml")
	c := NewFileCache(path)

	got, err := c.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	taken := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Save(Sample{Point: copenhagen, TakenAt: taken}))

	got, err = c.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, copenhagen, got.Point)
	assert.True(t, taken.Equal(got.TakenAt))

	s := NewSampler(NewStatic(copenhagen), NewFileCache(path))
	last, ok := s.LastKnown()
	require.True(t, ok, "cache seeds the last known location")
	assert.Equal(t, copenhagen, last.Point)
}

func TestStaticUnavailable(t *testing.T) {
	p := &Static{}
	_, err := p.Current(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	perm, err := p.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, perm)
}
