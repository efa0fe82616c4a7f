package location

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/nhle/geotask/internal/model"
)

// Sample is a position with the time it was taken.
type Sample struct {
	Point   model.GeoPoint `yaml:"point"`
	TakenAt time.Time      `yaml:"taken_at"`
}

// Cache holds the single last known sample.
type Cache interface {
	// Load returns the cached sample, or nil when there is none.
	Load() (*Sample, error)
	Save(s Sample) error
}

// FileCache persists the last sample as YAML. A sibling lock file guards
// concurrent writers, such as a background update racing the foreground
// ticker in another process.
type FileCache struct {
	path string
	lock *flock.Flock
}

// NewFileCache returns a cache stored at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the cache file location.
func (c *FileCache) Path() string { return c.path }

// Load reads the cached sample. A missing file is not an error.
func (c *FileCache) Load() (*Sample, error) {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if err := c.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking location cache: %w", err)
	}
	defer c.lock.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading location cache %s: %w", c.path, err)
	}

	var s Sample
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing location cache %s: %w", c.path, err)
	}
	return &s, nil
}

// Save writes the sample, replacing the previous one.
func (c *FileCache) Save(s Sample) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("locking location cache: %w", err)
	}
	defer c.lock.Unlock()

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding location sample: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing location cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing location cache: %w", err)
	}
	return nil
}

// MemoryCache keeps the sample in memory.
type MemoryCache struct {
	mu     sync.Mutex
	sample *Sample
}

// Load returns the cached sample.
func (m *MemoryCache) Load() (*Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sample == nil {
		return nil, nil
	}
	s := *m.sample
	return &s, nil
}

// Save stores the sample.
func (m *MemoryCache) Save(s Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sample = &s
	return nil
}
