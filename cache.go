package assetcache

import (
	"fmt"
	"hash"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSidecarDir is where sidecar records live, relative to the target's directory.
	DefaultSidecarDir = ".assetcache"

	defaultFetchTimeout     = 10 * time.Second
	defaultFetchConcurrency = 4
)

// Cache builds and tracks optimized asset artifacts.
// It is safe for concurrent use; at most one rebuild per logical target runs at a time.
type Cache struct {
	fs               afero.Fs
	hashFunc         HashFunc
	nowFunc          NowFunc
	logger           *slog.Logger
	transformer      Transformer
	fetcher          Fetcher
	fetchTimeout     time.Duration
	fetchConcurrency int
	hashedNames      bool
	sidecarDir       string
	stripComments    bool
	wrapper          Wrapper
	accumulateErrors bool // If true, accumulate all validation errors; if false, fail-fast

	fetches singleflight.Group // dedupes concurrent fetches of one URL
	locks   sync.Map           // canonical target -> *sync.Mutex
}

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Option defines a function that configures a Cache.
type Option func(*Cache)

// Open creates a new Cache. With no options it works on the OS filesystem,
// minifies with the default transformer, and does not use hashed names.
func Open(options ...Option) (*Cache, error) {
	cache := &Cache{
		fs:               afero.NewOsFs(),
		nowFunc:          time.Now,
		hashFunc:         defaultHashFunc,
		logger:           slog.New(slog.DiscardHandler),
		fetchTimeout:     defaultFetchTimeout,
		fetchConcurrency: defaultFetchConcurrency,
		sidecarDir:       DefaultSidecarDir,
		stripComments:    true,
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	if cache.transformer == nil {
		cache.transformer = NewMinifyTransformer()
	}
	if cache.fetcher == nil {
		cache.fetcher = NewHTTPFetcher()
	}
	if cache.fetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %s", cache.fetchTimeout)
	}
	if cache.fetchConcurrency <= 0 {
		return nil, fmt.Errorf("fetch concurrency must be positive, got %d", cache.fetchConcurrency)
	}
	if cache.sidecarDir == "" {
		return nil, fmt.Errorf("sidecar directory must not be empty")
	}

	return cache, nil
}

// OpenTemp creates a cache on an in-memory filesystem with hashed names enabled.
func OpenTemp(options ...Option) *Cache {
	options = append([]Option{WithFs(afero.NewMemMapFs()), WithHashedNames(true)}, options...)
	cache, err := Open(options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create temp cache: %v", err))
	}
	return cache
}

// Fs returns the filesystem the cache operates on.
func (c *Cache) Fs() afero.Fs {
	return c.fs
}

// sidecarDirFor returns the directory holding the sidecar record for target.
func (c *Cache) sidecarDirFor(target string) string {
	return c.sidecarDirIn(filepath.Dir(target))
}

// sidecarDirIn returns the sidecar directory for targets living in dir.
func (c *Cache) sidecarDirIn(dir string) string {
	if filepath.IsAbs(c.sidecarDir) {
		return c.sidecarDir
	}
	return filepath.Join(dir, c.sidecarDir)
}

// sidecarPath returns the path to the sidecar record for target.
func (c *Cache) sidecarPath(target string) string {
	return filepath.Join(c.sidecarDirFor(target), c.sidecarName(target))
}

// canonical returns the key used to serialize work on a logical target.
func canonical(target string) string {
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return filepath.Clean(target)
}

// lockTarget acquires the per-target mutex and returns its release function.
func (c *Cache) lockTarget(key string) func() {
	v, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// newHash creates a new hash instance.
func (c *Cache) newHash() hash.Hash {
	return c.hashFunc()
}

// now returns the current time.
func (c *Cache) now() time.Time {
	return c.nowFunc()
}

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return xxhash.New()
}
