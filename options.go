package assetcache

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// WithFs sets a custom filesystem for the cache.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	cache, err := assetcache.Open(assetcache.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithHashFunc sets a custom hash function for sidecar and artifact names.
// The default is xxHash64.
//
// Note: Changing the hash function orphans existing sidecar records.
func WithHashFunc(hashFunc HashFunc) Option {
	return func(c *Cache) {
		c.hashFunc = hashFunc
	}
}

// WithNowFunc sets a custom time function for the cache.
// This is primarily useful for testing with deterministic timestamps.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(c *Cache) {
		c.nowFunc = nowFunc
	}
}

// WithHashedNames enables content-independent hashed physical artifact names
// tracked through sidecar records. When disabled (the default) the artifact is
// written to the logical target path and staleness uses its modification time.
func WithHashedNames(enabled bool) Option {
	return func(c *Cache) {
		c.hashedNames = enabled
	}
}

// WithSidecarDir sets where sidecar records are stored. A relative directory is
// resolved against each target's directory.
func WithSidecarDir(dir string) Option {
	return func(c *Cache) {
		c.sidecarDir = dir
	}
}

// WithTransformer sets the per-member text transform.
func WithTransformer(t Transformer) Option {
	return func(c *Cache) {
		c.transformer = t
	}
}

// WithFetcher sets how remote members are retrieved.
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) {
		c.fetcher = f
	}
}

// WithFetchTimeout bounds each remote fetch. Failed fetches are never retried.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

// WithFetchConcurrency limits how many remote members are fetched at once.
func WithFetchConcurrency(n int) Option {
	return func(c *Cache) {
		c.fetchConcurrency = n
	}
}

// WithStripComments controls whether local members have comments stripped.
// Enabled by default.
func WithStripComments(enabled bool) Option {
	return func(c *Cache) {
		c.stripComments = enabled
	}
}

// WithWrapper configures the transport wrapper written in front of artifacts.
func WithWrapper(w Wrapper) Option {
	return func(c *Cache) {
		c.wrapper = w
	}
}

// WithLogger sets the logger used for warnings and rebuild decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithAccumulateErrors configures the cache to report all request validation
// errors instead of stopping at the first one.
//
// Example:
//
//	cache, err := assetcache.Open(assetcache.WithAccumulateErrors())
func WithAccumulateErrors() Option {
	return func(c *Cache) {
		c.accumulateErrors = true
	}
}
