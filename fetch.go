package assetcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxRemoteSize caps the body read from a remote member.
const maxRemoteSize = 16 << 20

// Fetcher retrieves the content of remote members.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches remote members over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher using its own http.Client. Timeouts come
// from the context the cache passes to Fetch.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}}
}

// Fetch implements Fetcher. Any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
}

// fetchRemote fetches every remote member concurrently. Each fetch is bounded
// by the fetch timeout and tried once; failures are recorded and the member is
// left out of the returned map.
func (c *Cache) fetchRemote(ctx context.Context, members []SourceRef, diag *diagnostics) map[string][]byte {
	var (
		mu      sync.Mutex
		results = make(map[string][]byte)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchConcurrency)

	for _, m := range members {
		if !m.Remote {
			continue
		}
		g.Go(func() error {
			data, err := c.fetchShared(gctx, m.Path)
			if err != nil {
				diag.warn(m.Path, fmt.Errorf("%w: %v", ErrRemoteFetchFailed, err))
				return nil
			}

			mu.Lock()
			results[m.Path] = data
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// fetchShared fetches url, joining a fetch of the same URL already in flight
// for any target. The fetch itself is bounded only by the fetch timeout, so a
// caller giving up does not fail the others waiting on it.
func (c *Cache) fetchShared(ctx context.Context, url string) ([]byte, error) {
	ch := c.fetches.DoChan(url, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetcher.Fetch(fctx, url)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight fetch", "url", url)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
