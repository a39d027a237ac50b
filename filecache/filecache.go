// Package filecache maps script identifiers (adapter-reported source
// paths) to fetchable locations and serves `Debugger.getScriptSource`
// from a memoized fetch.
package filecache

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/viant/afs"
)

// FileCache is the narrow collaborator CommandRouter depends on, defined at
// the point of use so router never needs to know about afs.
type FileCache interface {
	// Register announces path as a script identifier the client refers to.
	// It does not fetch content.
	Register(ctx context.Context, path string) error

	// Source returns path's contents, fetching and memoizing on first use.
	Source(ctx context.Context, path string) (string, error)
}

// storageService is the slice of afs.Service this package actually calls,
// narrowed so tests can fake it without standing up a real filesystem.
type storageService interface {
	DownloadWithURL(ctx context.Context, URL string, options ...interface{}) ([]byte, error)
}

// afsAdapter adapts afs.Service's real (variadic storage.Option) signature
// to storageService's interface{}-erased one, since afs.Service's option
// type is not constructible outside the afs package.
type afsAdapter struct {
	service afs.Service
}

func (a afsAdapter) DownloadWithURL(ctx context.Context, URL string, _ ...interface{}) ([]byte, error) {
	return a.service.DownloadWithURL(ctx, URL)
}

// Cache is the default FileCache, backed by github.com/viant/afs so local
// paths, and any URI scheme afs supports (s3://, gs://, ...), work
// uniformly.
type Cache struct {
	service storageService

	mu      sync.RWMutex
	sources map[string]string
}

// New wraps a real afs.Service in a Cache.
func New() *Cache {
	return newWithService(afsAdapter{service: afs.New()})
}

func newWithService(service storageService) *Cache {
	return &Cache{service: service, sources: make(map[string]string)}
}

// Register implements FileCache. Registration is fire-and-forget: the path
// is only ever consulted again through Source, which fetches on demand
// regardless of whether Register was called first.
func (c *Cache) Register(_ context.Context, path string) error {
	if path == "" {
		return errors.New("filecache: empty path")
	}
	return nil
}

// Source implements FileCache, fetching and memoizing path's contents on
// first request.
func (c *Cache) Source(ctx context.Context, path string) (string, error) {
	c.mu.RLock()
	if cached, ok := c.sources[path]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	data, err := c.service.DownloadWithURL(ctx, path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch source %q", path)
	}
	source := string(data)

	c.mu.Lock()
	c.sources[path] = source
	c.mu.Unlock()
	return source, nil
}
