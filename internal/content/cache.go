package content

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// CacheKey is the key under which CachedSource stores the catalog.
const CacheKey = "academy:catalog:v1"

// ErrCacheMiss must be returned (or wrapped) by a JSONCache when the key is
// absent.
var ErrCacheMiss = errors.New("content cache miss")

// JSONCache is the subset of a key/value cache used by CachedSource.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, v any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CachedSource is a read-through cache in front of another source. Cache
// failures are logged and fall back to the inner source.
type CachedSource struct {
	inner  Source
	cache  JSONCache
	ttl    time.Duration
	isMiss func(error) bool
}

// NewCachedSource wraps inner. isMiss reports whether an error from the
// cache means "not found"; nil treats only ErrCacheMiss as a miss.
func NewCachedSource(inner Source, cache JSONCache, ttl time.Duration, isMiss func(error) bool) *CachedSource {
	if isMiss == nil {
		isMiss = func(err error) bool { return errors.Is(err, ErrCacheMiss) }
	}
	return &CachedSource{inner: inner, cache: cache, ttl: ttl, isMiss: isMiss}
}

// Load returns the cached catalog, loading and storing it on a miss.
func (s *CachedSource) Load(ctx context.Context) (*Catalog, error) {
	var c Catalog
	err := s.cache.GetJSON(ctx, CacheKey, &c)
	switch {
	case err == nil:
		slog.Debug("content cache hit", "key", CacheKey, "modules", c.Len())
		return &c, nil
	case s.isMiss(err):
		slog.Debug("content cache miss", "key", CacheKey)
	default:
		slog.Warn("content cache read failed", "key", CacheKey, "error", err)
	}

	loaded, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, CacheKey, loaded, s.ttl); err != nil {
		slog.Warn("content cache write failed", "key", CacheKey, "error", err)
	}
	return loaded, nil
}
