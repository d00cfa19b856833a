// Package cache keeps recent registry search results in memory.
package cache

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/starford/marca/internal/checksum"
	"github.com/starford/marca/internal/models"
)

// FetchFunc loads a result on a cache miss.
type FetchFunc = func(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)

type entry struct {
	value    *models.SearchResult
	storedAt time.Time
}

// Cache maps query identity to the last fetched result. Entries older than
// the TTL are ignored and overwritten on the next fetch; nothing is evicted,
// so the map grows with the number of distinct queries.
type Cache struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty cache.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key for q, derived from every query field.
func Key(q models.SearchQuery) string {
	return checksum.Fields(url.Values{
		"marca":  {q.Name},
		"ncl":    {q.ClassCode},
		"tipo":   {q.MarkType},
		"pagina": {strconv.Itoa(q.Page)},
	})
}

// GetOrFetch returns the cached result for q when it is younger than the
// TTL, otherwise calls fetch and stores its result. Failed fetches are not
// stored. The lock is not held while fetch runs, so concurrent misses on
// the same key may each fetch; the last write wins. Returned results are
// shared and must be treated as read-only.
func (c *Cache) GetOrFetch(ctx context.Context, q models.SearchQuery, fetch FetchFunc) (*models.SearchResult, error) {
	key := Key(q)

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(e.storedAt) < c.ttl {
		c.logger.Debug("cache: hit", slog.String("marca", q.Name))
		return e.value, nil
	}

	c.logger.Debug("cache: miss", slog.String("marca", q.Name), slog.Bool("expired", ok))
	res, err := fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: res, storedAt: c.now()}
	c.mu.Unlock()
	return res, nil
}

// Size returns the number of stored entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
