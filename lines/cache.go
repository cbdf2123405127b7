// Package lines keeps NeTEx line tables cached per scope.
//
// A scope is an opaque key, typically one per configured instance. Each scope holds the
// table of the last URL loaded for it; asking again with the same URL is served from
// memory, while a different URL reloads that scope only. Tables are replaced whole, so a
// reader sees either the previous table or the new one.
package lines

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/metrics"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
)

// DefaultScope is used when the caller does not name one.
const DefaultScope = "default"

// DefaultCapacity is the number of scopes kept before the least recently used is evicted.
const DefaultCapacity = 64

// LoadTimeout bounds one line catalog download and parse.
const LoadTimeout = 5 * time.Minute

type entry struct {
	url   string
	table netex.LineTable
}

// Cache loads line tables and keeps one per scope.
type Cache struct {
	store       gcache.Cache
	loads       singleflight.Group
	downloader  *fetch.Downloader
	loadTimeout time.Duration
	logger      *slog.Logger
}

// NewCache creates a cache holding up to capacity scopes.
func NewCache(downloader *fetch.Downloader, capacity int, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:       gcache.New(capacity).LRU().Build(),
		downloader:  downloader,
		loadTimeout: LoadTimeout,
		logger:      logger,
	}
}

// LoadTable returns the line table for scope, fetching url unless it is already cached
// for that scope. Failed loads are not cached.
func (c *Cache) LoadTable(ctx context.Context, url, scope string) (netex.LineTable, error) {
	if url == "" {
		return netex.LineTable{}, nil
	}
	if scope == "" {
		scope = DefaultScope
	}
	if e, ok := c.lookup(scope); ok && e.url == url {
		metrics.IncLineCache("hit")
		c.logger.Debug("using cached lines repository", "scope", scope, "lines", len(e.table))
		return e.table, nil
	}

	// The download is shared by every caller waiting on this scope and URL, so it runs
	// detached from any single caller and is bounded by LoadTimeout instead.
	ch := c.loads.DoChan(scope+"\x00"+url, func() (interface{}, error) {
		if e, ok := c.lookup(scope); ok && e.url == url {
			return e.table, nil
		}
		metrics.IncLineCache("miss")
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		table, err := c.fetch(loadCtx, url)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(scope, &entry{url: url, table: table}); err != nil {
			return nil, err
		}
		c.logger.Info("lines repository loaded", "scope", scope, "url", url, "keys", len(table))
		return table, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(netex.LineTable), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load is LoadTable with failures reported as an empty table.
func (c *Cache) Load(ctx context.Context, url, scope string) netex.LineTable {
	table, err := c.LoadTable(ctx, url, scope)
	if err != nil {
		c.logger.Error("lines repository unavailable", "scope", scope, "url", url, "error", err)
		return netex.LineTable{}
	}
	return table
}

// Table returns the table currently cached for scope without loading anything.
func (c *Cache) Table(scope string) netex.LineTable {
	if scope == "" {
		scope = DefaultScope
	}
	if e, ok := c.lookup(scope); ok {
		return e.table
	}
	return nil
}

// Invalidate drops the cached table of scope.
func (c *Cache) Invalidate(scope string) {
	if scope == "" {
		scope = DefaultScope
	}
	c.store.Remove(scope)
}

// Reload drops the table cached for scope and loads url again. If the load fails the
// scope stays empty, and the next LoadTable retries.
func (c *Cache) Reload(ctx context.Context, url, scope string) (netex.LineTable, error) {
	c.Invalidate(scope)
	return c.LoadTable(ctx, url, scope)
}

func (c *Cache) lookup(scope string) (*entry, bool) {
	v, err := c.store.GetIFPresent(scope)
	if err != nil {
		if !errors.Is(err, gcache.KeyNotFoundError) {
			c.logger.Warn("line cache lookup failed", "scope", scope, "error", err)
		}
		return nil, false
	}
	e, ok := v.(*entry)
	return e, ok
}

func (c *Cache) fetch(ctx context.Context, url string) (table netex.LineTable, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDocumentLoad(metrics.KindLines, err, time.Since(start))
	}()

	spool, err := c.downloader.Spill(ctx, url)
	if err != nil {
		return nil, err
	}
	return fetch.ParseSpool(ctx, spool, c.logger, netex.DecodeLines)
}
