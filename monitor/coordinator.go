package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/theoremus-urban-solutions/siri-departures/catalog"
	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/lines"
	"github.com/theoremus-urban-solutions/siri-departures/metrics"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
	"github.com/theoremus-urban-solutions/siri-departures/siri"
)

const (
	DefaultScanInterval = 60 * time.Second
	DefaultLimit        = 5
	// NoDepartures is the board state of a stop without upcoming departures.
	NoDepartures = "No departures"

	minRetryInterval = 5 * time.Second
)

// Fetcher performs one batched departures request.
type Fetcher interface {
	Fetch(ctx context.Context, req departures.Request) (departures.Result, error)
}

// Stop is one monitored stop.
type Stop struct {
	ID   string
	Name string
	// Limit is the number of departures kept for display; zero uses the default.
	Limit int
}

// Options configures a Coordinator.
type Options struct {
	Fetcher Fetcher
	// Lines, when set, serves line lookups for Scope.
	Lines *lines.Cache

	Endpoint  string
	DatasetID string
	LinesURL  string
	Scope     string

	Stops        []Stop
	DefaultLimit int
	ScanInterval time.Duration
	Logger       *slog.Logger
}

// Coordinator refreshes departures for the monitored stops.
type Coordinator struct {
	fetcher  Fetcher
	lines    *lines.Cache
	template departures.Request
	stops    []Stop
	limits   map[string]int
	interval time.Duration
	logger   *slog.Logger

	store Store

	catalogMu sync.RWMutex
	catalog   []netex.Stop
}

// NewCoordinator creates a Coordinator. Stops are deduplicated by id, first entry wins.
func NewCoordinator(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.ScanInterval
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	defLimit := opts.DefaultLimit
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}

	c := &Coordinator{
		fetcher: opts.Fetcher,
		lines:   opts.Lines,
		template: departures.Request{
			Endpoint:  opts.Endpoint,
			DatasetID: opts.DatasetID,
			LinesURL:  opts.LinesURL,
			Scope:     opts.Scope,
		},
		limits:   make(map[string]int, len(opts.Stops)),
		interval: interval,
		logger:   logger,
	}
	for _, s := range opts.Stops {
		if s.ID == "" {
			continue
		}
		if _, dup := c.limits[s.ID]; dup {
			continue
		}
		if s.Limit <= 0 {
			s.Limit = defLimit
		}
		c.limits[s.ID] = s.Limit
		c.stops = append(c.stops, s)
	}
	return c
}

// Stops returns the monitored stops.
func (c *Coordinator) Stops() []Stop {
	out := make([]Stop, len(c.stops))
	copy(out, c.stops)
	return out
}

// Snapshot returns the latest refresh outcome.
func (c *Coordinator) Snapshot() Snapshot {
	return c.store.Get()
}

// Refresh fetches departures for every monitored stop in one request. The request asks
// for the largest per-stop limit and each stop is trimmed to its own limit afterwards.
func (c *Coordinator) Refresh(ctx context.Context) error {
	req := c.template
	req.StopIDs = make([]string, 0, len(c.stops))
	for _, s := range c.stops {
		req.StopIDs = append(req.StopIDs, s.ID)
		if s.Limit > req.LimitPerStop {
			req.LimitPerStop = s.Limit
		}
	}

	result, err := c.fetcher.Fetch(ctx, req)
	metrics.IncRefresh(err)
	if err != nil {
		c.store.fail(err)
		c.logger.Warn("departures refresh failed, keeping previous data", "stops", len(req.StopIDs), "error", err)
		return err
	}

	for id, deps := range result {
		if limit, ok := c.limits[id]; ok && len(deps) > limit {
			result[id] = deps[:limit]
		}
	}
	c.store.succeed(result, time.Now())
	c.logger.Debug("departures refreshed", "stops", len(result))
	return nil
}

// Run refreshes immediately and then on every scan interval until ctx is done.
// After a failure the next attempt is scheduled with exponential backoff capped at
// the scan interval.
func (c *Coordinator) Run(ctx context.Context) error {
	b := c.retryBackOff()
	for {
		wait := c.interval
		if err := c.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait = b.NextBackOff()
		} else {
			b.Reset()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Coordinator) retryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(minRetryInterval, c.interval)
	b.MaxInterval = c.interval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// LoadCatalog loads the stop catalog with retries and snapshot fallback and keeps it
// for Catalog. A failure leaves the previous catalog in place.
func (c *Coordinator) LoadCatalog(ctx context.Context, loader *catalog.Loader, source, snapshotPath string, policy catalog.RetryPolicy) error {
	stops, err := loader.LoadWithRetry(ctx, source, snapshotPath, policy)
	if err != nil {
		return err
	}
	c.SetCatalog(stops)
	return nil
}

// SetCatalog replaces the stop catalog.
func (c *Coordinator) SetCatalog(stops []netex.Stop) {
	c.catalogMu.Lock()
	c.catalog = stops
	c.catalogMu.Unlock()
	metrics.SetCatalogStops(len(stops))
}

// Catalog returns the current stop catalog. The slice must not be modified.
func (c *Coordinator) Catalog() []netex.Stop {
	c.catalogMu.RLock()
	defer c.catalogMu.RUnlock()
	return c.catalog
}

// Stop looks id up in the stop catalog.
func (c *Coordinator) Stop(id string) (netex.Stop, bool) {
	return catalog.ByID(c.Catalog(), id)
}

// ErrNoLinesCatalog is returned by ReloadLines when no line catalog is configured.
var ErrNoLinesCatalog = errors.New("no line catalog configured")

// ReloadLines fetches the line catalog again even though its URL did not change.
// It returns the number of distinct lines loaded.
func (c *Coordinator) ReloadLines(ctx context.Context) (int, error) {
	if c.lines == nil || c.template.LinesURL == "" {
		return 0, ErrNoLinesCatalog
	}
	table, err := c.lines.Reload(ctx, c.template.LinesURL, c.template.Scope)
	if err != nil {
		c.logger.Error("line catalog reload failed", "url", c.template.LinesURL, "error", err)
		return 0, err
	}
	return len(table.Lines()), nil
}

// Line resolves ref against the line table cached for the coordinator scope.
func (c *Coordinator) Line(ref string) (*netex.Line, bool) {
	if c.lines == nil {
		return nil, false
	}
	l := c.lines.Table(c.template.Scope).Get(ref)
	return l, l != nil
}

// Board is the display summary of one monitored stop.
type Board struct {
	StopID     string           `json:"stop_id"`
	Name       string           `json:"name,omitempty"`
	State      string           `json:"state"`
	Available  bool             `json:"available"`
	Departures []siri.Departure `json:"departures"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

// Board returns the summary of a monitored stop, or false if stopID is not monitored.
func (c *Coordinator) Board(stopID string) (Board, bool) {
	limit, ok := c.limits[stopID]
	if !ok {
		return Board{}, false
	}
	var name string
	for _, s := range c.stops {
		if s.ID == stopID {
			name = s.Name
			break
		}
	}
	if name == "" {
		if stop, ok := c.Stop(stopID); ok {
			name = stop.Name
		}
	}

	snap := c.store.Get()
	deps := snap.Departures[stopID]
	if len(deps) > limit {
		deps = deps[:limit]
	}
	if deps == nil {
		deps = []siri.Departure{}
	}
	b := Board{
		StopID:     stopID,
		Name:       name,
		State:      boardState(deps),
		Available:  snap.Available(stopID),
		Departures: deps,
	}
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt
		b.UpdatedAt = &at
	}
	return b, true
}

func boardState(deps []siri.Departure) string {
	if len(deps) == 0 {
		return NoDepartures
	}
	if t := deps[0].ExpectedDepartureTime; t != nil {
		return *t
	}
	if t := deps[0].AimedDepartureTime; t != nil {
		return *t
	}
	return NoDepartures
}
