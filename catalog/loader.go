package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/metrics"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
)

// Loader builds stop catalogs from NeTEx documents.
type Loader struct {
	downloader *fetch.Downloader
	logger     *slog.Logger
}

// NewLoader creates a Loader that fetches through downloader.
func NewLoader(downloader *fetch.Downloader, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{downloader: downloader, logger: logger}
}

// Load downloads and parses the stop catalog at source.
func (l *Loader) Load(ctx context.Context, source string) (stops []netex.Stop, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDocumentLoad(metrics.KindStops, err, time.Since(start))
	}()

	spool, err := l.downloader.Spill(ctx, source)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("parsing stop catalog", "path", spool.Path, "size_bytes", spool.Size)
	stops, err = fetch.ParseSpool(ctx, spool, l.logger, netex.DecodeStops)
	if err != nil {
		return nil, err
	}

	metrics.SetCatalogStops(len(stops))
	l.logger.Info("stop catalog loaded", "url", source, "stops", len(stops), "elapsed", time.Since(start).Round(time.Millisecond))
	return stops, nil
}

// LoadStopCatalog is Load with failures reported as an empty catalog.
func (l *Loader) LoadStopCatalog(ctx context.Context, source string) []netex.Stop {
	stops, err := l.Load(ctx, source)
	if err != nil {
		l.logger.Error("stop catalog unavailable", "url", source, "error", err)
		return []netex.Stop{}
	}
	return stops
}

// RetryPolicy bounds LoadWithRetry. A zero MaxElapsedTime retries until ctx is done.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = p.MaxElapsedTime
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// LoadWithRetry retries Load with exponential backoff; malformed documents and client
// errors are not retried. When every attempt fails and snapshotPath is set, the last
// snapshot written there is returned instead. A successful load refreshes the snapshot.
func (l *Loader) LoadWithRetry(ctx context.Context, source, snapshotPath string, policy RetryPolicy) ([]netex.Stop, error) {
	stops, err := backoff.RetryNotifyWithData(
		func() ([]netex.Stop, error) {
			stops, err := l.Load(ctx, source)
			if err != nil && (ctx.Err() != nil || fetch.Permanent(err)) {
				return nil, backoff.Permanent(err)
			}
			return stops, err
		},
		policy.backOff(ctx),
		func(err error, wait time.Duration) {
			l.logger.Warn("stop catalog load failed, retrying", "url", source, "error", err, "retry_in", wait)
		},
	)
	if err == nil {
		if snapshotPath != "" {
			if serr := SaveSnapshot(snapshotPath, stops); serr != nil {
				l.logger.Warn("failed to write catalog snapshot", "path", snapshotPath, "error", serr)
			}
		}
		return stops, nil
	}

	if snapshotPath == "" {
		return nil, err
	}
	cached, serr := LoadSnapshot(snapshotPath)
	if serr != nil {
		l.logger.Error("no usable catalog snapshot", "path", snapshotPath, "error", serr)
		return nil, err
	}
	l.logger.Warn("using catalog snapshot", "path", snapshotPath, "stops", len(cached), "cause", err)
	metrics.SetCatalogStops(len(cached))
	return cached, nil
}
