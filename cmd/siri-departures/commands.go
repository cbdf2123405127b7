package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/siri-departures/catalog"
	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/metrics"
	"github.com/theoremus-urban-solutions/siri-departures/monitor"
	"github.com/theoremus-urban-solutions/siri-departures/server"
)

var startupRetry = catalog.RetryPolicy{
	InitialInterval: 2 * time.Second,
	MaxInterval:     time.Minute,
	MaxElapsedTime:  5 * time.Minute,
}

func (a *app) serve(ctx context.Context, port int) error {
	metrics.Init(prometheus.DefaultRegisterer)

	stops := make([]monitor.Stop, 0, len(a.inst.Stops))
	for _, s := range a.inst.Stops {
		stops = append(stops, monitor.Stop{ID: s.ID, Name: s.Name, Limit: a.inst.StopLimit(s)})
	}
	coord := monitor.NewCoordinator(monitor.Options{
		Fetcher:      a.client,
		Lines:        a.cache,
		Endpoint:     a.inst.SIRI.Endpoint,
		DatasetID:    a.inst.SIRI.DatasetID,
		LinesURL:     a.inst.NeTEx.LinesURL,
		Scope:        a.inst.Name,
		Stops:        stops,
		DefaultLimit: a.inst.MaxDepartures,
		ScanInterval: a.inst.ScanInterval(),
		Logger:       a.logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := coord.LoadCatalog(ctx, a.loader, a.inst.NeTEx.StopsURL, a.inst.NeTEx.SnapshotPath, startupRetry)
		if err != nil && ctx.Err() == nil {
			a.logger.Error("stop catalog unavailable, search disabled", "url", a.inst.NeTEx.StopsURL, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(coord.Run(ctx))
	})
	g.Go(func() error {
		return server.New(coord, port, a.logger).ListenAndServe(ctx)
	})
	return g.Wait()
}

func (a *app) search(ctx context.Context, term string) error {
	if term == "" {
		return fmt.Errorf("%w: search needs -q", fetch.ErrValidation)
	}
	stops := a.loader.LoadStopCatalog(ctx, a.inst.NeTEx.StopsURL)
	found := catalog.Find(stops, term)
	for _, s := range found {
		city := ""
		if s.CityName != nil {
			city = " (" + *s.CityName + ")"
		}
		fmt.Printf("%s\t%s%s\t%s\n", s.ID, s.Name, city, s.TransportMode)
	}
	a.logger.Info("search done", "term", term, "catalog", len(stops), "matches", len(found))
	return nil
}

func (a *app) departures(ctx context.Context, ids []string, limit int) error {
	if len(ids) == 0 {
		for _, s := range a.inst.Stops {
			ids = append(ids, s.ID)
		}
	}
	if limit < 0 {
		limit = a.inst.MaxDepartures
	}
	result, err := a.client.Fetch(ctx, a.request(ids, limit))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) listLines(ctx context.Context) error {
	if a.inst.NeTEx.LinesURL == "" {
		return errors.New("instance has no netex.linesURL")
	}
	table, err := a.cache.LoadTable(ctx, a.inst.NeTEx.LinesURL, a.inst.Name)
	if err != nil {
		return err
	}
	all := table.Lines()
	sort.Slice(all, func(i, j int) bool { return all[i].FullID < all[j].FullID })
	return printJSON(all)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
