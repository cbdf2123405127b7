package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/theoremus-urban-solutions/siri-departures/catalog"
	"github.com/theoremus-urban-solutions/siri-departures/config"
	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/internal"
	"github.com/theoremus-urban-solutions/siri-departures/lines"
	"github.com/theoremus-urban-solutions/siri-departures/server"
)

func main() {
	mode := flag.String("mode", "serve", "serve|search|departures|lines")
	instanceName := flag.String("instance", "", "instance name from config.instances[]")
	configPath := flag.String("config", "", "config file path (overrides "+config.EnvConfigPath+")")
	query := flag.String("q", "", "search term (search mode)")
	stopIDs := flag.String("stops", "", "comma-separated stop ids (departures mode, overrides config)")
	limit := flag.Int("limit", -1, "departures per stop (departures mode)")
	flag.Parse()

	if *configPath != "" {
		_ = os.Setenv(config.EnvConfigPath, *configPath)
	}
	if err := config.LoadAppConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := internal.NewLogger(config.Config.Log.Level, config.Config.Log.Format)
	slog.SetDefault(logger)

	inst, err := config.SelectInstance(*instanceName)
	if err != nil {
		logger.Error("no instance", "error", err)
		os.Exit(1)
	}

	ctx, cancel := server.SignalContext(context.Background())
	defer cancel()

	app := newApp(inst, logger)
	switch *mode {
	case "serve":
		err = app.serve(ctx, config.Config.Server.Port)
	case "search":
		err = app.search(ctx, *query)
	case "departures":
		err = app.departures(ctx, splitIDs(*stopIDs), *limit)
	case "lines":
		err = app.listLines(ctx)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("command failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

type app struct {
	inst   config.Instance
	logger *slog.Logger
	loader *catalog.Loader
	cache  *lines.Cache
	client *departures.Client
}

func newApp(inst config.Instance, logger *slog.Logger) *app {
	downloader := fetch.NewDownloader(&http.Client{Timeout: fetch.DownloadTimeout}, "netex-*.xml", logger)
	cache := lines.NewCache(downloader, lines.DefaultCapacity, logger)

	httpClient := &http.Client{Timeout: fetch.DefaultTimeout}
	if t := inst.SIRI.Timeout(); t > 0 {
		httpClient.Timeout = t
	}
	return &app{
		inst:   inst,
		logger: logger,
		loader: catalog.NewLoader(downloader, logger),
		cache:  cache,
		client: departures.NewClient(departures.Options{
			HTTPClient:   httpClient,
			RequestorRef: inst.SIRI.RequestorRef,
			AuthHeader:   inst.SIRI.AuthHeader,
			AuthValue:    inst.SIRI.AuthValue,
			Lines:        cache,
			Logger:       logger,
		}),
	}
}

func (a *app) request(ids []string, limit int) departures.Request {
	return departures.Request{
		Endpoint:     a.inst.SIRI.Endpoint,
		DatasetID:    a.inst.SIRI.DatasetID,
		StopIDs:      ids,
		LimitPerStop: limit,
		LinesURL:     a.inst.NeTEx.LinesURL,
		Scope:        a.inst.Name,
	}
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
