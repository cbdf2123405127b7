// Package departures fetches next departures for a batch of stops from a SIRI
// StopMonitoring endpoint and enriches them with line catalog data.
package departures

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/lines"
	"github.com/theoremus-urban-solutions/siri-departures/metrics"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
	"github.com/theoremus-urban-solutions/siri-departures/siri"
)

// Result maps every requested stop id to its departures, in response order.
type Result map[string][]siri.Departure

// Request is one batched departures query.
type Request struct {
	Endpoint  string
	DatasetID string
	StopIDs   []string
	// LimitPerStop caps the departures kept per stop when positive.
	LimitPerStop int
	// LinesURL enables enrichment from the line catalog cached under Scope.
	LinesURL string
	Scope    string
}

// Options configures a Client.
type Options struct {
	HTTPClient   *http.Client
	RequestorRef string
	// AuthHeader and AuthValue are sent with every request when both are set.
	AuthHeader string
	AuthValue  string
	Lines      *lines.Cache
	Logger     *slog.Logger
}

// Client queries a SIRI StopMonitoring endpoint.
type Client struct {
	http         *fetch.Client
	requestorRef string
	authHeader   string
	authValue    string
	lines        *lines.Cache
	logger       *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	requestor := opts.RequestorRef
	if requestor == "" {
		requestor = siri.DefaultRequestorRef
	}
	return &Client{
		http:         fetch.NewClient(opts.HTTPClient),
		requestorRef: requestor,
		authHeader:   opts.AuthHeader,
		authValue:    opts.AuthValue,
		lines:        opts.Lines,
		logger:       logger,
	}
}

// Fetch sends one request covering every distinct stop in req. On success every requested stop id
// is present in the result, possibly with no departures. Transport, protocol and parse
// failures return a nil Result and the error.
func (c *Client) Fetch(ctx context.Context, req Request) (Result, error) {
	req.StopIDs = uniqueIDs(req.StopIDs)
	if len(req.StopIDs) == 0 {
		c.logger.Debug("no stop ids to fetch")
		return Result{}, nil
	}
	if req.Endpoint == "" {
		return nil, fmt.Errorf("%w: no SIRI endpoint configured", fetch.ErrValidation)
	}

	var table netex.LineTable
	if req.LinesURL != "" && c.lines != nil {
		table = c.lines.Load(ctx, req.LinesURL, req.Scope)
	}

	body := siri.BuildStopMonitoringRequest(siri.StopMonitoringRequest{
		RequestorRef:      c.requestorRef,
		StopIDs:           req.StopIDs,
		MaximumStopVisits: req.LimitPerStop,
	})
	header := http.Header{}
	header.Set("Content-Type", "application/xml")
	header["datasetId"] = []string{req.DatasetID}
	if c.authHeader != "" && c.authValue != "" {
		header[c.authHeader] = []string{c.authValue}
	}

	c.logger.Debug("fetching departures", "endpoint", req.Endpoint, "stops", len(req.StopIDs), "limit", req.LimitPerStop)
	start := time.Now()
	data, err := c.http.Post(ctx, req.Endpoint, body, header)
	if err == nil {
		var sd *siri.ServiceDelivery
		sd, err = siri.DecodeServiceDelivery(data)
		if err == nil {
			metrics.ObserveSIRIRequest(nil, time.Since(start))
			return c.group(req, sd, table), nil
		}
	}
	metrics.ObserveSIRIRequest(err, time.Since(start))
	c.logger.Error("departures fetch failed", "endpoint", req.Endpoint, "stops", len(req.StopIDs), "error", err)
	return nil, err
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Client) group(req Request, sd *siri.ServiceDelivery, table netex.LineTable) Result {
	result := make(Result, len(req.StopIDs))
	for _, id := range req.StopIDs {
		result[id] = []siri.Departure{}
	}

	smd, ok := sd.StopMonitoring()
	if !ok {
		c.logger.Info("no StopMonitoringDelivery in SIRI response")
		return result
	}
	if smd.Failed() {
		reason := ""
		if smd.ErrorCondition != nil {
			if d := smd.ErrorCondition.Description.Value(); d != nil {
				reason = *d
			}
		}
		c.logger.Warn("SIRI producer reported a failed delivery", "reason", reason)
	}

	for i := range smd.MonitoredStopVisit {
		visit := &smd.MonitoredStopVisit[i]
		stopID := visit.StopRef()
		deps, requested := result[stopID]
		if !requested {
			c.logger.Warn("visit for unexpected or missing MonitoringRef", "monitoring_ref", stopID)
			metrics.IncVisitSkipped("unrequested")
			continue
		}
		if req.LimitPerStop > 0 && len(deps) >= req.LimitPerStop {
			metrics.IncVisitSkipped("capped")
			continue
		}
		dep, ok := visit.Departure()
		if !ok {
			metrics.IncVisitSkipped("incomplete")
			continue
		}
		if dep.LineRef != nil {
			if line := table.Get(*dep.LineRef); line != nil {
				dep.LineInfo = &siri.LineInfo{
					PublicCode:    line.PublicCode,
					TransportMode: line.TransportMode,
					Color:         line.Color,
					TextColor:     line.TextColor,
				}
			}
		}
		result[stopID] = append(deps, dep)
	}

	c.logger.Debug("processed departures", "stops", len(result), "visits", len(smd.MonitoredStopVisit))
	return result
}
