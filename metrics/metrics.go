// Package metrics exposes Prometheus collectors for document loads, the line cache, SIRI
// requests and the refresh loop. Recorders are no-ops until Init has been called.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
)

const (
	metricPrefix = "siri_departures_"

	resultSuccess = "success"
	resultError   = "error"

	// KindStops and KindLines label document loads.
	KindStops = "stops"
	KindLines = "lines"
)

var (
	registerOnce sync.Once

	documentLoads       *prometheus.CounterVec
	documentLoadLatency *prometheus.HistogramVec
	catalogStops        prometheus.Gauge

	lineCacheLookups *prometheus.CounterVec

	siriRequests      *prometheus.CounterVec
	siriLatency       prometheus.Histogram
	siriVisitsSkipped *prometheus.CounterVec

	refreshTotal *prometheus.CounterVec
)

// Init registers every collector with reg, or the default registerer when reg is nil.
// Only the first call has any effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		documentLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "document_loads_total",
				Help: "NeTEx document loads by kind and result",
			},
			[]string{"kind", "result"},
		)
		documentLoadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "document_load_seconds",
				Help:    "NeTEx download and parse time in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		)
		catalogStops = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "catalog_stops",
				Help: "Number of stops in the last loaded catalog",
			},
		)
		lineCacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "line_cache_lookups_total",
				Help: "Line repository cache lookups by outcome",
			},
			[]string{"outcome"},
		)
		siriRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "siri_requests_total",
				Help: "SIRI StopMonitoring requests by result",
			},
			[]string{"result"},
		)
		siriLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "siri_request_seconds",
				Help:    "SIRI StopMonitoring round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		siriVisitsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "siri_visits_skipped_total",
				Help: "Monitored stop visits left out of results by reason",
			},
			[]string{"reason"},
		)
		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_total",
				Help: "Departure refresh cycles by result",
			},
			[]string{"result"},
		)

		reg.MustRegister(
			documentLoads,
			documentLoadLatency,
			catalogStops,
			lineCacheLookups,
			siriRequests,
			siriLatency,
			siriVisitsSkipped,
			refreshTotal,
		)
	})
}

// Result maps an error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, fetch.ErrTransport):
		return "transport"
	case errors.Is(err, fetch.ErrProtocol):
		return "protocol"
	case errors.Is(err, fetch.ErrParse):
		return "parse"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return resultError
	}
}

// ObserveDocumentLoad records one stop or line document load.
func ObserveDocumentLoad(kind string, err error, duration time.Duration) {
	if documentLoads != nil {
		documentLoads.WithLabelValues(kind, Result(err)).Inc()
	}
	if documentLoadLatency != nil {
		documentLoadLatency.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// SetCatalogStops records the size of the current stop catalog.
func SetCatalogStops(n int) {
	if catalogStops != nil {
		catalogStops.Set(float64(n))
	}
}

// IncLineCache counts a line cache lookup; outcome is "hit", "miss" or "reload".
func IncLineCache(outcome string) {
	if lineCacheLookups != nil {
		lineCacheLookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveSIRIRequest records one StopMonitoring round trip.
func ObserveSIRIRequest(err error, duration time.Duration) {
	if siriRequests != nil {
		siriRequests.WithLabelValues(Result(err)).Inc()
	}
	if siriLatency != nil {
		siriLatency.Observe(duration.Seconds())
	}
}

// IncVisitSkipped counts a visit dropped while grouping a response.
func IncVisitSkipped(reason string) {
	if siriVisitsSkipped != nil {
		siriVisitsSkipped.WithLabelValues(reason).Inc()
	}
}

// IncRefresh counts one refresh cycle.
func IncRefresh(err error) {
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(Result(err)).Inc()
	}
}
