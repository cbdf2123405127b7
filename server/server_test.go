package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/fetch"
	"github.com/theoremus-urban-solutions/siri-departures/lines"
	"github.com/theoremus-urban-solutions/siri-departures/monitor"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
)

const linesXML = `<PublicationDelivery xmlns="http://www.netex.org.uk/netex"><lines>
  <Line id="FR1:Line:C01742:"><PublicCode>A</PublicCode><Presentation><Colour>EB2132</Colour></Presentation></Line>
</lines></PublicationDelivery>`

type stubFetcher struct {
	result departures.Result
	err    error
}

func (f stubFetcher) Fetch(context.Context, departures.Request) (departures.Result, error) {
	return f.result, f.err
}

func ptr(s string) *string { return &s }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, fetcher monitor.Fetcher) (*httptest.Server, *monitor.Coordinator) {
	t.Helper()
	logger := quietLogger()

	path := filepath.Join(t.TempDir(), "lines.xml")
	require.NoError(t, os.WriteFile(path, []byte(linesXML), 0o644))
	cache := lines.NewCache(fetch.NewDownloader(nil, "", logger), 4, logger)
	_, err := cache.LoadTable(context.Background(), path, "idfm")
	require.NoError(t, err)

	coord := monitor.NewCoordinator(monitor.Options{
		Fetcher:  fetcher,
		Lines:    cache,
		LinesURL: path,
		Scope:    "idfm",
		Stops:    []monitor.Stop{{ID: "Q1", Name: "Gare", Limit: 2}, {ID: "Q2"}},
		Logger:   logger,
	})
	coord.SetCatalog([]netex.Stop{
		{ID: "FR:Quay:1", Name: "Gare Centrale", NormalizedName: "garecentrale", NormalizedID: "fr:quay:1"},
		{ID: "FR:Quay:2", Name: "Mairie", NormalizedName: "mairie", NormalizedID: "fr:quay:2"},
	})

	srv := httptest.NewServer(New(coord, 0, logger).Routes())
	t.Cleanup(srv.Close)
	return srv, coord
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
}

func sampleResult() departures.Result {
	return departures.Result{
		"Q1": {
			{LineRef: ptr("FR1:Line:C01742:"), ExpectedDepartureTime: ptr("2024-05-01T08:37:00Z")},
			{ExpectedDepartureTime: ptr("2024-05-01T08:45:00Z")},
			{ExpectedDepartureTime: ptr("2024-05-01T08:55:00Z")},
		},
		"Q2": {},
	}
}

func TestHealth(t *testing.T) {
	srv, coord := newTestServer(t, stubFetcher{result: sampleResult()})

	var before healthResponse
	getJSON(t, srv.URL+"/api/health", http.StatusOK, &before)
	assert.Equal(t, "ok", before.Status)
	assert.Equal(t, 2, before.CatalogStops)
	assert.Equal(t, 2, before.Monitored)
	assert.Nil(t, before.LastRefresh)

	require.NoError(t, coord.Refresh(context.Background()))
	var after healthResponse
	getJSON(t, srv.URL+"/api/health", http.StatusOK, &after)
	assert.NotNil(t, after.LastRefresh)
}

func TestHealth_Degraded(t *testing.T) {
	srv, coord := newTestServer(t, stubFetcher{err: fetch.ErrProtocol})
	require.Error(t, coord.Refresh(context.Background()))

	var resp healthResponse
	getJSON(t, srv.URL+"/api/health", http.StatusOK, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Contains(t, resp.LastError, "protocol")
}

func TestSearchStops(t *testing.T) {
	srv, _ := newTestServer(t, stubFetcher{})

	tests := []struct {
		name   string
		query  string
		status int
		ids    []string
	}{
		{"accented and spaced", "?q=Gare%20Centrale", http.StatusOK, []string{"FR:Quay:1"}},
		{"by id", "?q=quay", http.StatusOK, []string{"FR:Quay:1", "FR:Quay:2"}},
		{"no match", "?q=nowhere", http.StatusOK, []string{}},
		{"empty", "?q=", http.StatusBadRequest, nil},
		{"missing", "", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.status != http.StatusOK {
				getJSON(t, srv.URL+"/api/stops"+tt.query, tt.status, nil)
				return
			}
			var resp stopsResponse
			getJSON(t, srv.URL+"/api/stops"+tt.query, tt.status, &resp)
			ids := []string{}
			for _, s := range resp.Stops {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), resp.Count)
		})
	}
}

func TestDepartures(t *testing.T) {
	srv, coord := newTestServer(t, stubFetcher{result: sampleResult()})
	require.NoError(t, coord.Refresh(context.Background()))

	var all departuresResponse
	getJSON(t, srv.URL+"/api/departures", http.StatusOK, &all)
	assert.True(t, all.Available)
	assert.Len(t, all.Departures["Q1"], 2)
	require.Contains(t, all.Departures, "Q2")
	assert.Empty(t, all.Departures["Q2"])

	var one departuresResponse
	getJSON(t, srv.URL+"/api/departures?stop=Q1", http.StatusOK, &one)
	assert.Len(t, one.Departures, 1)
	assert.Equal(t, "2024-05-01T08:37:00Z", *one.Departures["Q1"][0].ExpectedDepartureTime)

	getJSON(t, srv.URL+"/api/departures?stop=nope", http.StatusNotFound, nil)
}

func TestBoard(t *testing.T) {
	srv, coord := newTestServer(t, stubFetcher{result: sampleResult()})
	require.NoError(t, coord.Refresh(context.Background()))

	var board monitor.Board
	getJSON(t, srv.URL+"/api/stops/Q1/board", http.StatusOK, &board)
	assert.Equal(t, "2024-05-01T08:37:00Z", board.State)
	assert.Equal(t, "Gare", board.Name)
	assert.True(t, board.Available)

	getJSON(t, srv.URL+"/api/stops/Q2/board", http.StatusOK, &board)
	assert.Equal(t, monitor.NoDepartures, board.State)

	getJSON(t, srv.URL+"/api/stops/unknown/board", http.StatusNotFound, nil)
}

func TestLine(t *testing.T) {
	srv, _ := newTestServer(t, stubFetcher{})

	for _, ref := range []string{"FR1:Line:C01742:", "C01742"} {
		var line netex.Line
		getJSON(t, srv.URL+"/api/lines/"+ref, http.StatusOK, &line)
		require.NotNil(t, line.PublicCode)
		assert.Equal(t, "A", *line.PublicCode)
		require.NotNil(t, line.Color)
		assert.Equal(t, "#EB2132", *line.Color)
	}
	getJSON(t, srv.URL+"/api/lines/NOPE", http.StatusNotFound, nil)
}

func TestStop(t *testing.T) {
	srv, _ := newTestServer(t, stubFetcher{})

	var stop netex.Stop
	getJSON(t, srv.URL+"/api/stops/FR:Quay:2", http.StatusOK, &stop)
	assert.Equal(t, "Mairie", stop.Name)

	getJSON(t, srv.URL+"/api/stops/FR:Quay:9", http.StatusNotFound, nil)
}

func TestReloadLines(t *testing.T) {
	srv, _ := newTestServer(t, stubFetcher{})

	resp, err := http.Post(srv.URL+"/api/reload/lines", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body reloadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Lines)

	coord := monitor.NewCoordinator(monitor.Options{Fetcher: stubFetcher{}, Logger: quietLogger()})
	bare := httptest.NewServer(New(coord, 0, quietLogger()).Routes())
	defer bare.Close()
	resp2, err := http.Post(bare.URL+"/api/reload/lines", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestTripUpdates(t *testing.T) {
	srv, coord := newTestServer(t, stubFetcher{result: sampleResult()})
	require.NoError(t, coord.Refresh(context.Background()))

	resp, err := http.Get(srv.URL + "/api/gtfsrt/trip-updates.pb")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-protobuf", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var feed gtfsrtpb.FeedMessage
	require.NoError(t, proto.Unmarshal(data, &feed))
	assert.Len(t, feed.GetEntity(), 2)
	assert.EqualValues(t, coord.Snapshot().UpdatedAt.Unix(), feed.GetHeader().GetTimestamp())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, stubFetcher{})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	coord := monitor.NewCoordinator(monitor.Options{Fetcher: stubFetcher{}, Logger: quietLogger()})
	s := New(coord, 0, quietLogger())
	s.http.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.ListenAndServe(ctx))
}
