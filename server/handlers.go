package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/theoremus-urban-solutions/siri-departures/catalog"
	"github.com/theoremus-urban-solutions/siri-departures/departures"
	"github.com/theoremus-urban-solutions/siri-departures/gtfsrt"
	"github.com/theoremus-urban-solutions/siri-departures/monitor"
	"github.com/theoremus-urban-solutions/siri-departures/netex"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status       string     `json:"status"`
	CatalogStops int        `json:"catalog_stops"`
	Monitored    int        `json:"monitored_stops"`
	LastRefresh  *time.Time `json:"last_refresh,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

type stopsResponse struct {
	Query string       `json:"query"`
	Count int          `json:"count"`
	Stops []netex.Stop `json:"stops"`
}

type reloadResponse struct {
	Lines int `json:"lines"`
}

type departuresResponse struct {
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
	Available  bool              `json:"available"`
	Error      string            `json:"error,omitempty"`
	Departures departures.Result `json:"departures"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	resp := healthResponse{
		Status:       "ok",
		CatalogStops: len(s.coord.Catalog()),
		Monitored:    len(s.coord.Stops()),
	}
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt
		resp.LastRefresh = &at
	}
	if snap.Err != nil {
		resp.Status = "degraded"
		resp.LastError = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchStops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	found := catalog.Find(s.coord.Catalog(), q)
	if found == nil {
		found = []netex.Stop{}
	}
	writeJSON(w, http.StatusOK, stopsResponse{Query: q, Count: len(found), Stops: found})
}

func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	resp := departuresResponse{
		Available:  snap.Err == nil && snap.Departures != nil,
		Departures: snap.Departures,
	}
	if resp.Departures == nil {
		resp.Departures = departures.Result{}
	}
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt
		resp.UpdatedAt = &at
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}

	if stop := r.URL.Query().Get("stop"); stop != "" {
		deps, ok := snap.Departures[stop]
		if !ok {
			writeError(w, http.StatusNotFound, "stop not monitored")
			return
		}
		resp.Departures = departures.Result{stop: deps}
		resp.Available = snap.Available(stop)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	stop, ok := s.coord.Stop(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "stop not in catalog")
		return
	}
	writeJSON(w, http.StatusOK, stop)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, ok := s.coord.Board(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "stop not monitored")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	line, ok := s.coord.Line(chi.URLParam(r, "ref"))
	if !ok {
		writeError(w, http.StatusNotFound, "line not found")
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleReloadLines(w http.ResponseWriter, r *http.Request) {
	n, err := s.coord.ReloadLines(r.Context())
	switch {
	case errors.Is(err, monitor.ErrNoLinesCatalog):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, "line catalog reload failed")
	default:
		writeJSON(w, http.StatusOK, reloadResponse{Lines: n})
	}
}

func (s *Server) handleTripUpdates(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	at := snap.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	data, err := gtfsrt.MarshalTripUpdates(snap.Departures, at)
	if err != nil {
		s.logger.Error("gtfs-rt export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(data)
}
