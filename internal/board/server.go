package board

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fentz26/stageboard/internal/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides the HTTP and WebSocket API for the board.
type Server struct {
	service  *Service
	addr     string
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	server   *http.Server
}

// NewServer creates a new HTTP server. gatherer backs the /metrics
// endpoint and may be nil to use the default.
func NewServer(service *Service, addr string, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		service:  service,
		addr:     addr,
		logger:   logger,
		gatherer: gatherer,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/schedule", s.handleSchedule)
	mux.HandleFunc("/acts/", s.handleActCommand)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/clock/override", s.handleClockOverride)
	mux.HandleFunc("/brightness", s.handleBrightness)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /ws connections are long-lived.
	}

	s.logger.Info("starting stageboard server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleSchedule serves the current full snapshot.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Snapshot())
}

type recordRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// handleActCommand handles POST /acts/{name}/{start|end|clear}.
func (s *Server) handleActCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// r.URL.Path arrives percent-decoded; no further unescaping.
	path := strings.TrimPrefix(r.URL.Path, "/acts/")
	slash := strings.LastIndex(path, "/")
	if slash <= 0 {
		http.Error(w, "act name and command required", http.StatusBadRequest)
		return
	}
	name := path[:slash]
	command := path[slash+1:]

	// Commands default to "now"; an explicit time may be submitted for
	// corrections recorded after the fact. An empty body is fine.
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	at := s.service.clk.Now()
	if req.At != nil {
		at = *req.At
	}

	var (
		act any
		err error
	)
	switch command {
	case "start":
		act, err = s.service.RecordStart(r.Context(), name, at)
	case "end":
		act, err = s.service.RecordEnd(r.Context(), name, at)
	case "clear":
		act, err = s.service.Clear(r.Context(), name)
	default:
		http.Error(w, "unknown command", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), commandStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, act)
}

// handleReset handles POST /reset, clearing every act.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.service.ResetAll(r.Context())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"reset"}`))
}

type clockOverrideRequest struct {
	Time time.Time `json:"time"`
}

// handleClockOverride sets (POST) or clears (DELETE) the process-wide time
// override.
func (s *Server) handleClockOverride(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req clockOverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Time.IsZero() {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.service.SetClockOverride(req.Time)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"override set"}`))
	case http.MethodDelete:
		s.service.ClearClockOverride()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"override cleared"}`))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleBrightness serves the latest Art-Net reading.
func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"value": s.service.Brightness()})
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, schedule.ErrActNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrEndBeforeStart), errors.Is(err, schedule.ErrStartAfterEnd):
		return http.StatusBadRequest
	case errors.Is(err, ErrViewOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
