// Package web provides the HTTP status page and control API for the round-timer daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweeney/round-timer/internal/status"
	"github.com/sweeney/round-timer/internal/workout"
)

// Controller applies intents to the workout.
type Controller interface {
	// Dispatch applies the intent and reports whether anything changed.
	Dispatch(in workout.Intent) bool
}

// Server serves the status page and control API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	control    Controller
}

// New creates a Server that reads state from tracker and sends intents to
// control. A nil control makes the API read-only (intents return 503).
func New(addr string, tracker *status.Tracker, control Controller) *Server {
	s := &Server{tracker: tracker, control: control}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recovery)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/health", s.handleHealth)
	r.Post("/api/intents/{intent}", s.handleIntent)
	return r
}

// Handler returns the server's routes, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Phase:         string(snap.Workout.Phase),
		MQTTConnected: snap.MQTTConnected,
		UptimeSeconds: int64(snap.Uptime().Seconds()),
	})
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := workout.ParseIntent(chi.URLParam(r, "intent"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.control == nil {
		writeError(w, http.StatusServiceUnavailable, "control disabled")
		return
	}

	applied := s.control.Dispatch(intent)
	snap := s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, IntentResponse{
		Intent:  string(intent),
		Applied: applied,
		Workout: status.NewWorkoutJSON(snap.Workout),
	})
}
