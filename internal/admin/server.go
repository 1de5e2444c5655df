// Package admin exposes a small HTTP API for inspecting and poking a
// running flight: health, live telemetry, the failure analysis, and
// failure injection for instructor use.
package admin

import (
	"encoding/json"
	"net/http"

	"airborne-sim/internal/sim"
)

type Server struct {
	Sim *sim.Simulator
	mux *http.ServeMux
}

func NewServer(simulator *sim.Simulator) *Server {
	s := &Server{Sim: simulator, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/telemetry", s.handleTelemetry)
	s.mux.HandleFunc("/analysis", s.handleAnalysis)
	s.mux.HandleFunc("/inject", s.handleInject)
}

// ServeHTTP makes the server mountable and testable without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sim.Health())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sim.TelemetrySnapshot())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a := s.Sim.Analysis()
	if a == nil {
		http.Error(w, "no failure analysis: flight still in progress", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	system := r.URL.Query().Get("system")
	kind := r.URL.Query().Get("kind")
	if system == "" || kind == "" {
		http.Error(w, "system and kind query parameters required", http.StatusBadRequest)
		return
	}
	if err := s.Sim.InjectFailure(system, kind); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"injected": system + "/" + kind})
}
