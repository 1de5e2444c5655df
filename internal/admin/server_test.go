package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"airborne-sim/internal/config"
	"airborne-sim/internal/logging"
	"airborne-sim/internal/sim"
	"airborne-sim/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	cfg := &config.AircraftConfig{
		Aircraft: config.Aircraft{
			Name:    "test-c172",
			Plugins: []string{"electrical", "fuel", "engine", "weightbalance", "flightmodel"},
		},
		Simulation: config.Simulation{TickRateHz: 60, MessageBudget: 100, MaxTicksPerFrame: 5},
		Physics: config.Physics{
			WingAreaSqm: 16.2, LiftCoefficient: 0.31, LiftSlopePerDeg: 0.1,
			DragCoefficient: 0.027, StallAngleDeg: 15, StallSpeedMps: 24,
		},
		Propeller: config.Propeller{
			DiameterM: 1.9, EfficiencyStatic: 0.5, EfficiencyCruise: 0.8,
			EfficiencyFloor: 0.3, BreakpointLow: 0.1, BreakpointHigh: 0.8,
		},
		Engine: config.Engine{
			MaxPowerW: 134000, MaxRPM: 2700, IdleRPM: 650, CrankingRPM: 300,
			StarterMinVoltage: 9, StarterCurrentA: 150, MaxFuelFlowGPH: 10, WarmupSeconds: 60,
		},
		Electrical: config.Electrical{
			Battery:    config.Battery{CapacityAh: 35, NominalVoltage: 12, InitialChargeRatio: 1},
			Alternator: config.Alternator{MaxCurrentA: 60, MinRPM: 800},
			Loads:      []config.BusLoad{{Name: "avionics", CurrentA: 8}},
		},
		Fuel: config.Fuel{
			Tanks:            []config.Tank{{Name: "left", CapacityGal: 28, UnusableGal: 1.5, ArmIn: 48}},
			DensityLbsPerGal: 6, LowWarningGal: 5, CriticalGal: 2,
		},
		WeightBalance: config.WeightBalance{
			EmptyWeightLbs: 1691, EmptyArmIn: 38.5, MaxGrossLbs: 2550,
			CGForwardIn: 35, CGAftIn: 47.3,
		},
	}
	simulator, err := sim.NewSimulator("flight-admin", cfg, nil, nil, logging.New(false))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	t.Cleanup(simulator.Shutdown)
	return NewServer(simulator), simulator
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var data []sim.SystemHealth
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(data) != 5 {
		t.Errorf("expected 5 systems, got %d: %+v", len(data), data)
	}
	if data[0].System != "electrical" || data[0].State != "running" {
		t.Errorf("unexpected first system: %+v", data[0])
	}
}

func TestHandleTelemetry(t *testing.T) {
	server, simulator := newTestServer(t)
	simulator.RunTicks(3)

	req := httptest.NewRequest(http.MethodGet, "/telemetry", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var row telemetry.FlightRow
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if row.FlightID != "flight-admin" {
		t.Errorf("flight id = %q", row.FlightID)
	}
	if row.SimTimeSec <= 0 {
		t.Errorf("sim time = %v, want > 0", row.SimTimeSec)
	}
}

func TestHandleAnalysisBeforeFailure(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/analysis", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 while flight in progress, got %v", w.Result().StatusCode)
	}
}

func TestHandleInject(t *testing.T) {
	server, simulator := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/inject?system=electrical&kind=alternator", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v: %s", w.Result().StatusCode, w.Body.String())
	}

	simulator.RunTicks(3)
	var failed bool
	for _, h := range simulator.Health() {
		if h.System == "electrical" && len(h.Failures) > 0 {
			failed = true
		}
	}
	if !failed {
		t.Error("injected alternator failure not reflected in health")
	}
}

func TestHandleInjectRejectsBadRequests(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/inject?system=electrical&kind=alternator", http.StatusMethodNotAllowed},
		{http.MethodPost, "/inject?system=electrical", http.StatusBadRequest},
		{http.MethodPost, "/inject?system=autopilot&kind=runaway", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if got := w.Result().StatusCode; got != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.target, got, tc.want)
		}
	}
}
