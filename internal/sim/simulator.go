// Package sim drives the flight simulation loop: it loads the subsystem
// plugins, feeds them cockpit inputs, pumps the message queue, and fans
// the resulting telemetry out to writers.
package sim

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"airborne-sim/internal/analysis"
	"airborne-sim/internal/bus"
	"airborne-sim/internal/config"
	"airborne-sim/internal/physics"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/scenario"
	"airborne-sim/internal/systems"
	"airborne-sim/internal/systems/electrical"
	"airborne-sim/internal/systems/engine"
	"airborne-sim/internal/systems/fuel"
	"airborne-sim/internal/systems/weightbalance"
	"airborne-sim/internal/telemetry"
)

// TelemetryWriter receives one flight row per tick.
type TelemetryWriter interface {
	Write(row telemetry.FlightRow) error
}

// batchWriter is optionally implemented by writers that prefer batches.
type batchWriter interface {
	WriteBatch(rows []telemetry.FlightRow) error
}

// AlertWriter is optionally implemented by writers that record warning
// and failure rows.
type AlertWriter interface {
	WriteAlert(row telemetry.AlertRow) error
}

// ReportWriter is optionally implemented by writers that record the
// failure analysis produced at the end of a failed flight.
type ReportWriter interface {
	WriteReport(a analysis.FailureAnalysis) error
}

// InputSource supplies the cockpit state for each tick.
type InputSource interface {
	Controls(simTime float64) systems.ControlInputs
}

// SystemHealth summarizes one loaded plugin for the admin surface.
type SystemHealth struct {
	System   string   `json:"system"`
	State    string   `json:"state"`
	Warnings []string `json:"warnings,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

const simulatorOwner = "simulator"

// Simulator owns the plugin runtime for one flight. All mutation
// happens on the tick path under mu; accessors take copies.
type Simulator struct {
	flightID string
	cfg      *config.AircraftConfig
	log      *slog.Logger

	events  *bus.EventBus
	queue   *bus.MessageQueue
	manager *plugin.Manager

	writer TelemetryWriter
	inputs InputSource

	mu      sync.Mutex
	simTime float64
	tick    uint64

	aircraft   physics.AircraftState
	engine     systems.EngineState
	electrical systems.ElectricalState
	fuel       systems.FuelState
	wb         systems.WeightBalanceState
	controls   systems.ControlInputs

	analysisResult *analysis.FailureAnalysis
	reportWritten  bool
	pendingAlerts  []telemetry.AlertRow

	scenario *scenario.Runner
}

// DefaultRegistry returns a registry holding every built-in subsystem
// plugin.
func DefaultRegistry() (*plugin.Registry, error) {
	r := plugin.NewRegistry()
	for _, f := range []plugin.Factory{
		electrical.Factory,
		fuel.Factory,
		engine.Factory,
		weightbalance.Factory,
		physics.Factory,
		analysis.Factory,
	} {
		p := f()
		if err := r.Register(p.Metadata(), f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewSimulator wires the buses, loads the configured plugins, and
// attaches the simulator's own state-cache subscriptions. A load
// failure tears everything down; there is no partially started flight.
func NewSimulator(flightID string, cfg *config.AircraftConfig, writer TelemetryWriter, inputs InputSource, log *slog.Logger) (*Simulator, error) {
	if flightID == "" {
		flightID = uuid.NewString()
	}
	if log == nil {
		log = slog.Default()
	}

	registry, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	events := bus.NewEventBus(log)
	queue := bus.NewMessageQueue(cfg.Simulation.MessageBudget, log)
	manager := plugin.NewManager(registry, &plugin.Context{
		Events:   events,
		Messages: queue,
		Config:   cfg,
		Log:      log,
	})

	s := &Simulator{
		flightID: flightID,
		cfg:      cfg,
		log:      log,
		events:   events,
		queue:    queue,
		manager:  manager,
		writer:   writer,
		inputs:   inputs,
	}
	if err := s.subscribe(); err != nil {
		return nil, err
	}
	if err := manager.LoadAll(cfg.Aircraft.Plugins); err != nil {
		return nil, fmt.Errorf("load plugins: %w", err)
	}
	log.Info("simulator ready",
		"flight", flightID, "aircraft", cfg.Aircraft.Name, "plugins", manager.Order())
	return s, nil
}

// subscribe attaches the simulator's own listeners: snapshot caches for
// telemetry rows and alert capture for the alert writer.
func (s *Simulator) subscribe() error {
	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicPositionUpdated: s.onPosition,
		bus.TopicEngineState:     s.onEngineState,
		bus.TopicElectricalState: s.onElectricalState,
		bus.TopicFuelState:       s.onFuelState,
		bus.TopicWeightBalance:   s.onWeightBalance,
		bus.TopicFailureAnalysis: s.onFailureAnalysis,
	}
	for topic, h := range subs {
		if err := s.queue.SubscribeTopic(topic, simulatorOwner, h); err != nil {
			return err
		}
	}
	if _, err := s.events.Subscribe(bus.EventSystemWarning, simulatorOwner, s.onAlert, bus.PriorityLow); err != nil {
		return err
	}
	if _, err := s.events.Subscribe(bus.EventSystemFailure, simulatorOwner, s.onAlert, bus.PriorityLow); err != nil {
		return err
	}
	return nil
}

func (s *Simulator) onPosition(m bus.Message) error {
	if st, ok := m.Payload.(physics.AircraftState); ok {
		s.aircraft = st
	}
	return nil
}

func (s *Simulator) onEngineState(m bus.Message) error {
	if st, ok := m.Payload.(systems.EngineState); ok {
		s.engine = st
	}
	return nil
}

func (s *Simulator) onElectricalState(m bus.Message) error {
	if st, ok := m.Payload.(systems.ElectricalState); ok {
		s.electrical = st
	}
	return nil
}

func (s *Simulator) onFuelState(m bus.Message) error {
	if st, ok := m.Payload.(systems.FuelState); ok {
		s.fuel = st
	}
	return nil
}

func (s *Simulator) onWeightBalance(m bus.Message) error {
	if st, ok := m.Payload.(systems.WeightBalanceState); ok {
		s.wb = st
	}
	return nil
}

func (s *Simulator) onFailureAnalysis(m bus.Message) error {
	if a, ok := m.Payload.(analysis.FailureAnalysis); ok {
		s.analysisResult = &a
	}
	return nil
}

func (s *Simulator) onAlert(e bus.Event) error {
	row := telemetry.AlertRow{
		FlightID:   s.flightID,
		SimTimeSec: s.simTime,
		Timestamp:  e.Timestamp(),
	}
	switch a := e.(type) {
	case bus.WarningEvent:
		row.System, row.AlertID, row.Kind = a.System, a.ID, telemetry.AlertWarning
	case bus.FailureEvent:
		row.System, row.AlertID, row.Kind = a.System, a.ID, telemetry.AlertFailure
	default:
		return nil
	}
	s.pendingAlerts = append(s.pendingAlerts, row)
	return nil
}

// Step advances the simulation by one fixed timestep.
func (s *Simulator) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(dt)
}

// SetScenario attaches a training scenario whose failure injections
// fire as sim time passes.
func (s *Simulator) SetScenario(sc *scenario.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario = scenario.NewRunner(sc)
}

// step is one tick: cockpit inputs in, plugin updates in dependency
// order, message delivery up to the budget, telemetry out.
func (s *Simulator) step(dt float64) {
	if s.scenario != nil {
		for _, in := range s.scenario.Due(s.simTime) {
			if err := s.inject(in.System, in.Kind); err != nil {
				s.log.Error("scenario injection failed",
					"system", in.System, "kind", in.Kind, "err", err)
			}
		}
	}
	if s.inputs != nil {
		s.controls = s.inputs.Controls(s.simTime)
	}
	s.queue.Publish(bus.Message{
		Sender:   simulatorOwner,
		Topic:    bus.TopicControlInput,
		Priority: bus.PriorityHigh,
		Payload:  s.controls,
	})

	s.manager.UpdateAll(dt)
	s.queue.ProcessTick()

	s.simTime += dt
	s.tick++
	s.emit()
}

// emit writes the telemetry row and flushes captured alerts and, once,
// the failure analysis.
func (s *Simulator) emit() {
	if s.writer == nil {
		return
	}
	row := s.row()
	if bw, ok := s.writer.(batchWriter); ok {
		if err := bw.WriteBatch([]telemetry.FlightRow{row}); err != nil {
			s.log.Error("telemetry batch write failed", "err", err)
		}
	} else if err := s.writer.Write(row); err != nil {
		s.log.Error("telemetry write failed", "err", err)
	}

	if aw, ok := s.writer.(AlertWriter); ok {
		for _, a := range s.pendingAlerts {
			if err := aw.WriteAlert(a); err != nil {
				s.log.Error("alert write failed", "alert", a.AlertID, "err", err)
			}
		}
	}
	s.pendingAlerts = s.pendingAlerts[:0]

	if s.analysisResult != nil && !s.reportWritten {
		if rw, ok := s.writer.(ReportWriter); ok {
			if err := rw.WriteReport(*s.analysisResult); err != nil {
				s.log.Error("report write failed", "err", err)
			}
		}
		s.reportWritten = true
	}
}

// row flattens the cached snapshots into one telemetry row.
func (s *Simulator) row() telemetry.FlightRow {
	var warnings, failures []string
	for _, w := range [][]string{s.engine.Warnings, s.electrical.Warnings, s.fuel.Warnings, s.wb.Warnings} {
		warnings = append(warnings, w...)
	}
	for _, f := range [][]string{s.engine.Failures, s.electrical.Failures, s.fuel.Failures, s.wb.Failures} {
		failures = append(failures, f...)
	}

	return telemetry.FlightRow{
		FlightID:         s.flightID,
		Aircraft:         s.cfg.Aircraft.Name,
		SimTimeSec:       s.simTime,
		Tick:             s.tick,
		PosEastM:         s.aircraft.Position.X,
		PosNorthM:        s.aircraft.Position.Z,
		AltitudeM:        s.aircraft.Position.Y,
		AltitudeAGLM:     s.aircraft.AltitudeAGLM,
		AirspeedKt:       s.aircraft.AirspeedMps * physics.MpsToKnots,
		VerticalSpeedFpm: s.aircraft.VerticalSpeedMps * physics.MpsToFpm,
		HeadingDeg:       s.aircraft.HeadingDeg,
		PitchDeg:         s.aircraft.PitchDeg,
		RollDeg:          s.aircraft.RollDeg,
		OnGround:         s.aircraft.OnGround,
		Stalled:          s.aircraft.Stalled,
		EngineRunning:    s.engine.Running,
		RPM:              s.engine.RPM,
		FuelFlowGPH:      s.engine.FuelFlowGPH,
		OilTempC:         s.engine.OilTempC,
		CHTDegC:          s.engine.CHTDegC,
		BusVoltage:       s.electrical.BusVoltage,
		StateOfCharge:    s.electrical.StateOfCharge,
		FuelUsableGal:    s.fuel.UsableGal,
		TotalWeightLbs:   s.wb.TotalWeightLbs,
		CGIn:             s.wb.CGIn,
		Warnings:         strings.Join(warnings, ","),
		Failures:         strings.Join(failures, ","),
		Timestamp:        time.Now().UTC(),
	}
}

// RunTicks advances n fixed timesteps back to back, for scripted runs
// and tests.
func (s *Simulator) RunTicks(n int) {
	dt := 1.0 / s.cfg.Simulation.TickRateHz
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.step(dt)
	}
}

// Shutdown unloads every plugin, consumers before providers.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.UnloadAll()
}

// InjectFailure forwards a named fault to a loaded plugin. Plugins
// without failure modes reject the call.
func (s *Simulator) InjectFailure(system, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inject(system, kind)
}

func (s *Simulator) inject(system, kind string) error {
	p, ok := s.manager.Get(system)
	if !ok {
		return fmt.Errorf("inject: plugin %q not loaded", system)
	}
	inj, ok := p.(interface{ Inject(kind string) error })
	if !ok {
		return fmt.Errorf("inject: plugin %q has no failure modes", system)
	}
	s.log.Warn("failure injected", "system", system, "kind", kind)
	return inj.Inject(kind)
}

// FlightID returns the flight identifier tagged onto every row.
func (s *Simulator) FlightID() string { return s.flightID }

// Config returns the aircraft configuration the flight was loaded with.
func (s *Simulator) Config() *config.AircraftConfig { return s.cfg }

// SimTime reports the simulated seconds elapsed.
func (s *Simulator) SimTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simTime
}

// TelemetrySnapshot returns the latest flight row without advancing the
// simulation.
func (s *Simulator) TelemetrySnapshot() telemetry.FlightRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row()
}

// Analysis returns the failure analysis, or nil while the flight is
// still going.
func (s *Simulator) Analysis() *analysis.FailureAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysisResult
}

// Health summarizes every loaded plugin with its active warnings and
// failures.
func (s *Simulator) Health() []SystemHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SystemHealth, 0, len(s.manager.Order()))
	for _, name := range s.manager.Order() {
		h := SystemHealth{System: name, State: string(s.manager.StateOf(name))}
		switch name {
		case engine.PluginName:
			h.Warnings, h.Failures = s.engine.Warnings, s.engine.Failures
		case electrical.PluginName:
			h.Warnings, h.Failures = s.electrical.Warnings, s.electrical.Failures
		case fuel.PluginName:
			h.Warnings, h.Failures = s.fuel.Warnings, s.fuel.Failures
		case weightbalance.PluginName:
			h.Warnings, h.Failures = s.wb.Warnings, s.wb.Failures
		}
		out = append(out, h)
	}
	return out
}
