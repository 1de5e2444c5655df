package analysis

import (
	"fmt"

	"github.com/google/uuid"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/physics"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "analyzer"

// Impacts slower than this are landings, not accidents.
const accidentImpactMps = 2.0

// Plugin runs the failure analyzer alongside the simulation. It shadows
// every published snapshot, freezes the aircraft at failure onset, and
// produces the analysis when the flight meets the ground.
type Plugin struct {
	ctx      *plugin.Context
	analyzer *Analyzer
	simTime  float64

	aircraft   physics.AircraftState
	engine     systems.EngineState
	electrical systems.ElectricalState
	fuel       systems.FuelState
	inputs     systems.ControlInputs

	failureSeen bool
	failureSnap FailureSnapshot
}

func Factory() plugin.Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Dependencies:   []string{"flight"},
		Optional:       true,
		UpdatePriority: 60,
	}
}

func (p *Plugin) Initialize(ctx *plugin.Context) error {
	p.ctx = ctx
	p.analyzer = NewAnalyzer(uuid.NewString())

	if _, err := ctx.Events.Subscribe(bus.EventSystemWarning, PluginName, p.onWarning, bus.PriorityLow); err != nil {
		return err
	}
	if _, err := ctx.Events.Subscribe(bus.EventSystemFailure, PluginName, p.onFailure, bus.PriorityLow); err != nil {
		return err
	}

	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicControlInput:    p.onControlInput,
		bus.TopicPositionUpdated: p.onPosition,
		bus.TopicEngineState:     p.onEngineState,
		bus.TopicElectricalState: p.onElectricalState,
		bus.TopicFuelState:       p.onFuelState,
		bus.TopicTerrainContact:  p.onTerrainContact,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("analyzer: subscribe %s: %w", topic, err)
		}
	}
	return nil
}

func (p *Plugin) onWarning(e bus.Event) error {
	if w, ok := e.(bus.WarningEvent); ok {
		p.analyzer.RecordWarning(p.simTime, w.System, w.ID)
	}
	return nil
}

// onFailure freezes the aircraft at the first subsystem failure. Later
// failures still land on the timeline.
func (p *Plugin) onFailure(e bus.Event) error {
	f, ok := e.(bus.FailureEvent)
	if !ok {
		return nil
	}
	p.analyzer.RecordFailure(p.simTime, f.System, f.ID)
	if !p.failureSeen {
		p.failureSeen = true
		p.failureSnap = p.snapshot()
	}
	return nil
}

func (p *Plugin) onControlInput(m bus.Message) error {
	if in, ok := m.Payload.(systems.ControlInputs); ok {
		p.inputs = in
	}
	return nil
}

func (p *Plugin) onPosition(m bus.Message) error {
	if s, ok := m.Payload.(physics.AircraftState); ok {
		p.aircraft = s
	}
	return nil
}

func (p *Plugin) onEngineState(m bus.Message) error {
	if s, ok := m.Payload.(systems.EngineState); ok {
		p.engine = s
	}
	return nil
}

func (p *Plugin) onElectricalState(m bus.Message) error {
	if s, ok := m.Payload.(systems.ElectricalState); ok {
		p.electrical = s
	}
	return nil
}

func (p *Plugin) onFuelState(m bus.Message) error {
	if s, ok := m.Payload.(systems.FuelState); ok {
		p.fuel = s
	}
	return nil
}

// onTerrainContact completes the analysis when a failed flight, or any
// flight arriving hard, meets the ground.
func (p *Plugin) onTerrainContact(m bus.Message) error {
	contact, ok := m.Payload.(physics.TerrainContact)
	if !ok || !contact.Contact {
		return nil
	}
	if !p.failureSeen && contact.ImpactSpeedMps < accidentImpactMps {
		return nil
	}
	if p.analyzer.State() != StateRecording {
		return nil
	}

	impact := p.snapshot()
	// The flight model zeroes vertical speed on ground clamp; the
	// contact message carries the speed that was absorbed.
	impact.VerticalSpeedFpm = -contact.ImpactSpeedMps * physics.MpsToFpm

	if !p.failureSeen {
		p.failureSnap = impact
	}
	result, err := p.analyzer.Analyze(p.failureSnap, impact)
	if err != nil {
		return err
	}

	p.ctx.Messages.Publish(bus.Message{
		Sender:   PluginName,
		Topic:    bus.TopicFailureAnalysis,
		Priority: bus.PriorityHigh,
		Payload:  result,
	})
	p.ctx.Log.Info("flight failure analyzed",
		"flight", result.FlightID, "class", string(result.Class), "severity", result.Severity.String(),
		"impact_g", result.ImpactG)
	return nil
}

func (p *Plugin) snapshot() FailureSnapshot {
	return SnapshotFrom(p.simTime, p.aircraft, p.engine, p.electrical, p.fuel, p.inputs)
}

func (p *Plugin) Update(dt float64) { p.simTime += dt }

func (p *Plugin) Shutdown() {}
