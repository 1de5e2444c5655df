package engine

import (
	"fmt"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/physics"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "engine"

// Plugin adapts the engine to the plugin runtime. It consumes the
// electrical and fuel snapshots published by its dependencies.
type Plugin struct {
	sys *System
	ctx *plugin.Context

	inputs     systems.ControlInputs
	busVoltage float64
	fuelOK     bool
	onGround   bool

	prev systems.EngineState
}

// Factory registers with the plugin registry. The aircraft spawns on
// the ground; position updates take over from the first tick.
func Factory() plugin.Plugin { return &Plugin{sys: New(), onGround: true} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Provides:       []string{"engine"},
		Dependencies:   []string{"electrical", "fuel"},
		UpdatePriority: 30,
	}
}

func (p *Plugin) Initialize(ctx *plugin.Context) error {
	p.ctx = ctx
	if err := p.sys.Initialize(ctx.Config); err != nil {
		return err
	}
	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicControlInput:    p.onControlInput,
		bus.TopicElectricalState: p.onElectricalState,
		bus.TopicFuelState:       p.onFuelState,
		bus.TopicPositionUpdated: p.onPosition,
		bus.TopicEngineRepair:    p.onRepair,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("engine: subscribe %s: %w", topic, err)
		}
	}
	return nil
}

func (p *Plugin) onControlInput(m bus.Message) error {
	if in, ok := m.Payload.(systems.ControlInputs); ok {
		p.inputs = in
	}
	return nil
}

func (p *Plugin) onElectricalState(m bus.Message) error {
	if es, ok := m.Payload.(systems.ElectricalState); ok {
		p.busVoltage = es.BusVoltage
	}
	return nil
}

func (p *Plugin) onFuelState(m bus.Message) error {
	fs, ok := m.Payload.(systems.FuelState)
	if !ok {
		return nil
	}
	p.fuelOK = fs.Selector != systems.SelectorOff && fs.UsableGal > 0 && len(fs.Failures) == 0
	return nil
}

func (p *Plugin) onPosition(m bus.Message) error {
	if s, ok := m.Payload.(physics.AircraftState); ok {
		p.onGround = s.OnGround
	}
	return nil
}

func (p *Plugin) onRepair(m bus.Message) error {
	if !p.onGround {
		p.ctx.Log.Warn("engine repair rejected in flight")
		return nil
	}
	p.sys.Repair()
	p.ctx.Log.Info("engine repaired")
	return nil
}

func (p *Plugin) Update(dt float64) {
	p.sys.Update(dt, p.inputs, p.fuelOK, p.busVoltage)
	snap := p.sys.Snapshot()

	prio := bus.PriorityNormal
	if len(snap.Failures) > 0 {
		prio = bus.PriorityCritical
	}
	p.ctx.Messages.Publish(bus.Message{
		Sender:   PluginName,
		Topic:    bus.TopicEngineState,
		Priority: prio,
		Payload:  snap,
	})
	systems.PublishAlerts(p.ctx.Events, PluginName, p.prev.Warnings, snap.Warnings, p.prev.Failures, snap.Failures)
	p.prev = snap
}

func (p *Plugin) Shutdown() {}

func (p *Plugin) Inject(kind string) error { return p.sys.SimulateFailure(kind) }
