package electrical

import (
	"fmt"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/physics"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "electrical"

// Plugin adapts the electrical system to the plugin runtime: it caches
// the latest control inputs and engine state off the message queue,
// steps the simulation each tick, and publishes the snapshot.
type Plugin struct {
	sys *System
	ctx *plugin.Context

	inputs    systems.ControlInputs
	engineRPM float64
	starterA  float64
	onGround  bool

	prev systems.ElectricalState
}

// Factory registers with the plugin registry. The aircraft spawns on
// the ground; position updates take over from the first tick.
func Factory() plugin.Plugin { return &Plugin{sys: New(), onGround: true} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Provides:       []string{"electrical"},
		UpdatePriority: 10,
	}
}

func (p *Plugin) Initialize(ctx *plugin.Context) error {
	p.ctx = ctx
	if err := p.sys.Initialize(ctx.Config); err != nil {
		return err
	}
	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicControlInput:    p.onControlInput,
		bus.TopicEngineState:     p.onEngineState,
		bus.TopicPositionUpdated: p.onPosition,
		bus.TopicBatterySwap:     p.onBatterySwap,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("electrical: subscribe %s: %w", topic, err)
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

func (p *Plugin) onEngineState(m bus.Message) error {
	es, ok := m.Payload.(systems.EngineState)
	if !ok {
		return nil
	}
	p.engineRPM = es.RPM
	if es.Cranking {
		p.starterA = p.ctx.Config.Engine.StarterCurrentA
	} else {
		p.starterA = 0
	}
	return nil
}

func (p *Plugin) onPosition(m bus.Message) error {
	if s, ok := m.Payload.(physics.AircraftState); ok {
		p.onGround = s.OnGround
	}
	return nil
}

// onBatterySwap installs a fresh battery. Only honored on the ground;
// BATTERY_DEAD is irrecoverable in flight.
func (p *Plugin) onBatterySwap(m bus.Message) error {
	if !p.onGround {
		p.ctx.Log.Warn("battery swap rejected in flight")
		return nil
	}
	p.sys.SwapBattery()
	p.ctx.Log.Info("battery swapped")
	return nil
}

func (p *Plugin) Update(dt float64) {
	p.sys.Update(dt, p.inputs, p.engineRPM, p.starterA)
	snap := p.sys.Snapshot()

	prio := bus.PriorityNormal
	if len(snap.Failures) > 0 {
		prio = bus.PriorityCritical
	}
	p.ctx.Messages.Publish(bus.Message{
		Sender:   PluginName,
		Topic:    bus.TopicElectricalState,
		Priority: prio,
		Payload:  snap,
	})
	systems.PublishAlerts(p.ctx.Events, PluginName, p.prev.Warnings, snap.Warnings, p.prev.Failures, snap.Failures)
	p.prev = snap
}

func (p *Plugin) Shutdown() {}

// Inject forwards a named fault to the simulation, for scenario scripts
// and the admin surface.
func (p *Plugin) Inject(kind string) error { return p.sys.SimulateFailure(kind) }
