package fuel

import (
	"fmt"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/physics"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "fuel"

// RefuelRequest is the payload on the refuel topic. An empty Tank fills
// every tank; Gallons is the target level, clamped to capacity.
type RefuelRequest struct {
	Tank    string  `json:"tank"`
	Gallons float64 `json:"gallons"`
}

// Plugin adapts the fuel system to the plugin runtime.
type Plugin struct {
	sys *System
	ctx *plugin.Context

	inputs    systems.ControlInputs
	demandGPH float64
	onGround  bool

	prev systems.FuelState
}

// Factory registers with the plugin registry. The aircraft spawns on
// the ground; position updates take over from the first tick.
func Factory() plugin.Plugin { return &Plugin{sys: New(), onGround: true} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Provides:       []string{"fuel"},
		UpdatePriority: 20,
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
		bus.TopicRefuel:          p.onRefuel,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("fuel: subscribe %s: %w", topic, err)
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
	if es, ok := m.Payload.(systems.EngineState); ok {
		p.demandGPH = es.FuelFlowGPH
	}
	return nil
}

func (p *Plugin) onPosition(m bus.Message) error {
	if s, ok := m.Payload.(physics.AircraftState); ok {
		p.onGround = s.OnGround
	}
	return nil
}

// onRefuel honors a refuel request on the ground only.
func (p *Plugin) onRefuel(m bus.Message) error {
	req, ok := m.Payload.(RefuelRequest)
	if !ok {
		return nil
	}
	if !p.onGround {
		p.ctx.Log.Warn("refuel rejected in flight")
		return nil
	}
	if err := p.sys.Refuel(req.Tank, req.Gallons); err != nil {
		return err
	}
	p.ctx.Log.Info("refueled", "tank", req.Tank, "gallons", req.Gallons)
	return nil
}

func (p *Plugin) Update(dt float64) {
	p.sys.Update(dt, p.inputs, p.demandGPH)
	snap := p.sys.Snapshot()

	prio := bus.PriorityNormal
	if len(snap.Failures) > 0 {
		prio = bus.PriorityCritical
	}
	p.ctx.Messages.Publish(bus.Message{
		Sender:   PluginName,
		Topic:    bus.TopicFuelState,
		Priority: prio,
		Payload:  snap,
	})
	systems.PublishAlerts(p.ctx.Events, PluginName, p.prev.Warnings, snap.Warnings, p.prev.Failures, snap.Failures)
	p.prev = snap
}

func (p *Plugin) Shutdown() {}

func (p *Plugin) Inject(kind string) error { return p.sys.SimulateFailure(kind) }
