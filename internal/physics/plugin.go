package physics

import (
	"fmt"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "flightmodel"

// Plugin adapts the flight model to the plugin runtime. It consumes the
// engine and mass-properties snapshots and publishes the aircraft state
// every tick, plus a terrain-contact message on the tick of touchdown.
type Plugin struct {
	model *FlightModel
	ctx   *plugin.Context

	inputs systems.ControlInputs
	powerW float64
	rpm    float64
}

func Factory() plugin.Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Provides:       []string{"flight"},
		Dependencies:   []string{"engine", "mass"},
		UpdatePriority: 50,
	}
}

func (p *Plugin) Initialize(ctx *plugin.Context) error {
	p.ctx = ctx
	p.model = NewFlightModel(ctx.Config, FlatTerrain{ElevationM: ctx.Config.Physics.GroundElevationM})
	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicControlInput:  p.onControlInput,
		bus.TopicEngineState:   p.onEngineState,
		bus.TopicWeightBalance: p.onWeightBalance,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("flightmodel: subscribe %s: %w", topic, err)
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
		p.powerW = es.PowerW
		p.rpm = es.RPM
	}
	return nil
}

// onWeightBalance applies the previous tick's mass properties. The
// one-tick staleness is accepted.
func (p *Plugin) onWeightBalance(m bus.Message) error {
	if wb, ok := m.Payload.(systems.WeightBalanceState); ok {
		p.model.SetMassProperties(wb.MassKg, wb.CGIn)
	}
	return nil
}

func (p *Plugin) Update(dt float64) {
	state, contact := p.model.Update(dt, p.inputs, p.powerW, p.rpm)

	p.ctx.Messages.Publish(bus.Message{
		Sender:  PluginName,
		Topic:   bus.TopicPositionUpdated,
		Payload: state,
	})
	if contact.Contact {
		prio := bus.PriorityNormal
		if contact.ImpactSpeedMps > 3 {
			prio = bus.PriorityCritical
		}
		p.ctx.Messages.Publish(bus.Message{
			Sender:   PluginName,
			Topic:    bus.TopicTerrainContact,
			Priority: prio,
			Payload:  contact,
		})
	}
}

func (p *Plugin) Shutdown() {}

// Model exposes the flight model for scenario setup.
func (p *Plugin) Model() *FlightModel { return p.model }
