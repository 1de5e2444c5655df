package weightbalance

import (
	"fmt"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/plugin"
	"airborne-sim/internal/systems"
)

const PluginName = "weightbalance"

// Plugin adapts weight and balance to the plugin runtime.
type Plugin struct {
	sys *System
	ctx *plugin.Context

	inputs systems.ControlInputs
	prev   systems.WeightBalanceState
}

func Factory() plugin.Plugin { return &Plugin{sys: New()} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:           PluginName,
		Version:        "1.0.0",
		Provides:       []string{"mass"},
		Dependencies:   []string{"fuel"},
		UpdatePriority: 40,
	}
}

func (p *Plugin) Initialize(ctx *plugin.Context) error {
	p.ctx = ctx
	if err := p.sys.Initialize(ctx.Config); err != nil {
		return err
	}
	subs := map[bus.Topic]bus.MessageHandler{
		bus.TopicControlInput: p.onControlInput,
		bus.TopicFuelState:    p.onFuelState,
	}
	for topic, h := range subs {
		if err := ctx.Messages.SubscribeTopic(topic, PluginName, h); err != nil {
			return fmt.Errorf("weightbalance: subscribe %s: %w", topic, err)
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

func (p *Plugin) onFuelState(m bus.Message) error {
	if fs, ok := m.Payload.(systems.FuelState); ok {
		p.sys.SetFuel(fs.TankLevelsGal)
	}
	return nil
}

func (p *Plugin) Update(dt float64) {
	p.sys.Update(dt, p.inputs)
	snap := p.sys.Snapshot()
	p.ctx.Messages.Publish(bus.Message{
		Sender:  PluginName,
		Topic:   bus.TopicWeightBalance,
		Payload: snap,
	})
	systems.PublishAlerts(p.ctx.Events, PluginName, p.prev.Warnings, snap.Warnings, p.prev.Failures, snap.Failures)
	p.prev = snap
}

func (p *Plugin) Shutdown() {}
