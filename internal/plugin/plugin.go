// Plugin lifecycle and metadata for aircraft subsystem simulators.
package plugin

import (
	"fmt"
	"log/slog"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/config"
)

// State tracks the plugin lifecycle. Update and HandleMessage are only
// ever invoked in StateRunning.
type State string

const (
	StateDiscovered   State = "discovered"
	StateLoaded       State = "loaded"
	StateRunning      State = "running"
	StateShuttingDown State = "shutting_down"
	StateUnloaded     State = "unloaded"
)

// Metadata describes a plugin for discovery and dependency resolution.
// Dependencies name capabilities (other plugins' Provides entries), not
// plugin names.
type Metadata struct {
	Name         string
	Version      string
	Provides     []string
	Dependencies []string
	Optional     bool
	// UpdatePriority breaks ties between plugins with no dependency
	// relation; lower updates earlier.
	UpdatePriority int
}

// Validate checks the metadata invariants at registration time.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin metadata: empty name")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin %s: empty version", m.Name)
	}
	return nil
}

// Context is handed to a plugin exactly once, at Initialize. The
// configuration is read-only static data for the session.
type Context struct {
	Events   *bus.EventBus
	Messages *bus.MessageQueue
	Config   *config.AircraftConfig
	Log      *slog.Logger
}

// Plugin is the contract every subsystem simulator implements.
type Plugin interface {
	Metadata() Metadata
	// Initialize is called exactly once before the first Update. A
	// returned error is fatal for the flight session: no partial start.
	Initialize(ctx *Context) error
	// Update advances the plugin by dt seconds. Called every tick in
	// dependency-resolved order; must not block.
	Update(dt float64)
	// Shutdown releases resources. Must tolerate being called after a
	// partially failed Initialize.
	Shutdown()
}

// Factory constructs a fresh plugin instance. Registered at config
// time; no runtime introspection involved.
type Factory func() Plugin
