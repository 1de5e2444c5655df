package plugin

import (
	"errors"
	"fmt"
	"sort"
)

// Resolution errors surfaced at discovery time. Both are fatal: the
// simulator refuses to start with a broken dependency graph.
var (
	ErrDependencyCycle   = errors.New("dependency cycle between plugins")
	ErrMissingDependency = errors.New("unresolved required dependency")
)

// ResolveOrder topologically sorts plugins so every capability provider
// updates before its consumers. Optional plugins with unresolved
// dependencies are omitted (along with anything that only they would
// have satisfied); a required plugin with an unresolved dependency or
// any cycle aborts resolution.
func ResolveOrder(metas []Metadata) ([]string, error) {
	pool := make(map[string]Metadata, len(metas))
	for _, m := range metas {
		pool[m.Name] = m
	}

	// Drop optional plugins whose dependencies cannot be satisfied,
	// repeating because each removal can strand further optionals.
	for {
		providers := capabilityIndex(pool)
		dropped := false
		for name, m := range pool {
			if !m.Optional {
				continue
			}
			if unresolved(m, providers) != "" {
				delete(pool, name)
				dropped = true
			}
		}
		if !dropped {
			break
		}
	}

	providers := capabilityIndex(pool)
	for _, m := range pool {
		if missing := unresolved(m, providers); missing != "" {
			return nil, fmt.Errorf("%w: plugin %s requires capability %q", ErrMissingDependency, m.Name, missing)
		}
	}

	// Kahn's algorithm over provider -> consumer edges. Ties break on
	// UpdatePriority then name so the order is deterministic.
	indegree := make(map[string]int, len(pool))
	consumers := make(map[string][]string, len(pool))
	for name, m := range pool {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range m.Dependencies {
			provider := providers[dep]
			if provider == name {
				continue
			}
			consumers[provider] = append(consumers[provider], name)
			indegree[name]++
		}
	}

	ready := make([]string, 0, len(pool))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sortReady(ready, pool)

	order := make([]string, 0, len(pool))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)
		released := false
		for _, consumer := range consumers[current] {
			indegree[consumer]--
			if indegree[consumer] == 0 {
				ready = append(ready, consumer)
				released = true
			}
		}
		if released {
			sortReady(ready, pool)
		}
	}

	if len(order) != len(pool) {
		stuck := make([]string, 0)
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %v", ErrDependencyCycle, stuck)
	}
	return order, nil
}

func capabilityIndex(pool map[string]Metadata) map[string]string {
	providers := make(map[string]string)
	for name, m := range pool {
		for _, c := range m.Provides {
			providers[c] = name
		}
	}
	return providers
}

func unresolved(m Metadata, providers map[string]string) string {
	for _, dep := range m.Dependencies {
		if _, ok := providers[dep]; !ok {
			return dep
		}
	}
	return ""
}

func sortReady(ready []string, pool map[string]Metadata) {
	sort.Slice(ready, func(i, j int) bool {
		a, b := pool[ready[i]], pool[ready[j]]
		if a.UpdatePriority != b.UpdatePriority {
			return a.UpdatePriority < b.UpdatePriority
		}
		return a.Name < b.Name
	})
}

type instance struct {
	plugin Plugin
	meta   Metadata
	state  State
}

// Manager owns plugin instances and drives their lifecycle. Load order
// comes from ResolveOrder; per-tick updates run in that same order.
type Manager struct {
	registry  *Registry
	ctx       *Context
	instances map[string]*instance
	order     []string
}

// NewManager creates a manager around a registry and the shared context
// injected into every plugin.
func NewManager(registry *Registry, ctx *Context) *Manager {
	return &Manager{
		registry:  registry,
		ctx:       ctx,
		instances: make(map[string]*instance),
	}
}

// LoadAll discovers the named plugins, resolves their order, and loads
// each in turn. Any failure unwinds the plugins already loaded.
func (m *Manager) LoadAll(names []string) error {
	metas, err := m.registry.Discover(names)
	if err != nil {
		return err
	}
	order, err := ResolveOrder(metas)
	if err != nil {
		return err
	}
	for _, name := range order {
		if err := m.Load(name); err != nil {
			m.UnloadAll()
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load instantiates and initializes one plugin and appends it to the
// update schedule. Initialize is called exactly once; a failure leaves
// the instance unloadable but never half-registered.
func (m *Manager) Load(name string) error {
	if _, ok := m.instances[name]; ok {
		return fmt.Errorf("plugin %s already loaded", name)
	}
	p, err := m.registry.New(name)
	if err != nil {
		return err
	}
	inst := &instance{plugin: p, meta: p.Metadata(), state: StateDiscovered}
	m.instances[name] = inst

	if err := p.Initialize(m.ctx); err != nil {
		// Leave the instance recorded so Unload can clean up whatever
		// subscriptions a partial Initialize managed to register.
		inst.state = StateLoaded
		return fmt.Errorf("initialize %s: %w", name, err)
	}
	inst.state = StateRunning
	m.order = append(m.order, name)
	m.ctx.Log.Info("plugin loaded", "plugin", name, "version", inst.meta.Version)
	return nil
}

// Unload shuts a plugin down, removes its subscriptions, and drops it
// from the update schedule. Idempotent: a second call is a no-op, even
// mid-teardown or after a failed Initialize.
func (m *Manager) Unload(name string) {
	inst, ok := m.instances[name]
	if !ok {
		return
	}
	if inst.state == StateUnloaded || inst.state == StateShuttingDown {
		return
	}
	inst.state = StateShuttingDown
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.ctx.Log.Error("plugin shutdown panic", "plugin", name, "panic", r)
			}
		}()
		inst.plugin.Shutdown()
	}()
	m.ctx.Events.UnsubscribeOwner(name)
	m.ctx.Messages.UnsubscribeOwner(name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	inst.state = StateUnloaded
	delete(m.instances, name)
	m.ctx.Log.Info("plugin unloaded", "plugin", name)
}

// UnloadAll tears every plugin down in reverse update order, so
// consumers go before their providers.
func (m *Manager) UnloadAll() {
	for i := len(m.order) - 1; i >= 0; i-- {
		m.Unload(m.order[i])
	}
	// Instances that never reached Running (failed Initialize) are not
	// on the schedule; sweep them too.
	for name := range m.instances {
		m.Unload(name)
	}
}

// UpdateAll advances every running plugin by dt, in resolved order.
func (m *Manager) UpdateAll(dt float64) {
	for _, name := range m.order {
		inst := m.instances[name]
		if inst == nil || inst.state != StateRunning {
			continue
		}
		inst.plugin.Update(dt)
	}
}

// StateOf reports a plugin's lifecycle state; unknown names are
// StateUnloaded.
func (m *Manager) StateOf(name string) State {
	if inst, ok := m.instances[name]; ok {
		return inst.state
	}
	return StateUnloaded
}

// Order returns the current update schedule.
func (m *Manager) Order() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Get returns a loaded plugin instance by name.
func (m *Manager) Get(name string) (Plugin, bool) {
	inst, ok := m.instances[name]
	if !ok {
		return nil, false
	}
	return inst.plugin, true
}
