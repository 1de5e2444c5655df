package plugin

import (
	"fmt"
	"sort"
)

// Registry maps plugin names to factories. It replaces the original
// runtime-introspection discovery with an explicit config-time table:
// aircraft configs select implementations by string key.
type Registry struct {
	factories map[string]Factory
	metadata  map[string]Metadata
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		metadata:  make(map[string]Metadata),
	}
}

// Register adds a factory under the metadata's name. Registering the
// same name twice is an error.
func (r *Registry) Register(meta Metadata, f Factory) error {
	if err := meta.Validate(); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("register %s: nil factory", meta.Name)
	}
	if _, ok := r.factories[meta.Name]; ok {
		return fmt.Errorf("register %s: already registered", meta.Name)
	}
	r.factories[meta.Name] = f
	r.metadata[meta.Name] = meta
	return nil
}

// Discover returns metadata for the named plugins without instantiating
// any of them. Unknown names are an error: the config asked for a
// simulator this build does not carry.
func (r *Registry) Discover(names []string) ([]Metadata, error) {
	metas := make([]Metadata, 0, len(names))
	for _, name := range names {
		meta, ok := r.metadata[name]
		if !ok {
			return nil, fmt.Errorf("discover: unknown plugin %q (registered: %v)", name, r.Names())
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// New instantiates the named plugin.
func (r *Registry) New(name string) (Plugin, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("new plugin: unknown plugin %q", name)
	}
	return f(), nil
}

// Names lists registered plugin names, sorted for stable output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
