package capability

import (
	"sort"
	"sync"
)

// Descriptor is the discovery view of a registered capability.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      Schema `json:"parameter_schema"`
}

// Registry holds the set of registered capabilities keyed by unique name.
//
// Registries are built explicitly at startup and treated as immutable once
// dispatching begins; the mutex exists so that construction and concurrent
// lookups remain safe regardless. There is no package-level default registry:
// instances are passed into the dispatcher and agents at initialization so
// tests can build isolated sets.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Capability
}

// NewRegistry returns an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Capability)}
}

// Register adds a capability, failing with DuplicateNameError if the name is
// already taken. Registration order does not affect lookup or listing.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[c.Name()]; exists {
		return &DuplicateNameError{Name: c.Name()}
	}
	r.entries[c.Name()] = c
	return nil
}

// MustRegister registers capabilities and panics on a duplicate name. Intended
// for startup wiring where a duplicate is a programming error.
func (r *Registry) MustRegister(caps ...Capability) {
	for _, c := range caps {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Get returns the capability registered under name or NotFoundError. Lookup of
// an unregistered name is a defined failure, never a silent no-op.
func (r *Registry) Get(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return c, nil
}

// Names returns the registered capability names sorted lexicographically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List produces descriptors for every registered capability sorted by name.
// The snapshot is used purely for discovery, never for execution ordering.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.entries))
	for _, c := range r.entries {
		out = append(out, Descriptor{
			Name:        c.Name(),
			Description: c.Description(),
			Schema:      c.Schema(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
