// Package registry keeps the contracts a host binary can run, by name.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/covenant"
)

// Registry manages the available contract definitions.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]covenant.Definition
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[string]covenant.Definition),
	}
}

// Register adds a definition under its contract name.
// Registering the same name twice is an error.
func (r *Registry) Register(def covenant.Definition) error {
	if def.Contract() == nil {
		return fmt.Errorf("registry: empty definition")
	}
	name := def.Contract().Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[name]; ok {
		return fmt.Errorf("registry: contract %q already registered", name)
	}
	r.contracts[name] = def
	return nil
}

// MustRegister is Register for init-time wiring.
func (r *Registry) MustRegister(defs ...covenant.Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a definition by contract name.
// Returns an error if the contract is not found.
func (r *Registry) Lookup(name string) (covenant.Definition, error) {
	r.mu.RLock()
	def, ok := r.contracts[name]
	r.mu.RUnlock()

	if !ok {
		return covenant.Definition{}, fmt.Errorf("contract not found: %s", name)
	}
	return def, nil
}

// Names lists the registered contracts, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
