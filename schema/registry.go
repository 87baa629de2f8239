package schema

import (
	"sync"

	"github.com/BaSui01/llmschema/types"
)

// Registry holds at most one active schema definition.
// It starts unset; Set replaces the current definition wholesale.
type Registry struct {
	mu  sync.RWMutex
	def *Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set normalizes src and makes it the active definition.
// On error the previous definition stays active.
func (r *Registry) Set(src any) error {
	def, err := Normalize(src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.def = def
	r.mu.Unlock()
	return nil
}

// Get returns a copy of the active definition, or ErrNoSchemaSet.
func (r *Registry) Get() (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.def == nil {
		return nil, types.ErrNoSchemaSet
	}
	return r.def.Clone(), nil
}

// IsSet reports whether a definition has been assigned.
func (r *Registry) IsSet() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def != nil
}
