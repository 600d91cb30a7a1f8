package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/schema"
)

// Registry holds the configuration requirements of every known stage kind.
// It is built once by the caller and shared by reference; there is no global instance.
type Registry struct {
	mu           sync.RWMutex
	requirements map[string]schema.Schema
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requirements: make(map[string]schema.Schema),
	}
}

// Register declares the requirement schema of a stage kind.
// If the kind is already registered, its schema is overwritten.
func (r *Registry) Register(kind string, s schema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requirements[kind] = s
}

// Requirements returns the schema declared for kind.
func (r *Registry) Requirements(kind string) (schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.requirements[kind]
	return s, ok
}

// Kinds returns the registered stage kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.requirements))
	for k := range r.requirements {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks doc against the requirements of kind.
// Failures are returned as *domain.ConfigInvalidError naming every offending key.
func (r *Registry) Validate(kind string, doc map[string]any) error {
	s, ok := r.Requirements(kind)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownStage, kind)
	}

	if err := schema.Validate(s, doc); err != nil {
		return &domain.ConfigInvalidError{
			Stage: kind,
			Keys:  schema.FailedKeys(err),
			Err:   err,
		}
	}
	return nil
}
