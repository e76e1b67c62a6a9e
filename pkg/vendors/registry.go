package vendors

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages vendor specs by kind.
type Registry struct {
	mu    sync.RWMutex
	specs map[Kind]*Spec
}

// NewRegistry creates an empty vendor registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[Kind]*Spec),
	}
}

// Register adds a vendor spec to the registry.
func (r *Registry) Register(s *Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[s.Kind]; exists {
		return fmt.Errorf("vendor %q already registered", s.Kind)
	}
	r.specs[s.Kind] = s
	return nil
}

// Get returns a vendor spec by kind name.
func (r *Registry) Get(name string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.specs[Kind(name)]
	if !ok {
		return nil, fmt.Errorf("vendor %q not found", name)
	}
	return s, nil
}

// List returns all registered vendor kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.specs))
	for kind := range r.specs {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

// All returns all registered specs.
func (r *Registry) All() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Kind < specs[j].Kind })
	return specs
}

// FindByTool searches registered specs for one whose tool name matches.
func (r *Registry) FindByTool(tool string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.specs {
		if s.Tool == tool {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no vendor registered for tool %q", tool)
}
