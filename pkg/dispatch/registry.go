package dispatch

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps class names to classes.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewRegistry creates an empty class registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
	}
}

// Register adds classes by name. Registering a different class under a name
// already taken fails; registering the same class again is a no-op.
func (r *Registry) Register(classes ...*Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range classes {
		if existing, ok := r.classes[c.name]; ok && existing != c {
			return fmt.Errorf("%w: %s", ErrDuplicateClass, c.name)
		}
		r.classes[c.name] = c
	}
	return nil
}

// Define creates a class named name inheriting from the registered class
// superName ("" for a root class) and registers it.
func (r *Registry) Define(name, superName string) (*Class, error) {
	var super *Class
	if superName != "" {
		s, err := r.Get(superName)
		if err != nil {
			return nil, err
		}
		super = s
	}
	c := NewClass(name, super)
	if err := r.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the class registered under name.
func (r *Registry) Get(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return c, nil
}

// Has returns true if a class is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.classes[name]
	return ok
}

// List returns all registered class names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Triple resolves a class name into a triple.
func (r *Registry) Triple(className, selector string, kind Kind) (Triple, error) {
	c, err := r.Get(className)
	if err != nil {
		return Triple{}, err
	}
	return Triple{Class: c, Selector: selector, Kind: kind}, nil
}
