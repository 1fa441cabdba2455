package scene

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps scene names to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtin returns a registry holding every built-in scene
func Builtin() *Registry {
	r := NewRegistry()
	for name, f := range builtins {
		r.Register(name, f)
	}
	return r
}

// Register adds or replaces a factory by name
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup creates a new instance of the named scene
func (r *Registry) Lookup(name string) (Scene, bool) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns all registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve instantiates the named scenes in order; an empty list means every registered scene
func (r *Registry) Resolve(names []string) ([]Scene, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	scenes := make([]Scene, 0, len(names))
	for _, name := range names {
		s, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scene %q", name)
		}
		scenes = append(scenes, s)
	}
	return scenes, nil
}
