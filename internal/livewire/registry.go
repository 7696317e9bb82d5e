package livewire

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// ErrUnknownComponent is returned when a snapshot names an unregistered component.
var ErrUnknownComponent = errors.New("unknown component")

// Registry maps component names to the classes that implement them and
// hydrates snapshots against that table.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]string
}

func NewRegistry() *Registry {
	return &Registry{classes: map[string]string{}}
}

// Register binds a component name (memo.name) to its class.
func (r *Registry) Register(name, class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = class
}

// Hydrate resolves the component a snapshot belongs to.
func (r *Registry) Hydrate(s models.Snapshot) (models.Component, error) {
	name := s.Name()

	r.mu.RLock()
	class, ok := r.classes[name]
	r.mu.RUnlock()

	if !ok {
		return models.Component{}, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return models.Component{Name: name, Class: class}, nil
}

// Names lists registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
