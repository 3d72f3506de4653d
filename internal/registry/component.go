// Package registry manages the two registries the asset system is built on:
// the set of compiled components discovered during scanning, and the ordered
// list of component-root folders that declared asset paths resolve against.
package registry

import (
	"sync"
	"time"

	"github.com/weftlabs/weft/internal/types"
)

// ComponentRegistry manages all discovered components
type ComponentRegistry struct {
	components map[string]*types.ComponentInfo
	mutex      sync.RWMutex
	watchers   []chan types.ComponentEvent
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]*types.ComponentInfo),
		watchers:   make([]chan types.ComponentEvent, 0),
	}
}

// Register adds or updates a component in the registry
func (r *ComponentRegistry) Register(component *types.ComponentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := types.EventTypeAdded
	if _, exists := r.components[component.Name]; exists {
		eventType = types.EventTypeUpdated
	}

	r.components[component.Name] = component
	r.notify(types.ComponentEvent{
		Type:      eventType,
		Component: component,
		Timestamp: time.Now(),
	})
}

// Get retrieves a component by name
func (r *ComponentRegistry) Get(name string) (*types.ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[name]
	return component, exists
}

// GetAll returns all registered components
func (r *ComponentRegistry) GetAll() map[string]*types.ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*types.ComponentInfo, len(r.components))
	for name, component := range r.components {
		result[name] = component
	}
	return result
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[name]
	if !exists {
		return
	}

	delete(r.components, name)
	r.notify(types.ComponentEvent{
		Type:      types.EventTypeRemoved,
		Component: component,
		Timestamp: time.Now(),
	})
}

// RemoveByPath removes all components registered from the given source file.
func (r *ComponentRegistry) RemoveByPath(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, component := range r.components {
		if component.FilePath != path {
			continue
		}
		delete(r.components, name)
		r.notify(types.ComponentEvent{
			Type:      types.EventTypeRemoved,
			Component: component,
			Timestamp: time.Now(),
		})
	}
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan types.ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan types.ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan types.ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// notify broadcasts an event to all watchers. Callers must hold the mutex.
func (r *ComponentRegistry) notify(event types.ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
