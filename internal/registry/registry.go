// Package registry provides a global registry of level factories.
// Built-in levels register themselves in init() functions, allowing the CLI
// and servers to discover levels without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/gridbot/internal/sim"
)

// LevelInfo contains metadata about a registered level.
type LevelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Factory returns a level ready to be loaded into a simulation.
type Factory func() sim.Level

// Static wraps an immutable level in a Factory.
func Static(lvl sim.Level) Factory {
	return func() sim.Level { return lvl }
}

var (
	factories = make(map[string]Factory)
	names     = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a level factory to the registry.
// Panics if a level with the same ID is already registered.
func Register(id, name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: level %q already registered", id))
	}
	factories[id] = f
	names[id] = name
}

// Override registers f under id, replacing any existing entry.
func Override(id, name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	factories[id] = f
	names[id] = name
}

// List returns information about all registered levels, sorted by ID.
func List() []LevelInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]LevelInfo, 0, len(factories))
	for id := range factories {
		result = append(result, LevelInfo{ID: id, Name: names[id]})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Create instantiates a level by its ID.
func Create(id string) (sim.Level, error) {
	mu.RLock()
	f, ok := factories[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown level %q", id)
	}
	return f(), nil
}

// Exists checks if a level with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
