package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docproc-backend/internal/shared/telemetry"
)

// Factory builds an engine instance. Construction must be cheap; expensive
// setup belongs in Initialize.
type Factory func() (Engine, error)

// Registry holds engine factories and lazily initialized instances. An
// engine whose Initialize fails is not cached, so the next Get retries
// construction from scratch.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Engine
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Engine),
	}
}

// Register adds a named engine factory. Registering a name twice replaces
// the factory and drops any cached instance.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.instances, name)
}

// Get returns the initialized engine for a name, constructing it on first
// use.
func (r *Registry) Get(ctx context.Context, name string) (Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.instances[name]; ok {
		return eng, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s", name)
	}

	eng, err := factory()
	if err != nil {
		return nil, fmt.Errorf("construct engine %s: %w", name, err)
	}
	if err := eng.Initialize(ctx); err != nil {
		telemetry.Warn("engine.init_failed", map[string]any{
			"engine": name,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("initialize engine %s: %w", name, err)
	}

	r.instances[name] = eng
	return eng, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[name]
	return ok
}
