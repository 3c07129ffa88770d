package resilience

import (
	"context"
	"sort"
	"sync"
)

// Registry holds one named executor per guarded resource. Breakers and
// bulkheads live for the process lifetime of the resource's client, so the
// registry is the natural owner: configure each downstream dependency once
// at startup, then execute against it by name.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]*Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]*Executor)}
}

// Configure registers a new executor under name. An executor's policies may
// not be changed after registration; configuring the same name twice returns
// ErrAlreadyConfigured.
func (r *Registry) Configure(name string, opts ...ExecutorOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executors[name]; ok {
		return ErrAlreadyConfigured
	}
	r.executors[name] = NewExecutor(opts...)
	return nil
}

// Execute runs op through the executor registered under name. Returns
// ErrNotConfigured for an unknown name.
func (r *Registry) Execute(ctx context.Context, name string, op func(context.Context) error) error {
	e, ok := r.Get(name)
	if !ok {
		return ErrNotConfigured
	}
	return e.Execute(ctx, op)
}

// Get returns the executor registered under name.
func (r *Registry) Get(name string) (*Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.executors[name]
	return e, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
