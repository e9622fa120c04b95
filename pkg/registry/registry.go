// Package registry holds the native Go functions that shard handlers can call by name.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/hivemesh/pkg/glyph"
)

// Func is a native function implementation. It receives a context and a map of
// arguments, and returns a result or error.
type Func = glyph.NativeFunc

// ErrFuncNotFound is returned by Execute for unknown names.
var ErrFuncNotFound = errors.New("native function not found")

// Registry manages the available native functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup implements glyph.Registry.
func (r *Registry) Lookup(name string) (glyph.NativeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a function by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFuncNotFound, name)
	}
	return fn(ctx, args)
}
