// Package provider holds name-keyed pools of implementations.
package provider

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrEmptyName is returned when registering or looking up an empty name.
var ErrEmptyName = errors.New("name must not be empty")

// Binding associates an implementation with a name and its declared origin.
type Binding[T any] struct {
	Name   string // Lookup key, case-sensitive
	Origin string // Declared origin, checked against the namespace rule
	Impl   T
}

// Pool answers name queries with every binding currently registered for that
// name.
type Pool[T any] interface {
	FindByName(name string) []Binding[T]
}

// Fallback is a secondary source consulted when a Pool has no binding.
type Fallback[T any] interface {
	GetByName(name string) (Binding[T], bool)
}

// PoolFunc adapts a function to the Pool interface.
type PoolFunc[T any] func(name string) []Binding[T]

// FindByName calls f(name).
func (f PoolFunc[T]) FindByName(name string) []Binding[T] {
	return f(name)
}

// FallbackFunc adapts a function to the Fallback interface.
type FallbackFunc[T any] func(name string) (Binding[T], bool)

// GetByName calls f(name).
func (f FallbackFunc[T]) GetByName(name string) (Binding[T], bool) {
	return f(name)
}

// Registration identifies one Register call so it can be undone.
type Registration struct {
	ID   uuid.UUID
	Name string
}

type entry[T any] struct {
	id      uuid.UUID
	binding Binding[T]
}

// Registry is an in-process Pool with explicit register and unregister calls.
// It accepts several bindings under the same name; deciding what that means
// is left to the resolver.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string][]entry[T]
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string][]entry[T])}
}

// Register adds impl under name with the given origin.
func (r *Registry[T]) Register(name, origin string, impl T) (Registration, error) {
	if name == "" {
		return Registration{}, ErrEmptyName
	}
	e := entry[T]{
		id:      uuid.New(),
		binding: Binding[T]{Name: name, Origin: origin, Impl: impl},
	}
	r.mu.Lock()
	r.entries[name] = append(r.entries[name], e)
	r.mu.Unlock()
	return Registration{ID: e.id, Name: name}, nil
}

// Unregister removes a binding added by Register. It reports whether the
// binding was still present.
func (r *Registry[T]) Unregister(reg Registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.entries[reg.Name]
	for i, e := range list {
		if e.id != reg.ID {
			continue
		}
		rest := make([]entry[T], 0, len(list)-1)
		rest = append(rest, list[:i]...)
		rest = append(rest, list[i+1:]...)
		if len(rest) == 0 {
			delete(r.entries, reg.Name)
		} else {
			r.entries[reg.Name] = rest
		}
		return true
	}
	return false
}

// FindByName returns a snapshot of the bindings registered under name.
// A nil Registry holds nothing.
func (r *Registry[T]) FindByName(name string) []Binding[T] {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.entries[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]Binding[T], len(list))
	for i, e := range list {
		out[i] = e.binding
	}
	return out
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the total number of bindings.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, list := range r.entries {
		n += len(list)
	}
	return n
}
