// Package fetcher defines named data fetchers and the selector that binds a
// schema's @fetcher directives to them.
package fetcher

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Protocol-Lattice/slingql/provider"
	"github.com/Protocol-Lattice/slingql/resolve"
)

// Env is what a fetcher sees when asked for a field value.
type Env struct {
	Context context.Context
	Parent  interface{}            // Value of the enclosing object, nil at the root
	Args    map[string]interface{} // Field arguments, custom scalars already parsed
	Options string                 // "options" argument of the @fetcher directive
	Source  string                 // "source" argument of the @fetcher directive
	Field   string                 // Name of the field being resolved
	Type    string                 // Name of the type that declares the field
}

// Arg returns a named argument, or nil.
func (e *Env) Arg(name string) interface{} {
	if e.Args == nil {
		return nil
	}
	return e.Args[name]
}

// Property reads key from the parent object. Maps are indexed by key and
// structs are searched for an exported field whose name matches key
// case-insensitively; pointers are followed. A nil parent, a nil pointer or
// a missing map key yields nil.
func (e *Env) Property(key string) (interface{}, error) {
	if e.Parent == nil {
		return nil, nil
	}
	if m, ok := e.Parent.(map[string]interface{}); ok {
		return m[key], nil
	}
	v := reflect.ValueOf(e.Parent)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		val := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !val.IsValid() {
			return nil, nil
		}
		return val.Interface(), nil
	case reflect.Struct:
		f := v.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
		return nil, fmt.Errorf("%s.%s: parent %T has no property %q", e.Type, e.Field, e.Parent, key)
	}
	return nil, fmt.Errorf("%s.%s: cannot read %q from %T", e.Type, e.Field, key, e.Parent)
}

// Fetcher supplies a field value at execution time.
type Fetcher interface {
	Get(env *Env) (interface{}, error)
}

// Func adapts an ordinary function to the Fetcher interface.
type Func func(env *Env) (interface{}, error)

// Get calls f(env).
func (f Func) Get(env *Env) (interface{}, error) {
	return f(env)
}

// Registry is an in-process pool of fetchers.
type Registry = provider.Registry[Fetcher]

// Binding is a fetcher registered under a name.
type Binding = provider.Binding[Fetcher]

// NewRegistry creates an empty fetcher pool.
func NewRegistry() *Registry {
	return provider.NewRegistry[Fetcher]()
}

// Selector picks the fetcher for a name: the primary pool first, then the
// fallback.
type Selector = resolve.Resolver[Fetcher]

// NewSelector creates a Selector. fallback may be nil.
func NewSelector(pool provider.Pool[Fetcher], fallback provider.Fallback[Fetcher], opts ...resolve.Option) *Selector {
	return resolve.New[Fetcher](pool, fallback, opts...)
}
