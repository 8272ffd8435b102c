// Package builtin registers the fetchers and scalar converters shipped with
// slingql. They live under the reserved "sling/" namespace and carry a
// trusted origin.
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/provider"
	"github.com/Protocol-Lattice/slingql/scalar"
)

// Origin is declared by every built-in registration.
const Origin = "org.apache.sling.graphql.builtin"

// Fetchers maps each built-in fetcher name to its implementation.
var Fetchers = map[string]fetcher.Fetcher{
	"sling/echo":   fetcher.Func(echo),
	"sling/parent": fetcher.Func(parent),
	"sling/uuid":   fetcher.Func(newUUID),
}

// Register adds the built-in fetchers to reg.
func Register(reg *fetcher.Registry) ([]provider.Registration, error) {
	regs := make([]provider.Registration, 0, len(Fetchers))
	for name, f := range Fetchers {
		r, err := reg.Register(name, Origin, f)
		if err != nil {
			return regs, fmt.Errorf("register %s: %w", name, err)
		}
		regs = append(regs, r)
	}
	return regs, nil
}

// RegisterScalars adds the built-in scalar converters to reg.
func RegisterScalars(reg *scalar.Registry) error {
	return scalar.Register(reg, Origin, scalar.Builtins()...)
}

// echo returns the argument named by the directive options, or every
// argument when no options are given.
func echo(env *fetcher.Env) (interface{}, error) {
	if env.Options == "" {
		return env.Args, nil
	}
	return env.Arg(env.Options), nil
}

// parent returns a property of the parent object: the one named by the
// directive options, else the one named like the field.
func parent(env *fetcher.Env) (interface{}, error) {
	key := env.Options
	if key == "" {
		key = env.Field
	}
	return env.Property(key)
}

func newUUID(*fetcher.Env) (interface{}, error) {
	return uuid.New(), nil
}
