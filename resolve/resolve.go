// Package resolve selects the single implementation bound to a name.
//
// A Resolver consults a primary provider.Pool first. One binding is checked
// against the namespace rule and returned; several bindings are an error;
// none hands the lookup to an optional fallback. Finding nothing is not an
// error: Resolve reports it through its boolean result.
package resolve

import (
	"errors"
	"fmt"

	"github.com/Protocol-Lattice/slingql/namespace"
	"github.com/Protocol-Lattice/slingql/provider"
)

var (
	// ErrEmptyName is returned for an empty lookup name.
	ErrEmptyName = provider.ErrEmptyName

	// ErrAmbiguous matches resolution errors of kind Ambiguous.
	ErrAmbiguous = errors.New("ambiguous binding")

	// ErrReservedNamespace matches resolution errors of kind ReservedNamespaceViolation.
	ErrReservedNamespace = errors.New("reserved namespace violation")
)

// Kind classifies a resolution failure.
type Kind int

const (
	// Ambiguous means the primary pool held more than one binding.
	Ambiguous Kind = iota + 1
	// ReservedNamespaceViolation means a reserved name was bound to an
	// untrusted origin.
	ReservedNamespaceViolation
)

// String returns a readable name for k.
func (k Kind) String() string {
	switch k {
	case Ambiguous:
		return "ambiguous"
	case ReservedNamespaceViolation:
		return "reserved namespace violation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a configuration fault found while resolving Name.
type Error struct {
	Kind   Kind
	Name   string
	Count  int    // Bindings found, for Ambiguous
	Origin string // Offending origin, for ReservedNamespaceViolation
	Prefix string // Reserved prefix, for ReservedNamespaceViolation
}

// Error formats the fault with the offending name.
func (e *Error) Error() string {
	switch e.Kind {
	case Ambiguous:
		return fmt.Sprintf("got %d bindings for %q, expected just one", e.Count, e.Name)
	case ReservedNamespaceViolation:
		return fmt.Sprintf("invalid binding %q from origin %q: names starting with %q are reserved for trusted implementations",
			e.Name, e.Origin, e.Prefix)
	}
	return fmt.Sprintf("cannot resolve %q: %v", e.Name, e.Kind)
}

// Unwrap returns the sentinel matching the error kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case Ambiguous:
		return ErrAmbiguous
	case ReservedNamespaceViolation:
		return ErrReservedNamespace
	}
	return nil
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	rule             namespace.Rule
	validateFallback bool
}

// WithRule replaces namespace.DefaultRule.
func WithRule(rule namespace.Rule) Option {
	return func(o *options) { o.rule = rule }
}

// WithFallbackValidation applies the namespace rule to fallback results too.
// Off by default: fallback results are returned unchecked.
func WithFallbackValidation(enabled bool) Option {
	return func(o *options) { o.validateFallback = enabled }
}

// Resolver maps names to implementations. It keeps no mutable state and is
// safe for concurrent use as long as its pool and fallback are.
type Resolver[T any] struct {
	pool     provider.Pool[T]
	fallback provider.Fallback[T]
	opts     options
}

// New creates a Resolver over pool. pool and fallback may be nil, including
// a nil *provider.Registry.
func New[T any](pool provider.Pool[T], fallback provider.Fallback[T], opts ...Option) *Resolver[T] {
	o := options{rule: namespace.DefaultRule}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver[T]{pool: pool, fallback: fallback, opts: o}
}

// Rule returns the namespace rule in effect.
func (r *Resolver[T]) Rule() namespace.Rule {
	return r.opts.rule
}

// Resolve returns the implementation bound to name. The boolean is false
// when neither the pool nor the fallback knows the name.
func (r *Resolver[T]) Resolve(name string) (T, bool, error) {
	b, ok, err := r.ResolveBinding(name)
	return b.Impl, ok, err
}

// ResolveBinding is Resolve but returns the whole binding, origin included.
func (r *Resolver[T]) ResolveBinding(name string) (provider.Binding[T], bool, error) {
	var none provider.Binding[T]
	if name == "" {
		return none, false, ErrEmptyName
	}

	var candidates []provider.Binding[T]
	if r.pool != nil {
		candidates = r.pool.FindByName(name)
	}
	switch len(candidates) {
	case 0:
	case 1:
		if err := r.check(name, candidates[0].Origin); err != nil {
			return none, false, err
		}
		return candidates[0], true, nil
	default:
		return none, false, &Error{Kind: Ambiguous, Name: name, Count: len(candidates)}
	}

	if r.fallback == nil {
		return none, false, nil
	}
	b, ok := r.fallback.GetByName(name)
	if !ok {
		return none, false, nil
	}
	if r.opts.validateFallback {
		if err := r.check(name, b.Origin); err != nil {
			return none, false, err
		}
	}
	return b, true, nil
}

func (r *Resolver[T]) check(name, origin string) error {
	if r.opts.rule.Permits(name, origin) {
		return nil
	}
	return &Error{
		Kind:   ReservedNamespaceViolation,
		Name:   name,
		Origin: origin,
		Prefix: r.opts.rule.ReservedPrefix,
	}
}
