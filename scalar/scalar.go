// Package scalar defines the conversion contract of custom GraphQL scalars.
//
// ParseValue turns a value arriving from a query document or variables into
// the value fetchers work with; its failures are user input errors.
// Serialize turns a fetcher's value back into its external form; its
// failures are server errors. Both accept nil, and each converter documents
// what it does with it.
package scalar

import (
	"errors"
	"fmt"

	"github.com/Protocol-Lattice/slingql/provider"
	"github.com/Protocol-Lattice/slingql/resolve"
)

// ErrConversion matches every *ConversionError.
var ErrConversion = errors.New("scalar conversion failed")

// Converter converts between the external and internal form of a scalar.
type Converter interface {
	Name() string
	Description() string
	ParseValue(input interface{}) (interface{}, error)
	Serialize(value interface{}) (interface{}, error)
}

// Op is the direction of a conversion.
type Op string

const (
	// OpParse converts external input to the internal form.
	OpParse Op = "parse"
	// OpSerialize converts an internal value to the external form.
	OpSerialize Op = "serialize"
)

// ConversionError reports a single value that could not be converted.
type ConversionError struct {
	Scalar string
	Op     Op
	Value  interface{}
	Err    error
}

// Error formats the scalar, direction and cause.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot %s %T value for scalar %s: %v", e.Op, e.Value, e.Scalar, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConversion) hold.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// IsParse reports whether the failure came from inbound input.
func (e *ConversionError) IsParse() bool {
	return e.Op == OpParse
}

// ParseError builds a parse-side ConversionError.
func ParseError(scalar string, value interface{}, format string, args ...interface{}) error {
	return &ConversionError{Scalar: scalar, Op: OpParse, Value: value, Err: fmt.Errorf(format, args...)}
}

// SerializeError builds a serialize-side ConversionError.
func SerializeError(scalar string, value interface{}, format string, args ...interface{}) error {
	return &ConversionError{Scalar: scalar, Op: OpSerialize, Value: value, Err: fmt.Errorf(format, args...)}
}

// Registry is an in-process pool of converters.
type Registry = provider.Registry[Converter]

// NewRegistry creates an empty converter pool.
func NewRegistry() *Registry {
	return provider.NewRegistry[Converter]()
}

// Register adds each converter to reg under its own name.
func Register(reg *Registry, origin string, converters ...Converter) error {
	for _, c := range converters {
		if _, err := reg.Register(c.Name(), origin, c); err != nil {
			return fmt.Errorf("register scalar %q: %w", c.Name(), err)
		}
	}
	return nil
}

// Selector picks the converter for a name. Converters have no fallback
// source; ambiguity and namespace rules are the same as for fetchers.
type Selector = resolve.Resolver[Converter]

// NewSelector creates a Selector over pool.
func NewSelector(pool provider.Pool[Converter], opts ...resolve.Option) *Selector {
	return resolve.New[Converter](pool, nil, opts...)
}
