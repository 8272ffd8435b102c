// Package schema binds an SDL document to fetchers and scalar converters.
//
// Fields carrying @fetcher(name: "...", options: "...", source: "...") are
// bound to the fetcher the selector returns for that name, and scalars
// declared with @convertedBy(name: "...") to the matching converter. Binding
// happens once; the resulting Schema is read-only and safe to share.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/lexer"
	"github.com/Protocol-Lattice/slingql/parser"
	"github.com/Protocol-Lattice/slingql/scalar"
)

const (
	// FetcherDirective names the directive that binds a field to a fetcher.
	FetcherDirective = "fetcher"
	// ConverterDirective names the directive that binds a scalar to a converter.
	ConverterDirective = "convertedBy"
)

var (
	// ErrUnbound is wrapped by binding errors for names nothing answers to.
	ErrUnbound = errors.New("unbound name")
	// ErrSyntax is wrapped by Parse errors.
	ErrSyntax = errors.New("schema syntax error")
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// IsBuiltinScalar reports whether name is one of the GraphQL standard scalars.
func IsBuiltinScalar(name string) bool {
	return builtinScalars[name]
}

// Field is a schema field bound to a fetcher.
type Field struct {
	Parent      string               // Declaring type
	Def         *ast.FieldDefinition // Field definition
	FetcherName string               // Name given to @fetcher
	Origin      string               // Origin of the bound fetcher
	Options     string               // "options" argument of @fetcher
	Source      string               // "source" argument of @fetcher
	Fetcher     fetcher.Fetcher
}

// Schema is the bound form of an SDL document.
type Schema struct {
	types   map[string]*ast.TypeDefinition
	fields  map[string]map[string]*Field
	scalars map[string]scalar.Converter
}

// Parse lexes and parses SDL, failing on any syntax problem.
func Parse(sdl string) (*ast.Document, error) {
	p := parser.New(lexer.New(sdl))
	doc := p.ParseDocument()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, strings.Join(errs, "; "))
	}
	return doc, nil
}

// Bind resolves every @fetcher and @convertedBy in doc. All problems are
// reported together. logger may be nil.
func Bind(doc *ast.Document, fetchers *fetcher.Selector, scalars *scalar.Selector, logger hclog.Logger) (*Schema, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &binder{
		s: &Schema{
			types:   make(map[string]*ast.TypeDefinition),
			fields:  make(map[string]map[string]*Field),
			scalars: make(map[string]scalar.Converter),
		},
		fetchers: fetchers,
		scalars:  scalars,
		cache:    make(map[string]fetcher.Binding),
		logger:   logger,
	}
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.ScalarDefinition:
			b.bindScalar(d)
		case *ast.TypeDefinition:
			b.bindType(d)
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	logger.Debug("schema bound", "types", len(b.s.types), "fetchers", len(b.cache), "scalars", len(b.s.scalars))
	return b.s, nil
}

type binder struct {
	s        *Schema
	fetchers *fetcher.Selector
	scalars  *scalar.Selector
	cache    map[string]fetcher.Binding
	logger   hclog.Logger
	errs     []error
}

func (b *binder) bindScalar(d *ast.ScalarDefinition) {
	if IsBuiltinScalar(d.Name) {
		return
	}
	dir := d.Directives.Get(ConverterDirective)
	if dir == nil {
		b.errs = append(b.errs, fmt.Errorf("scalar %s: %w: missing @%s", d.Name, ErrUnbound, ConverterDirective))
		return
	}
	name, _ := dir.Arg("name")
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("scalar %s: @%s requires a name", d.Name, ConverterDirective))
		return
	}
	if b.scalars == nil {
		b.errs = append(b.errs, fmt.Errorf("scalar %s: %w: no converter pool configured", d.Name, ErrUnbound))
		return
	}
	binding, ok, err := b.scalars.ResolveBinding(name)
	switch {
	case err != nil:
		b.errs = append(b.errs, fmt.Errorf("scalar %s: %w", d.Name, err))
	case !ok:
		b.errs = append(b.errs, fmt.Errorf("scalar %s: %w: no converter named %q", d.Name, ErrUnbound, name))
	default:
		b.s.scalars[d.Name] = binding.Impl
		b.logger.Debug("bound scalar", "scalar", d.Name, "converter", name, "origin", binding.Origin)
	}
}

func (b *binder) bindType(d *ast.TypeDefinition) {
	if existing, ok := b.s.types[d.Name]; ok {
		merged := *existing
		merged.Fields = append(append([]*ast.FieldDefinition{}, existing.Fields...), d.Fields...)
		b.s.types[d.Name] = &merged
	} else {
		b.s.types[d.Name] = d
	}
	for _, f := range d.Fields {
		dir := f.Directives.Get(FetcherDirective)
		if dir == nil {
			continue
		}
		where := d.Name + "." + f.Name
		name, _ := dir.Arg("name")
		if name == "" {
			b.errs = append(b.errs, fmt.Errorf("%s: @%s requires a name", where, FetcherDirective))
			continue
		}
		binding, err := b.fetcher(name)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("%s: %w", where, err))
			continue
		}
		options, _ := dir.Arg("options")
		source, _ := dir.Arg("source")
		if b.s.fields[d.Name] == nil {
			b.s.fields[d.Name] = make(map[string]*Field)
		}
		b.s.fields[d.Name][f.Name] = &Field{
			Parent:      d.Name,
			Def:         f,
			FetcherName: name,
			Origin:      binding.Origin,
			Options:     options,
			Source:      source,
			Fetcher:     binding.Impl,
		}
		b.logger.Debug("bound fetcher", "field", where, "fetcher", name, "origin", binding.Origin)
	}
}

// fetcher resolves name once per Bind call.
func (b *binder) fetcher(name string) (fetcher.Binding, error) {
	if binding, ok := b.cache[name]; ok {
		return binding, nil
	}
	if b.fetchers == nil {
		return fetcher.Binding{}, fmt.Errorf("%w: no fetcher pool configured", ErrUnbound)
	}
	binding, ok, err := b.fetchers.ResolveBinding(name)
	if err != nil {
		return fetcher.Binding{}, err
	}
	if !ok {
		return fetcher.Binding{}, fmt.Errorf("%w: no fetcher named %q", ErrUnbound, name)
	}
	b.cache[name] = binding
	return binding, nil
}

// Type returns the type definition with the given name, or nil.
func (s *Schema) Type(name string) *ast.TypeDefinition {
	return s.types[name]
}

// FieldDef returns the definition of typeName.field, or nil.
func (s *Schema) FieldDef(typeName, field string) *ast.FieldDefinition {
	t := s.types[typeName]
	if t == nil {
		return nil
	}
	return t.Field(field)
}

// Fetcher returns the bound fetcher of typeName.field, or nil.
func (s *Schema) Fetcher(typeName, field string) *Field {
	return s.fields[typeName][field]
}

// Scalar returns the converter bound to a custom scalar type, or nil for
// standard scalars and non-scalar types.
func (s *Schema) Scalar(typeName string) scalar.Converter {
	return s.scalars[typeName]
}

// RootType returns the root type name for an operation kind, or "" when the
// schema does not declare it.
func (s *Schema) RootType(operation string) string {
	var name string
	switch operation {
	case "query", "":
		name = "Query"
	case "mutation":
		name = "Mutation"
	case "subscription":
		name = "Subscription"
	}
	if s.types[name] == nil {
		return ""
	}
	return name
}
