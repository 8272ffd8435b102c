// Package graphql provides a lightweight GraphQL server whose fields are
// served by named fetchers and whose custom scalars are handled by named
// converters, both bound from schema directives.
package graphql

import (
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/executor"
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/handler"
	"github.com/Protocol-Lattice/slingql/lexer"
	"github.com/Protocol-Lattice/slingql/parser"
	"github.com/Protocol-Lattice/slingql/provider"
	"github.com/Protocol-Lattice/slingql/registry"
	"github.com/Protocol-Lattice/slingql/resolve"
	"github.com/Protocol-Lattice/slingql/scalar"
	"github.com/Protocol-Lattice/slingql/schema"
	"github.com/Protocol-Lattice/slingql/token"
)

// ===========================
// Re-exported Types
// ===========================

// Token types
type (
	TokenType = token.TokenType
	Token     = token.Token
)

// Token constants
const (
	ILLEGAL  = token.ILLEGAL
	EOF      = token.EOF
	IDENT    = token.IDENT
	INT      = token.INT
	FLOAT    = token.FLOAT
	STRING   = token.STRING
	BLOCK    = token.BLOCK
	ASSIGN   = token.ASSIGN
	COLON    = token.COLON
	COMMA    = token.COMMA
	LPAREN   = token.LPAREN
	RPAREN   = token.RPAREN
	LBRACE   = token.LBRACE
	RBRACE   = token.RBRACE
	LBRACKET = token.LBRACKET
	RBRACKET = token.RBRACKET
	DOLLAR   = token.DOLLAR
	BANG     = token.BANG
	AT       = token.AT
)

// AST types
type (
	Node                = ast.Node
	Document            = ast.Document
	Definition          = ast.Definition
	OperationDefinition = ast.OperationDefinition
	TypeDefinition      = ast.TypeDefinition
	FieldDefinition     = ast.FieldDefinition
	ScalarDefinition    = ast.ScalarDefinition
	Directive           = ast.Directive
	Field               = ast.Field
	Value               = ast.Value
)

// Execution types
type (
	Fetcher     = fetcher.Fetcher
	FetcherFunc = fetcher.Func
	Env         = fetcher.Env
	Converter   = scalar.Converter
	Schema      = schema.Schema
	Executor    = executor.Executor
	Result      = executor.Result
	FieldError  = executor.FieldError
	Handler     = handler.Handler
)

// Lexer type
type Lexer = lexer.Lexer

// Parser type
type Parser = parser.Parser

// ===========================
// Convenience Functions
// ===========================

// NewLexer creates a new lexer for the given GraphQL source.
func NewLexer(input string) *Lexer {
	return lexer.New(input)
}

// NewParser creates a new parser for the given lexer.
func NewParser(l *Lexer) *Parser {
	return parser.New(l)
}

// ParseSchema parses SDL, failing on syntax errors.
func ParseSchema(sdl string) (*Document, error) {
	return schema.Parse(sdl)
}

// ===========================
// Global Registry Functions
// ===========================

// RegisterFetcher registers a fetcher in the global registry.
func RegisterFetcher(name, origin string, f Fetcher) (provider.Registration, error) {
	return registry.RegisterFetcher(name, origin, f)
}

// RegisterScalar registers scalar converters in the global registry.
func RegisterScalar(origin string, converters ...Converter) error {
	return registry.RegisterScalar(origin, converters...)
}

// ===========================
// Service
// ===========================

// Service is a schema bound to its fetchers and converters, ready to serve.
type Service struct {
	Schema   *Schema
	Executor *Executor
	Handler  *Handler
}

type buildOptions struct {
	fetchers provider.Pool[fetcher.Fetcher]
	scalars  provider.Pool[scalar.Converter]
	fallback provider.Fallback[fetcher.Fetcher]
	resolve  []resolve.Option
	logger   hclog.Logger
}

// Option configures Build.
type Option func(*buildOptions)

// WithFetchers sets the primary fetcher pool. The global registry is used otherwise.
func WithFetchers(pool provider.Pool[fetcher.Fetcher]) Option {
	return func(o *buildOptions) { o.fetchers = pool }
}

// WithScalars sets the scalar converter pool. The global registry is used otherwise.
func WithScalars(pool provider.Pool[scalar.Converter]) Option {
	return func(o *buildOptions) { o.scalars = pool }
}

// WithFallback sets the source consulted for fetcher names the pool lacks.
func WithFallback(fb provider.Fallback[fetcher.Fetcher]) Option {
	return func(o *buildOptions) { o.fallback = fb }
}

// WithResolveOptions passes options to both selectors.
func WithResolveOptions(opts ...resolve.Option) Option {
	return func(o *buildOptions) { o.resolve = append(o.resolve, opts...) }
}

// WithLogger sets the logger for binding, execution and transport.
func WithLogger(logger hclog.Logger) Option {
	return func(o *buildOptions) { o.logger = logger }
}

// Build parses sdl, binds it and wires an executor and HTTP handler to it.
func Build(sdl string, opts ...Option) (*Service, error) {
	o := &buildOptions{
		fetchers: registry.Fetchers(),
		scalars:  registry.Scalars(),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	doc, err := schema.Parse(sdl)
	if err != nil {
		return nil, err
	}
	s, err := schema.Bind(doc,
		fetcher.NewSelector(o.fetchers, o.fallback, o.resolve...),
		scalar.NewSelector(o.scalars, o.resolve...),
		o.logger.Named("schema"))
	if err != nil {
		return nil, err
	}
	exec := executor.New(s, executor.WithLogger(o.logger.Named("executor")))
	return &Service{
		Schema:   s,
		Executor: exec,
		Handler:  handler.New(exec, o.logger.Named("http")),
	}, nil
}

// Routes returns a mux serving queries on /graphql and subscriptions on
// /subscriptions.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", s.Handler)
	mux.HandleFunc("/subscriptions", s.Handler.Subscription)
	return mux
}
