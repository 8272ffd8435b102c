package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/scalar"
	"github.com/Protocol-Lattice/slingql/schema"
)

// Error codes reported in FieldError extensions.
const (
	CodeBadUserInput = "BAD_USER_INPUT"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// FieldError is a failure confined to one field of the response.
type FieldError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
	err        error
}

func (e *FieldError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.err
}

// Result is the outcome of executing an operation. Data is partial when
// Errors is not empty.
type Result struct {
	Data   map[string]interface{} `json:"data"`
	Errors []*FieldError          `json:"errors,omitempty"`
}

// Executor executes GraphQL operations against a bound schema.
type Executor struct {
	schema *schema.Schema
	logger hclog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used to report server-side field failures.
func WithLogger(logger hclog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New creates a new Executor for a bound schema.
func New(s *schema.Schema, opts ...Option) *Executor {
	e := &Executor{schema: s, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *schema.Schema {
	return e.schema
}

// Execute runs the first operation of a parsed document. Field failures end
// up in Result.Errors; the returned error is reserved for problems with the
// document as a whole.
func (e *Executor) Execute(ctx context.Context, doc *ast.Document, variables map[string]interface{}) (*Result, error) {
	if len(doc.Definitions) == 0 {
		return nil, fmt.Errorf("no definitions found")
	}
	op := firstOperation(doc)
	if op == nil {
		return nil, fmt.Errorf("unsupported definition type")
	}
	if op.Operation == "subscription" {
		return nil, fmt.Errorf("subscriptions must be executed with ExecuteSubscription")
	}
	root := e.schema.RootType(op.Operation)
	if root == "" {
		return nil, fmt.Errorf("schema does not support %s operations", op.Operation)
	}
	x := &execution{exec: e, ctx: ctx, variables: variables}
	data := x.selectionSet(root, nil, op.SelectionSet, nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{Data: data, Errors: x.errors}, nil
}

// ExecuteSubscription executes a subscription field and returns its channel of events.
func (e *Executor) ExecuteSubscription(ctx context.Context, field *ast.Field, variables map[string]interface{}) (<-chan interface{}, error) {
	root := e.schema.RootType("subscription")
	bound := e.schema.Fetcher(root, field.Name)
	if bound == nil {
		return nil, fmt.Errorf("no subscription fetcher found for field %s", field.Name)
	}
	x := &execution{exec: e, ctx: ctx, variables: variables}
	args, err := x.args(bound.Def, field)
	if err != nil {
		return nil, err
	}
	res, err := bound.Fetcher.Get(x.env(bound, nil, args))
	if err != nil {
		return nil, err
	}
	// Try to type assert to a read-only channel
	if ch, ok := res.(<-chan interface{}); ok {
		return ch, nil
	}
	// Otherwise, try to type assert to a bidirectional channel
	if ch, ok := res.(chan interface{}); ok {
		return (<-chan interface{})(ch), nil
	}
	return nil, fmt.Errorf("subscription fetcher for field %s did not return a channel", field.Name)
}

// Subscribe extracts the single subscription field of doc and executes it.
func (e *Executor) Subscribe(ctx context.Context, doc *ast.Document, variables map[string]interface{}) (<-chan interface{}, error) {
	op := firstOperation(doc)
	if op == nil {
		return nil, fmt.Errorf("no subscription definition found")
	}
	if op.Operation != "subscription" {
		return nil, fmt.Errorf("provided operation is not a subscription")
	}
	if op.SelectionSet == nil || len(op.SelectionSet.Selections) == 0 {
		return nil, fmt.Errorf("subscription selection set is empty")
	}
	field, ok := op.SelectionSet.Selections[0].(*ast.Field)
	if !ok {
		return nil, fmt.Errorf("invalid subscription field")
	}
	return e.ExecuteSubscription(ctx, field, variables)
}

func firstOperation(doc *ast.Document) *ast.OperationDefinition {
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			return op
		}
	}
	return nil
}

// execution carries the state of a single Execute call.
type execution struct {
	exec      *Executor
	ctx       context.Context
	variables map[string]interface{}
	errors    []*FieldError
}

func (x *execution) fail(path []interface{}, err error) {
	fe := &FieldError{Message: err.Error(), Path: path, err: err}
	var cerr *scalar.ConversionError
	switch {
	case errors.As(err, &cerr) && cerr.IsParse():
		fe.Extensions = map[string]interface{}{"code": CodeBadUserInput}
	case errors.As(err, &cerr):
		fe.Extensions = map[string]interface{}{"code": CodeInternal}
		x.exec.logger.Warn("cannot serialize field value", "path", path, "error", err)
	case errors.Is(err, errBadArgument):
		fe.Extensions = map[string]interface{}{"code": CodeBadUserInput}
	}
	x.errors = append(x.errors, fe)
}

func (x *execution) env(bound *schema.Field, source interface{}, args map[string]interface{}) *fetcher.Env {
	return &fetcher.Env{
		Context: x.ctx,
		Parent:  source,
		Args:    args,
		Options: bound.Options,
		Source:  bound.Source,
		Field:   bound.Def.Name,
		Type:    bound.Parent,
	}
}

// selectionSet traverses the selection set and resolves each field.
func (x *execution) selectionSet(typeName string, source interface{}, ss *ast.SelectionSet, path []interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	if ss == nil {
		return result
	}
	for _, sel := range ss.Selections {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		key := field.ResponseKey()
		if field.Name == "__typename" {
			result[key] = typeName
			continue
		}
		if x.ctx.Err() != nil {
			return result
		}
		result[key] = x.resolveField(typeName, source, field, appendPath(path, key))
	}
	return result
}

// resolveField looks up and runs the fetcher bound to a field, falling back
// to the parent value's own properties.
func (x *execution) resolveField(typeName string, source interface{}, field *ast.Field, path []interface{}) interface{} {
	def := x.exec.schema.FieldDef(typeName, field.Name)
	var res interface{}
	var err error
	if bound := x.exec.schema.Fetcher(typeName, field.Name); bound != nil {
		var args map[string]interface{}
		if args, err = x.args(def, field); err == nil {
			res, err = bound.Fetcher.Get(x.env(bound, source, args))
		}
	} else if source != nil {
		res, err = reflectResolve(source, field)
	} else {
		err = fmt.Errorf("no fetcher bound for field %s", field.Name)
	}
	if err != nil {
		x.fail(path, err)
		return nil
	}
	var t *ast.Type
	if def != nil {
		t = def.Type
	}
	return x.complete(t, res, field, path)
}

// complete shapes a raw field value according to its declared type:
// lists element by element, custom scalars through their converter, objects
// through the nested selection set.
func (x *execution) complete(t *ast.Type, res interface{}, field *ast.Field, path []interface{}) interface{} {
	if isNil(res) {
		return nil
	}
	if t != nil && t.IsList || t == nil && field.SelectionSet != nil && isSlice(res) {
		val := reflect.ValueOf(res)
		if !isSlice(res) {
			x.fail(path, fmt.Errorf("expected a list for field %s, got %T", field.Name, res))
			return nil
		}
		var elem *ast.Type
		if t != nil {
			elem = t.Elem
		}
		arr := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			arr[i] = x.complete(elem, val.Index(i).Interface(), field, appendPath(path, i))
		}
		return arr
	}
	typeName := ""
	if t != nil {
		typeName = t.Name
		if conv := x.exec.schema.Scalar(typeName); conv != nil {
			out, err := conv.Serialize(res)
			if err != nil {
				x.fail(path, err)
				return nil
			}
			return out
		}
	}
	if field.SelectionSet != nil {
		return x.selectionSet(typeName, res, field.SelectionSet, path)
	}
	return res
}

var errBadArgument = errors.New("bad argument")

// args builds the argument map for a field and converts arguments declared
// with a custom scalar type.
func (x *execution) args(def *ast.FieldDefinition, field *ast.Field) (map[string]interface{}, error) {
	args := buildArgs(field, x.variables)
	if def == nil {
		return args, nil
	}
	for _, a := range def.Arguments {
		v, present := args[a.Name]
		if !present && a.DefaultValue != nil {
			v, present = buildValue(a.DefaultValue, nil), true
			args[a.Name] = v
		}
		if a.Type == nil {
			continue
		}
		if (!present || v == nil) && a.Type.NonNull {
			return nil, fmt.Errorf("%w: argument %s of type %s is required", errBadArgument, a.Name, a.Type)
		}
		if !present {
			continue
		}
		conv := x.exec.schema.Scalar(a.Type.NamedType())
		if conv == nil {
			continue
		}
		parsed, err := parseArgument(conv, a.Type, v)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		args[a.Name] = parsed
	}
	return args, nil
}

// parseArgument runs ParseValue over a value, element-wise for list types.
func parseArgument(conv scalar.Converter, t *ast.Type, v interface{}) (interface{}, error) {
	if t.IsList {
		list, ok := v.([]interface{})
		if !ok {
			// A single value is accepted where a list is expected.
			return parseArgument(conv, t.Elem, v)
		}
		out := make([]interface{}, len(list))
		for i, item := range list {
			parsed, err := parseArgument(conv, t.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = parsed
		}
		return out, nil
	}
	return conv.ParseValue(v)
}

// reflectResolve finds a field value on a source struct or map.
func reflectResolve(source interface{}, field *ast.Field) (interface{}, error) {
	if m, ok := source.(map[string]interface{}); ok {
		return m[field.Name], nil
	}
	val := reflect.ValueOf(source)
	// Dereference pointer if needed
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("source is nil")
		}
		val = val.Elem()
	}
	if val.Kind() == reflect.Map && val.Type().Key().Kind() == reflect.String {
		v := val.MapIndex(reflect.ValueOf(field.Name).Convert(val.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("source is not a struct")
	}

	typ := val.Type()
	// Loop through all fields
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		// Check if the field name matches (case-insensitive)
		if strings.EqualFold(sf.Name, field.Name) {
			return val.Field(i).Interface(), nil
		}
		// Also check the "json" tag if present
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName := strings.Split(tag, ",")[0]
			if strings.EqualFold(tagName, field.Name) {
				return val.Field(i).Interface(), nil
			}
		}
	}

	return nil, fmt.Errorf("no fetcher found for field %s via reflection", field.Name)
}

// buildArgs constructs a map of argument names to values.
func buildArgs(field *ast.Field, variables map[string]interface{}) map[string]interface{} {
	args := make(map[string]interface{})
	for _, arg := range field.Arguments {
		if arg.Value == nil {
			continue
		}
		if arg.Value.Kind == "Variable" {
			if _, ok := variables[arg.Value.Literal]; !ok {
				continue
			}
		}
		args[arg.Name] = buildValue(arg.Value, variables)
	}
	return args
}

// buildValue converts an AST Value to a Go value.
func buildValue(val *ast.Value, variables map[string]interface{}) interface{} {
	if val == nil {
		return nil
	}
	switch val.Kind {
	case "Variable":
		if v, ok := variables[val.Literal]; ok {
			return v
		}
		return nil
	case "Int":
		i, err := strconv.Atoi(val.Literal)
		if err != nil {
			// Out of range for int; converters may still handle the literal.
			return val.Literal
		}
		return i
	case "Float":
		f, err := strconv.ParseFloat(val.Literal, 64)
		if err != nil {
			return val.Literal
		}
		return f
	case "String":
		return val.Literal
	case "Boolean":
		return val.Literal == "true"
	case "Null":
		return nil
	case "Object":
		m := make(map[string]interface{})
		for key, fieldVal := range val.ObjectFields {
			m[key] = buildValue(fieldVal, variables)
		}
		return m
	case "Array":
		arr := []interface{}{}
		for _, elem := range val.List {
			arr = append(arr, buildValue(elem, variables))
		}
		return arr
	default:
		return val.Literal
	}
}

func appendPath(path []interface{}, elem interface{}) []interface{} {
	out := make([]interface{}, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isSlice(v interface{}) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
