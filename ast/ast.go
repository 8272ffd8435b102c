package ast

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
}

// Document represents a complete GraphQL document.
// It contains a list of definitions (operations or type definitions).
type Document struct {
	Definitions []Definition
}

// TokenLiteral returns a string representation of the document.
func (d *Document) TokenLiteral() string {
	if len(d.Definitions) > 0 {
		return d.Definitions[0].TokenLiteral()
	}
	return ""
}

// Definition is an interface for all top-level definitions in a GraphQL document.
type Definition interface {
	Node
}

// OperationDefinition represents a GraphQL operation (query, mutation, or subscription).
type OperationDefinition struct {
	Operation           string               // "query", "mutation", or "subscription"
	Name                string               // Optional operation name
	VariableDefinitions []VariableDefinition // Variable definitions for this operation
	SelectionSet        *SelectionSet        // The fields to select
}

// TokenLiteral returns the operation name or type.
func (op *OperationDefinition) TokenLiteral() string {
	if op.Name != "" {
		return op.Name
	}
	return op.Operation
}

// VariableDefinition represents a variable definition in an operation.
type VariableDefinition struct {
	Variable string // Variable name (without $)
	Type     Type   // The type of the variable
}

// TokenLiteral returns the variable name.
func (v *VariableDefinition) TokenLiteral() string {
	return v.Variable
}

// Type represents a GraphQL type (e.g., String, [Int!], User).
type Type struct {
	Name    string // Base type name
	NonNull bool   // Whether the type is non-nullable (!)
	IsList  bool   // Whether the type is a list ([])
	Elem    *Type  // Element type if this is a list
}

// NamedType returns the innermost type name, unwrapping lists.
func (t *Type) NamedType() string {
	for t != nil && t.IsList {
		t = t.Elem
	}
	if t == nil {
		return ""
	}
	return t.Name
}

// String renders the type the way it is written in SDL.
func (t *Type) String() string {
	if t == nil {
		return ""
	}
	s := t.Name
	if t.IsList {
		s = "[" + t.Elem.String() + "]"
	}
	if t.NonNull {
		s += "!"
	}
	return s
}

// SelectionSet represents a set of fields to select.
type SelectionSet struct {
	Selections []Selection
}

// Selection is an interface for all selections (fields, fragments, etc.).
type Selection interface {
	Node
}

// Field represents a single field selection in a GraphQL query.
type Field struct {
	Alias        string        // Response key, when different from Name
	Name         string        // Field name
	Arguments    []Argument    // Field arguments
	SelectionSet *SelectionSet // Nested selections (if any)
}

// TokenLiteral returns the field name.
func (f *Field) TokenLiteral() string {
	return f.Name
}

// ResponseKey returns the key the field's value is reported under.
func (f *Field) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Argument represents an argument passed to a field.
type Argument struct {
	Name  string // Argument name
	Value *Value // Argument value
}

// TokenLiteral returns the argument name.
func (a *Argument) TokenLiteral() string {
	return a.Name
}

// Value represents a value in GraphQL (string, int, variable, object, array, etc.).
type Value struct {
	Kind         string            // "Int", "Float", "String", "Boolean", "Null", "Variable", "Enum", "Object", "Array"
	Literal      string            // The literal value
	ObjectFields map[string]*Value // For object values
	List         []*Value          // For array values
}

// TokenLiteral returns the literal value.
func (v *Value) TokenLiteral() string {
	return v.Literal
}

// Directive represents a directive applied in SDL, e.g. @fetcher(name: "x").
type Directive struct {
	Name      string     // Directive name (without @)
	Arguments []Argument // Directive arguments
}

// TokenLiteral returns the directive name.
func (d *Directive) TokenLiteral() string {
	return d.Name
}

// Arg returns the literal of a named argument and whether it was present.
func (d *Directive) Arg(name string) (string, bool) {
	for _, a := range d.Arguments {
		if a.Name == name && a.Value != nil {
			return a.Value.Literal, true
		}
	}
	return "", false
}

// Directives is a list of directives in source order.
type Directives []*Directive

// Get returns the first directive with the given name, or nil.
func (ds Directives) Get(name string) *Directive {
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// InputValueDefinition is an argument declared on a schema field.
type InputValueDefinition struct {
	Name         string // Argument name
	Type         *Type  // Declared type
	DefaultValue *Value // Default, if any
}

// FieldDefinition is a field declared in a type definition.
type FieldDefinition struct {
	Name        string                  // Field name
	Description string                  // Preceding description string, if any
	Arguments   []*InputValueDefinition // Declared arguments
	Type        *Type                   // Result type
	Directives  Directives              // Applied directives
}

// TokenLiteral returns the field name.
func (f *FieldDefinition) TokenLiteral() string {
	return f.Name
}

// Argument returns the declared argument with the given name, or nil.
func (f *FieldDefinition) Argument(name string) *InputValueDefinition {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeDefinition represents an object, interface or input type in a GraphQL
// schema (e.g., "type Query { ... }").
type TypeDefinition struct {
	Kind        string             // "type", "interface" or "input"
	Name        string             // Type name
	Description string             // Preceding description string, if any
	Interfaces  []string           // Implemented interfaces
	Directives  Directives         // Applied directives
	Fields      []*FieldDefinition // Fields in this type
}

// TokenLiteral returns the type name.
func (t *TypeDefinition) TokenLiteral() string {
	return t.Name
}

// Field returns the field definition with the given name, or nil.
func (t *TypeDefinition) Field(name string) *FieldDefinition {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ScalarDefinition represents "scalar Name @directive(...)".
type ScalarDefinition struct {
	Name        string     // Scalar name
	Description string     // Preceding description string, if any
	Directives  Directives // Applied directives
}

// TokenLiteral returns the scalar name.
func (s *ScalarDefinition) TokenLiteral() string {
	return s.Name
}
