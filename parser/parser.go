package parser

import (
	"fmt"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/lexer"
	"github.com/Protocol-Lattice/slingql/token"
)

// Parser parses GraphQL source code into an AST.
type Parser struct {
	l         *lexer.Lexer // The lexer to read tokens from
	curToken  token.Token  // Current token
	peekToken token.Token  // Next token
	errors    []string     // Problems found while parsing
}

// New creates a new Parser for the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Initialize two tokens
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the problems found while parsing. The parser recovers from
// them, so a document is always returned.
func (p *Parser) Errors() []string {
	return p.errors
}

// nextToken advances the parser to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// errorf records a problem at the current token.
func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.curToken.Line, msg))
}

// ParseDocument parses a GraphQL document.
func (p *Parser) ParseDocument() *ast.Document {
	doc := &ast.Document{}
	for p.curToken.Type != token.EOF {
		def := p.parseDefinition()
		if def != nil {
			doc.Definitions = append(doc.Definitions, def)
		}
	}
	return doc
}

// parseDefinition parses a single definition (operation, type or scalar).
func (p *Parser) parseDefinition() ast.Definition {
	description := p.parseDescription()
	// Handle operation definitions
	if p.curToken.Literal == "query" ||
		p.curToken.Literal == "mutation" ||
		p.curToken.Literal == "subscription" {
		return p.parseOperationDefinition()
	}
	// Handle implicit queries (starting with '{')
	if p.curToken.Type == token.LBRACE {
		return p.parseOperationDefinition()
	}
	if p.curToken.Type != token.IDENT {
		// Unknown definition, skip it
		p.nextToken()
		return nil
	}
	switch p.curToken.Literal {
	case "type", "interface", "input":
		def := p.parseTypeDefinition()
		if def != nil {
			def.Description = description
			return def
		}
		return nil
	case "scalar":
		def := p.parseScalarDefinition()
		if def != nil {
			def.Description = description
			return def
		}
		return nil
	case "extend":
		p.nextToken()
		return p.parseDefinition()
	case "enum", "schema":
		p.nextToken()
		if p.curToken.Type == token.IDENT {
			p.nextToken()
		}
		p.parseDirectives()
		p.skipBlock(token.LBRACE, token.RBRACE)
		return nil
	case "union":
		p.skipUnion()
		return nil
	case "directive":
		p.skipDirectiveDefinition()
		return nil
	}
	// Unknown definition, skip it
	p.nextToken()
	return nil
}

// parseDescription consumes an optional description string.
func (p *Parser) parseDescription() string {
	if p.curToken.Type == token.STRING || p.curToken.Type == token.BLOCK {
		d := p.curToken.Literal
		p.nextToken()
		return d
	}
	return ""
}

// parseOperationDefinition parses a query, mutation, or subscription operation.
func (p *Parser) parseOperationDefinition() *ast.OperationDefinition {
	op := &ast.OperationDefinition{}
	if p.curToken.Literal == "query" ||
		p.curToken.Literal == "mutation" ||
		p.curToken.Literal == "subscription" {
		op.Operation = p.curToken.Literal
		p.nextToken()
		if p.curToken.Type == token.IDENT {
			op.Name = p.curToken.Literal
			p.nextToken()
		}
		if p.curToken.Type == token.LPAREN {
			op.VariableDefinitions = p.parseVariableDefinitions()
		}
	} else {
		op.Operation = "query"
	}
	if p.curToken.Type == token.LBRACE {
		op.SelectionSet = p.parseSelectionSet()
	} else {
		p.errorf("expected selection set for %s, got %q", op.Operation, p.curToken.Literal)
		op.SelectionSet = &ast.SelectionSet{}
	}
	return op
}

// parseVariableDefinitions parses variable definitions for an operation.
func (p *Parser) parseVariableDefinitions() []ast.VariableDefinition {
	var vars []ast.VariableDefinition
	p.nextToken() // Skip '('
	for p.curToken.Type != token.RPAREN && p.curToken.Type != token.EOF {
		if p.curToken.Type != token.DOLLAR {
			p.errorf("unexpected %q in variable definitions", p.curToken.Literal)
			p.nextToken()
			continue
		}
		p.nextToken() // Skip '$'
		if p.curToken.Type != token.IDENT {
			p.errorf("expected variable name, got %q", p.curToken.Literal)
			return vars
		}
		varDef := ast.VariableDefinition{}
		varDef.Variable = p.curToken.Literal
		p.nextToken()
		if p.curToken.Type == token.COLON {
			p.nextToken()
			typeParsed := p.parseType()
			if typeParsed != nil {
				varDef.Type = *typeParsed
			}
		}
		if p.curToken.Type == token.ASSIGN {
			p.nextToken()
			p.parseValue()
		}
		vars = append(vars, varDef)
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	p.nextToken() // Skip ')'
	return vars
}

// parseSelectionSet parses a selection set (fields within braces).
func (p *Parser) parseSelectionSet() *ast.SelectionSet {
	ss := &ast.SelectionSet{}
	p.nextToken() // skip '{'
	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		sel := p.parseSelection()
		if sel != nil {
			ss.Selections = append(ss.Selections, sel)
		} else {
			p.errorf("unexpected %q in selection set", p.curToken.Literal)
			p.nextToken()
		}
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	if p.curToken.Type == token.EOF {
		p.errorf("unterminated selection set")
	}
	p.nextToken() // skip '}'
	return ss
}

// parseSelection parses a single selection (currently only fields).
func (p *Parser) parseSelection() ast.Selection {
	f := p.parseField()
	if f == nil {
		return nil
	}
	return f
}

// parseField parses a field selection, with an optional alias.
func (p *Parser) parseField() *ast.Field {
	field := &ast.Field{}
	if p.curToken.Type != token.IDENT {
		return nil
	}
	field.Name = p.curToken.Literal
	p.nextToken()
	if p.curToken.Type == token.COLON {
		p.nextToken() // skip ':'
		if p.curToken.Type != token.IDENT {
			p.errorf("expected field name after alias %q", field.Name)
			return field
		}
		field.Alias = field.Name
		field.Name = p.curToken.Literal
		p.nextToken()
	}
	if p.curToken.Type == token.LPAREN {
		field.Arguments = p.parseArguments()
	}
	// Directives on selections are accepted but not evaluated.
	p.parseDirectives()
	if p.curToken.Type == token.LBRACE {
		field.SelectionSet = p.parseSelectionSet()
	}
	return field
}

// parseArguments parses field or directive arguments.
func (p *Parser) parseArguments() []ast.Argument {
	var args []ast.Argument
	p.nextToken() // skip '('
	for p.curToken.Type != token.RPAREN && p.curToken.Type != token.EOF {
		if p.curToken.Type != token.IDENT {
			p.errorf("expected argument name, got %q", p.curToken.Literal)
			p.nextToken()
			continue
		}
		arg := ast.Argument{Name: p.curToken.Literal}
		p.nextToken()
		if p.curToken.Type == token.COLON {
			p.nextToken()
			arg.Value = p.parseValue()
		} else {
			p.errorf("expected ':' after argument %q", arg.Name)
		}
		args = append(args, arg)
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	if p.curToken.Type == token.EOF {
		p.errorf("unterminated argument list")
	}
	p.nextToken() // skip ')'
	return args
}

// parseDirectives parses zero or more "@name(args)" applications.
func (p *Parser) parseDirectives() ast.Directives {
	var ds ast.Directives
	for p.curToken.Type == token.AT {
		p.nextToken() // skip '@'
		if p.curToken.Type != token.IDENT {
			p.errorf("expected directive name, got %q", p.curToken.Literal)
			return ds
		}
		d := &ast.Directive{Name: p.curToken.Literal}
		p.nextToken()
		if p.curToken.Type == token.LPAREN {
			d.Arguments = p.parseArguments()
		}
		ds = append(ds, d)
	}
	return ds
}

// parseValue parses a value (string, number, boolean, null, enum, variable, object, array).
func (p *Parser) parseValue() *ast.Value {
	// Handle object literals
	if p.curToken.Type == token.LBRACE {
		return p.parseObject()
	}
	// Handle array literals
	if p.curToken.Type == token.LBRACKET {
		return p.parseArray()
	}

	val := &ast.Value{}
	switch p.curToken.Type {
	case token.INT:
		val.Kind = "Int"
		val.Literal = p.curToken.Literal
		p.nextToken()
	case token.FLOAT:
		val.Kind = "Float"
		val.Literal = p.curToken.Literal
		p.nextToken()
	case token.STRING, token.BLOCK:
		val.Kind = "String"
		val.Literal = p.curToken.Literal
		p.nextToken()
	case token.IDENT:
		// Handle booleans, null and enums
		switch p.curToken.Literal {
		case "true", "false":
			val.Kind = "Boolean"
		case "null":
			val.Kind = "Null"
		default:
			val.Kind = "Enum"
		}
		val.Literal = p.curToken.Literal
		p.nextToken()
	case token.DOLLAR:
		p.nextToken() // skip '$'
		val.Kind = "Variable"
		if p.curToken.Type == token.IDENT {
			val.Literal = p.curToken.Literal
			p.nextToken()
		} else {
			p.errorf("expected variable name after '$'")
		}
	default:
		p.errorf("unexpected %q in value", p.curToken.Literal)
		val.Kind = "Illegal"
		val.Literal = p.curToken.Literal
		p.nextToken()
	}
	return val
}

// parseObject parses a GraphQL object literal.
func (p *Parser) parseObject() *ast.Value {
	objFields := make(map[string]*ast.Value)
	p.nextToken() // Skip '{'
	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		if p.curToken.Type != token.IDENT {
			p.errorf("expected object key, got %q", p.curToken.Literal)
			p.skipBlockRest(token.LBRACE, token.RBRACE)
			return &ast.Value{Kind: "Illegal", Literal: "expected object key"}
		}
		key := p.curToken.Literal
		p.nextToken()
		if p.curToken.Type != token.COLON {
			p.errorf("expected ':' after object key %q", key)
			p.skipBlockRest(token.LBRACE, token.RBRACE)
			return &ast.Value{Kind: "Illegal", Literal: "expected colon in object"}
		}
		p.nextToken() // skip colon
		objFields[key] = p.parseValue()
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	p.nextToken() // Skip '}'
	return &ast.Value{
		Kind:         "Object",
		ObjectFields: objFields,
	}
}

// parseArray parses an array of values.
func (p *Parser) parseArray() *ast.Value {
	arr := []*ast.Value{}
	p.nextToken() // skip '['
	for p.curToken.Type != token.RBRACKET && p.curToken.Type != token.EOF {
		arr = append(arr, p.parseValue())
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	p.nextToken() // skip ']'
	return &ast.Value{Kind: "Array", List: arr}
}

// parseType parses a GraphQL type (e.g., String, [Int!], User!).
func (p *Parser) parseType() *ast.Type {
	var t ast.Type
	if p.curToken.Type == token.LBRACKET {
		// List type
		p.nextToken()              // Skip '['
		innerType := p.parseType() // Recursively parse the inner type
		if innerType == nil {
			return nil
		}
		t = ast.Type{IsList: true, Elem: innerType}
		if p.curToken.Type != token.RBRACKET {
			p.errorf("expected ']' to close list type, got %q", p.curToken.Literal)
			return &t
		}
		p.nextToken() // Skip ']'
		// Check for non-null on the list type
		if p.curToken.Type == token.BANG {
			t.NonNull = true
			p.nextToken()
		}
		return &t
	} else if p.curToken.Type == token.IDENT {
		// Basic type
		t = ast.Type{Name: p.curToken.Literal}
		p.nextToken()
		// Check for non-null on the basic type
		if p.curToken.Type == token.BANG {
			t.NonNull = true
			p.nextToken()
		}
		return &t
	}
	p.errorf("expected type, got %q", p.curToken.Literal)
	return nil
}

// parseTypeDefinition parses "type", "interface" and "input" definitions.
func (p *Parser) parseTypeDefinition() *ast.TypeDefinition {
	kind := p.curToken.Literal
	p.nextToken() // Skip the keyword
	if p.curToken.Type != token.IDENT {
		p.errorf("expected %s name, got %q", kind, p.curToken.Literal)
		return nil
	}
	def := &ast.TypeDefinition{Kind: kind, Name: p.curToken.Literal}
	p.nextToken() // Move past type name

	if p.curToken.Literal == "implements" {
		p.nextToken()
		for p.curToken.Type == token.IDENT || p.curToken.Type == token.AMP {
			if p.curToken.Type == token.IDENT {
				def.Interfaces = append(def.Interfaces, p.curToken.Literal)
			}
			p.nextToken()
		}
	}
	def.Directives = p.parseDirectives()

	// Expect an opening brace
	if p.curToken.Type != token.LBRACE {
		return def
	}
	p.nextToken() // Skip '{'

	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		field := p.parseFieldDefinition()
		if field != nil {
			def.Fields = append(def.Fields, field)
		} else {
			p.errorf("unexpected %q in %s %s", p.curToken.Literal, kind, def.Name)
			p.nextToken()
		}
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	p.nextToken() // Skip '}'
	return def
}

// parseFieldDefinition parses a field in a type definition, including its
// arguments, result type and directives.
func (p *Parser) parseFieldDefinition() *ast.FieldDefinition {
	description := p.parseDescription()
	if p.curToken.Type != token.IDENT {
		return nil
	}
	field := &ast.FieldDefinition{
		Name:        p.curToken.Literal,
		Description: description,
	}
	p.nextToken() // Consume the field name

	if p.curToken.Type == token.LPAREN {
		field.Arguments = p.parseArgumentDefinitions()
	}
	if p.curToken.Type != token.COLON {
		p.errorf("expected ':' after field %q", field.Name)
		return field
	}
	p.nextToken() // Skip the colon
	field.Type = p.parseType()
	if p.curToken.Type == token.ASSIGN {
		// Input field default
		p.nextToken()
		p.parseValue()
	}
	field.Directives = p.parseDirectives()
	return field
}

// parseArgumentDefinitions parses "(name: Type = default, ...)".
func (p *Parser) parseArgumentDefinitions() []*ast.InputValueDefinition {
	var defs []*ast.InputValueDefinition
	p.nextToken() // Skip '('
	for p.curToken.Type != token.RPAREN && p.curToken.Type != token.EOF {
		p.parseDescription()
		if p.curToken.Type != token.IDENT {
			p.errorf("expected argument name, got %q", p.curToken.Literal)
			p.nextToken()
			continue
		}
		def := &ast.InputValueDefinition{Name: p.curToken.Literal}
		p.nextToken()
		if p.curToken.Type == token.COLON {
			p.nextToken()
			def.Type = p.parseType()
		}
		if p.curToken.Type == token.ASSIGN {
			p.nextToken()
			def.DefaultValue = p.parseValue()
		}
		p.parseDirectives()
		defs = append(defs, def)
		if p.curToken.Type == token.COMMA {
			p.nextToken()
		}
	}
	p.nextToken() // Skip ')'
	return defs
}

// parseScalarDefinition parses "scalar Name @directives".
func (p *Parser) parseScalarDefinition() *ast.ScalarDefinition {
	p.nextToken() // Skip "scalar"
	if p.curToken.Type != token.IDENT {
		p.errorf("expected scalar name, got %q", p.curToken.Literal)
		return nil
	}
	def := &ast.ScalarDefinition{Name: p.curToken.Literal}
	p.nextToken()
	def.Directives = p.parseDirectives()
	return def
}

// skipBlock skips a balanced open/end block starting at the current token.
func (p *Parser) skipBlock(open, end token.TokenType) {
	if p.curToken.Type != open {
		return
	}
	p.nextToken() // Skip the opening token
	p.skipBlockRest(open, end)
}

// skipBlockRest skips to just past the end token balancing the block we
// are already inside.
func (p *Parser) skipBlockRest(open, end token.TokenType) {
	depth := 1
	for depth > 0 && p.curToken.Type != token.EOF {
		if p.curToken.Type == open {
			depth++
		} else if p.curToken.Type == end {
			depth--
		}
		p.nextToken()
	}
}

// skipUnion skips "union Name @dirs = A | B".
func (p *Parser) skipUnion() {
	p.nextToken() // Skip "union"
	if p.curToken.Type == token.IDENT {
		p.nextToken()
	}
	p.parseDirectives()
	if p.curToken.Type != token.ASSIGN {
		return
	}
	p.nextToken()
	if p.curToken.Type == token.PIPE {
		p.nextToken()
	}
	for p.curToken.Type == token.IDENT {
		p.nextToken()
		if p.curToken.Type != token.PIPE {
			return
		}
		p.nextToken()
	}
}

// skipDirectiveDefinition skips "directive @name(args) repeatable on A | B".
func (p *Parser) skipDirectiveDefinition() {
	p.nextToken() // Skip "directive"
	if p.curToken.Type == token.AT {
		p.nextToken()
	}
	if p.curToken.Type == token.IDENT {
		p.nextToken()
	}
	p.skipBlock(token.LPAREN, token.RPAREN)
	if p.curToken.Literal == "repeatable" {
		p.nextToken()
	}
	if p.curToken.Literal != "on" {
		return
	}
	p.nextToken()
	if p.curToken.Type == token.PIPE {
		p.nextToken()
	}
	for p.curToken.Type == token.IDENT {
		p.nextToken()
		if p.curToken.Type != token.PIPE {
			return
		}
		p.nextToken()
	}
}
