package lexer

import (
	"testing"

	"github.com/Protocol-Lattice/slingql/token"
)

func TestLexer_Numbers(t *testing.T) {
	input := "12345 67890"
	lexer := New(input)

	// First number.
	tok := lexer.NextToken()
	if tok.Type != token.INT {
		t.Fatalf("expected token type INT, got %s", tok.Type)
	}
	if tok.Literal != "12345" {
		t.Errorf("expected literal '12345', got %q", tok.Literal)
	}

	// Second number.
	tok = lexer.NextToken()
	if tok.Type != token.INT {
		t.Fatalf("expected token type INT, got %s", tok.Type)
	}
	if tok.Literal != "67890" {
		t.Errorf("expected literal '67890', got %q", tok.Literal)
	}

	// End of input.
	tok = lexer.NextToken()
	if tok.Type != token.EOF {
		t.Errorf("expected token type EOF, got %s", tok.Type)
	}
}

func TestLexer_Strings(t *testing.T) {
	input := `"hello world" "another string"`
	lexer := New(input)

	// First string.
	tok := lexer.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected token type STRING, got %s", tok.Type)
	}
	if tok.Literal != "hello world" {
		t.Errorf("expected literal 'hello world', got %q", tok.Literal)
	}

	// Second string.
	tok = lexer.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected token type STRING, got %s", tok.Type)
	}
	if tok.Literal != "another string" {
		t.Errorf("expected literal 'another string', got %q", tok.Literal)
	}

	// End of input.
	tok = lexer.NextToken()
	if tok.Type != token.EOF {
		t.Errorf("expected token type EOF, got %s", tok.Type)
	}
}

func TestLexer_IllegalCharacter(t *testing.T) {
	input := "%"
	lexer := New(input)

	tok := lexer.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected token type ILLEGAL, got %s", tok.Type)
	}
	if tok.Literal != "%" {
		t.Errorf("expected literal '%%', got %q", tok.Literal)
	}

	tok = lexer.NextToken()
	if tok.Type != token.EOF {
		t.Errorf("expected token type EOF, got %s", tok.Type)
	}
}

func TestLexer_Directive(t *testing.T) {
	input := `user: User @fetcher(name: "sling/user")`
	want := []token.Token{
		{Type: token.IDENT, Literal: "user"},
		{Type: token.COLON, Literal: ":"},
		{Type: token.IDENT, Literal: "User"},
		{Type: token.AT, Literal: "@"},
		{Type: token.IDENT, Literal: "fetcher"},
		{Type: token.LPAREN, Literal: "("},
		{Type: token.IDENT, Literal: "name"},
		{Type: token.COLON, Literal: ":"},
		{Type: token.STRING, Literal: "sling/user"},
		{Type: token.RPAREN, Literal: ")"},
		{Type: token.EOF, Literal: ""},
	}
	lexer := New(input)
	for i, w := range want {
		tok := lexer.NextToken()
		if tok.Type != w.Type || tok.Literal != w.Literal {
			t.Fatalf("token %d: expected %s %q, got %s %q", i, w.Type, w.Literal, tok.Type, tok.Literal)
		}
	}
}

func TestLexer_NumbersSignedAndFloat(t *testing.T) {
	tests := []struct {
		input string
		typ   token.TokenType
	}{
		{"-42", token.INT},
		{"3.14", token.FLOAT},
		{"-0.5", token.FLOAT},
		{"1e10", token.FLOAT},
		{"6.02E-23", token.FLOAT},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.input {
			t.Errorf("%s: expected %s, got %s %q", tt.input, tt.typ, tok.Type, tok.Literal)
		}
	}
}

func TestLexer_CommentsAndLines(t *testing.T) {
	input := "# leading comment\n  hello # trailing\nworld"
	lexer := New(input)

	tok := lexer.NextToken()
	if tok.Literal != "hello" || tok.Line != 2 {
		t.Fatalf("expected hello on line 2, got %q on line %d", tok.Literal, tok.Line)
	}
	tok = lexer.NextToken()
	if tok.Literal != "world" || tok.Line != 3 {
		t.Fatalf("expected world on line 3, got %q on line %d", tok.Literal, tok.Line)
	}
	if tok = lexer.NextToken(); tok.Type != token.EOF {
		t.Errorf("expected EOF, got %s", tok.Type)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	tok := New(`"a\"b\n\u00e9"`).NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	if tok.Literal != "a\"b\n\u00e9" {
		t.Errorf("unexpected literal %q", tok.Literal)
	}
}

func TestLexer_BlockString(t *testing.T) {
	lexer := New(`"""
  A user of the system.
""" type`)
	tok := lexer.NextToken()
	if tok.Type != token.BLOCK || tok.Literal != "A user of the system." {
		t.Fatalf("expected block string, got %s %q", tok.Type, tok.Literal)
	}
	if tok = lexer.NextToken(); tok.Literal != "type" {
		t.Errorf("expected type, got %q", tok.Literal)
	}
}
