package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Protocol-Lattice/slingql/token"
)

// Lexer tokenizes GraphQL source code, both executable documents and SDL.
type Lexer struct {
	input        string // The input string
	position     int    // Current position in input (points to current char)
	readPosition int    // Next reading position (after current char)
	ch           byte   // Current char under examination
	line         int    // Current line, 1-based
}

// New creates a new Lexer for the given input string.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// readChar advances the lexer to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII 0 signifies end-of-input
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the character after the current one without consuming it.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipIgnored()
	line := l.line
	switch l.ch {
	case '=':
		tok = token.Token{Type: token.ASSIGN, Literal: string(l.ch)}
	case ':':
		tok = token.Token{Type: token.COLON, Literal: string(l.ch)}
	case ',':
		tok = token.Token{Type: token.COMMA, Literal: string(l.ch)}
	case ';':
		tok = token.Token{Type: token.SEMICOLON, Literal: string(l.ch)}
	case '(':
		tok = token.Token{Type: token.LPAREN, Literal: string(l.ch)}
	case ')':
		tok = token.Token{Type: token.RPAREN, Literal: string(l.ch)}
	case '{':
		tok = token.Token{Type: token.LBRACE, Literal: string(l.ch)}
	case '}':
		tok = token.Token{Type: token.RBRACE, Literal: string(l.ch)}
	case '[':
		tok = token.Token{Type: token.LBRACKET, Literal: string(l.ch)}
	case ']':
		tok = token.Token{Type: token.RBRACKET, Literal: string(l.ch)}
	case '"':
		if strings.HasPrefix(l.input[l.position:], `"""`) {
			return token.Token{Type: token.BLOCK, Literal: l.readBlockString(), Line: line}
		}
		return token.Token{Type: token.STRING, Literal: l.readString(), Line: line}
	case '$':
		tok = token.Token{Type: token.DOLLAR, Literal: string(l.ch)}
	case '!':
		tok = token.Token{Type: token.BANG, Literal: string(l.ch)}
	case '@':
		tok = token.Token{Type: token.AT, Literal: string(l.ch)}
	case '|':
		tok = token.Token{Type: token.PIPE, Literal: string(l.ch)}
	case '&':
		tok = token.Token{Type: token.AMP, Literal: string(l.ch)}
	case 0:
		tok = token.Token{Type: token.EOF, Literal: ""}
	default:
		if isLetter(l.ch) {
			return token.Token{Type: token.IDENT, Literal: l.readIdentifier(), Line: line}
		} else if isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())) {
			lit, typ := l.readNumber()
			return token.Token{Type: typ, Literal: lit, Line: line}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Literal: string(l.ch)}
		}
	}
	tok.Line = line
	l.readChar()
	return tok
}

// skipIgnored advances the lexer past whitespace and "#" comments.
func (l *Lexer) skipIgnored() {
	for {
		switch l.ch {
		case ' ', '\t', '\n', '\r':
			l.readChar()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readIdentifier reads an identifier from the input.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads an integer or float literal from the input.
func (l *Lexer) readNumber() (string, token.TokenType) {
	start := l.position
	typ := token.INT
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		typ = token.FLOAT
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position], typ
}

// readString reads a string literal from the input, resolving escapes.
func (l *Lexer) readString() string {
	// skip opening quote
	l.readChar()
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'u':
				if l.readPosition+4 <= len(l.input) {
					if r, err := strconv.ParseUint(l.input[l.readPosition:l.readPosition+4], 16, 32); err == nil {
						sb.WriteRune(rune(r))
						for i := 0; i < 4; i++ {
							l.readChar()
						}
						break
					}
				}
				sb.WriteByte('u')
			case 0:
				return sb.String()
			default:
				sb.WriteByte(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	// skip closing quote
	if l.ch == '"' {
		l.readChar()
	}
	return sb.String()
}

// readBlockString reads a """ delimited string, used for SDL descriptions.
func (l *Lexer) readBlockString() string {
	for i := 0; i < 3; i++ {
		l.readChar()
	}
	start := l.position
	for l.ch != 0 && !strings.HasPrefix(l.input[l.position:], `"""`) {
		l.readChar()
	}
	str := l.input[start:l.position]
	for i := 0; i < 3 && l.ch != 0; i++ {
		l.readChar()
	}
	return strings.TrimSpace(str)
}

// isLetter checks if a byte is a letter or underscore.
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

// isDigit checks if a byte is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
