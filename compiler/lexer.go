package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Kkipple syntax
// ---------------------------------------------------------------------------

// maxSourceChar is the highest codepoint allowed anywhere in a program.
const maxSourceChar = 126

// Lexer tokenizes Kkipple source code.
type Lexer struct {
	input     string
	pos       int // offset of the next unread byte
	line      int // current line (1-based)
	lineStart int // offset of current line start
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
	}
}

// positionAt returns the position of offset, which must not lie before the
// start of the current line.
func (l *Lexer) positionAt(offset int) Position {
	return Position{
		Offset: offset,
		Line:   l.line,
		Column: offset - l.lineStart + 1,
	}
}

// advance consumes one byte, tracking line starts.
func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
}

func (l *Lexer) at(offset int) byte {
	if offset >= len(l.input) {
		return 0
	}
	return l.input[offset]
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	spaced := l.skipWhitespaceAndComments()
	tok := l.scan()
	tok.Spaced = spaced
	return tok
}

func (l *Lexer) scan() Token {
	pos := l.positionAt(l.pos)
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	if l.input[l.pos] > maxSourceChar {
		return l.invalidAt(l.pos)
	}
	r := rune(l.input[l.pos])
	ch := l.input[l.pos]

	switch {
	case IsBinaryChar(r):
		l.advance()
		return Token{Type: TokenBinary, Literal: string(ch), Pos: pos}

	case IsUnaryChar(r):
		l.advance()
		return Token{Type: TokenUnary, Literal: string(ch), Pos: pos}

	case ch == '(':
		l.advance()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}

	case ch == ')':
		l.advance()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}

	case IsStackChar(r) || (ch == '0' && !isDigit(l.at(l.pos+1))):
		return l.readStackName(pos)

	case isDigit(ch):
		return l.readNumber(pos)

	case ch == '\'':
		return l.readCharacter(pos)

	case ch == '"':
		return l.readString(pos)

	default:
		return l.invalidAt(l.pos)
	}
}

// skipWhitespaceAndComments skips whitespace and `#` line comments and
// reports whether anything was skipped.
func (l *Lexer) skipWhitespaceAndComments() bool {
	skipped := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
		case isSpace(ch):
			l.advance()
		default:
			return skipped
		}
		skipped = true
	}
	return skipped
}

// isSpace reports whether ch is ASCII whitespace, counting the file, group,
// record and unit separators (0x1c-0x1f).
func isSpace(ch byte) bool {
	if ch >= 0x1c && ch <= 0x1f {
		return true
	}
	return ch < utf8.RuneSelf && unicode.IsSpace(rune(ch))
}

// readStackName reads a stack name. A leading 0 is only part of a name when
// it is the first character.
func (l *Lexer) readStackName(pos Position) Token {
	start := l.pos
	if l.input[l.pos] == '0' {
		l.advance()
	}
	for l.pos < len(l.input) && IsStackChar(rune(l.input[l.pos])) {
		l.advance()
	}
	return Token{Type: TokenStack, Literal: l.input[start:l.pos], Pos: pos}
}

// readNumber reads a decimal integer literal.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

// readCharacter reads 'c', '\n' or '\c'. Literal holds the decoded char.
func (l *Lexer) readCharacter(pos Position) Token {
	start := l.pos
	unterminated := Token{Type: TokenError, Literal: "unterminated char literal", Pos: pos}

	if start+2 >= len(l.input) || (l.input[start+1] == '\\' && start+3 >= len(l.input)) {
		return unterminated
	}
	l.advance() // consume opening '

	var ch byte
	if l.input[l.pos] == '\\' {
		l.advance()
		ch = unescape(l.input[l.pos])
	} else {
		ch = l.input[l.pos]
	}
	if ch > maxSourceChar {
		return l.invalidAt(l.pos)
	}
	l.advance()

	if l.input[l.pos] != '\'' {
		return unterminated
	}
	l.advance() // consume closing '

	return Token{Type: TokenCharacter, Literal: string(ch), Pos: pos}
}

// readString reads a "..." literal. Literal holds the decoded text.
func (l *Lexer) readString(pos Position) Token {
	unterminated := Token{Type: TokenError, Literal: "unterminated string literal", Pos: pos}
	l.advance() // consume opening "

	var sb strings.Builder
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		ch := l.input[l.pos]
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				return unterminated
			}
			ch = unescape(l.input[l.pos])
		}
		if ch > maxSourceChar {
			return l.invalidAt(l.pos)
		}
		sb.WriteByte(ch)
		l.advance()
	}

	if l.pos >= len(l.input) {
		return unterminated
	}
	l.advance() // consume closing "

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

func (l *Lexer) invalidAt(offset int) Token {
	r, _ := utf8.DecodeRuneInString(l.input[offset:])
	return Token{Type: TokenError, Literal: fmt.Sprintf("invalid character %q", r), Pos: l.positionAt(offset)}
}

func unescape(ch byte) byte {
	if ch == 'n' {
		return '\n'
	}
	return ch
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
