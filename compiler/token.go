package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Kkipple lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Operands
	TokenStack     // A, io, @, &, 0, C
	TokenInteger   // 42
	TokenCharacter // 'a', '\n'
	TokenString    // "hello"

	// Operators
	TokenBinary // > < + -
	TokenUnary  // ? *

	// Delimiters
	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenStack:     "STACK",
	TokenInteger:   "INTEGER",
	TokenCharacter: "CHARACTER",
	TokenString:    "STRING",
	TokenBinary:    "BINARY",
	TokenUnary:     "UNARY",
	TokenLParen:    "(",
	TokenRParen:    ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // raw text for names and operators, decoded text for literals
	Pos     Position // start position

	// Spaced is set when whitespace or a comment separates this token from
	// the previous one. Unary operators only bind across unspaced tokens.
	Spaced bool
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved stack names and the canonical name each one resolves to.
var stackAliases = map[string]string{
	"o":  "io",
	"io": "io",
	"@":  "@",
	"&":  "&",
	"0":  "0",
	"C":  "C",
}

// CanonicalStackName folds the aliases of a stack name onto a single
// registry key, so that `o` and `io` address the same stack.
func CanonicalStackName(name string) string {
	if canon, ok := stackAliases[name]; ok {
		return canon
	}
	return name
}

// IsReservedStack reports whether name (after canonicalization) is one of
// the special stacks.
func IsReservedStack(name string) bool {
	_, ok := stackAliases[name]
	return ok
}

// IsStackChar returns true if r may appear in a stack name.
func IsStackChar(r rune) bool {
	switch {
	case r == '&', r == '@', r == '_':
		return true
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	}
	return false
}

// IsBinaryChar returns true if r is a binary operator character.
func IsBinaryChar(r rune) bool {
	switch r {
	case '>', '<', '+', '-':
		return true
	}
	return false
}

// IsUnaryChar returns true if r is a unary operator character.
func IsUnaryChar(r rune) bool {
	return r == '?' || r == '*'
}
