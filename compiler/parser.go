package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: structural parser for Kkipple programs
// ---------------------------------------------------------------------------

// SyntaxError is a positioned parse failure.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// lastKind classifies the most recent meaningful token.
type lastKind int

const (
	lastNone    lastKind = iota
	lastStack            // a stack name
	lastLiteral          // an integer, char or string literal
	lastBinary           // a binary operator still waiting for its right operand
	lastLoop             // an open bracket still waiting for its stack
	lastUnary            // a run of unary operators
)

// pendingUnary is one operator of a unary run.
type pendingUnary struct {
	kind UnaryKind
	pos  Position
}

// frame is an open loop bracket.
type frame struct {
	pos    Position
	target *StackRef
	outer  []Op // ops accumulated at the enclosing depth
}

// Parser turns Kkipple source into a list of operations.
type Parser struct {
	lexer  *Lexer
	ops    []Op
	frames []frame

	last    lastKind
	lastPos Position
	lastArg Arg // operand for lastStack/lastLiteral, left operand for lastBinary
	binKind BinaryKind

	run      []pendingUnary
	runBound *StackRef // stack a unary run is chained to, if any
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse parses a complete program. It has no package state and may be
// called while another program is executing.
func Parse(input string) ([]Op, error) {
	return NewParser(input).Parse()
}

func (p *Parser) errorf(pos Position, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// awaitingOperand reports whether the previous token still needs a right
// operand (a binary operator) or a stack (an open bracket).
func (p *Parser) awaitingOperand() bool {
	return p.last == lastBinary || p.last == lastLoop
}

func (p *Parser) emit(op Op) {
	p.ops = append(p.ops, op)
}

// Parse consumes the whole input.
func (p *Parser) Parse() ([]Op, error) {
	for {
		tok := p.lexer.NextToken()
		// A token only chains to the previous one when nothing separates them.
		glued := !tok.Spaced && (p.last == lastStack || p.last == lastUnary)

		var err error
		switch tok.Type {
		case TokenEOF:
			return p.finish()
		case TokenError:
			return nil, p.errorf(tok.Pos, "%s", tok.Literal)
		case TokenBinary:
			err = p.parseBinary(tok)
		case TokenUnary:
			err = p.parseUnary(tok, glued)
		case TokenLParen:
			err = p.parseOpen(tok)
		case TokenRParen:
			err = p.parseClose(tok)
		case TokenStack:
			p.parseStack(tok, glued)
		case TokenInteger, TokenCharacter, TokenString:
			err = p.parseLiteral(tok)
		default:
			err = p.errorf(tok.Pos, "unexpected %s", tok.Type)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) finish() ([]Op, error) {
	if p.awaitingOperand() {
		return nil, p.errorf(p.lastPos, "missing right argument")
	}
	if len(p.frames) > 0 {
		return nil, p.errorf(p.frames[0].pos, "missing ) operators")
	}
	return p.ops, nil
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

func (p *Parser) parseBinary(tok Token) error {
	if p.awaitingOperand() {
		return p.errorf(p.lastPos, "missing right argument")
	}
	if p.last != lastStack && p.last != lastLiteral {
		return p.errorf(tok.Pos, "missing left argument")
	}
	kind := binaryKindOf(tok.Literal[0])
	if _, isStack := p.lastArg.(*StackRef); kind != CopyInto && !isStack {
		return p.errorf(tok.Pos, "invalid left argument")
	}
	p.binKind = kind
	p.last, p.lastPos = lastBinary, tok.Pos
	return nil
}

func (p *Parser) parseUnary(tok Token, glued bool) error {
	if p.awaitingOperand() {
		return p.errorf(p.lastPos, "missing right argument")
	}
	u := pendingUnary{kind: unaryKindOf(tok.Literal[0]), pos: tok.Pos}

	switch {
	case glued && p.last == lastStack:
		// Postfix: A? applies to A and starts a chain.
		p.runBound = p.lastArg.(*StackRef)
		p.run = []pendingUnary{u}
		p.emit(&UnaryOp{Kind: u.kind, Target: p.runBound, Position: u.pos})
	case glued && p.last == lastUnary:
		p.run = append(p.run, u)
		if p.runBound != nil {
			p.emit(&UnaryOp{Kind: u.kind, Target: p.runBound, Position: u.pos})
		}
	default:
		p.run = []pendingUnary{u}
		p.runBound = nil
	}
	p.last, p.lastPos = lastUnary, tok.Pos
	return nil
}

// ---------------------------------------------------------------------------
// Loop brackets
// ---------------------------------------------------------------------------

func (p *Parser) parseOpen(tok Token) error {
	if p.awaitingOperand() {
		return p.errorf(p.lastPos, "missing right argument")
	}
	p.last, p.lastPos = lastLoop, tok.Pos
	return nil
}

func (p *Parser) parseClose(tok Token) error {
	if p.awaitingOperand() {
		return p.errorf(p.lastPos, "missing right argument")
	}
	if len(p.frames) == 0 {
		return p.errorf(tok.Pos, "too many ) operators")
	}
	f := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]

	body := p.ops
	p.ops = f.outer
	p.emit(&LoopOp{Target: f.target, Body: body, Position: f.pos})

	p.last, p.lastPos, p.lastArg = lastNone, tok.Pos, nil
	return nil
}

// ---------------------------------------------------------------------------
// Operands
// ---------------------------------------------------------------------------

func (p *Parser) parseStack(tok Token, glued bool) {
	ref := &StackRef{Name: CanonicalStackName(tok.Literal)}

	switch {
	case p.last == lastBinary:
		p.emit(&BinaryOp{Kind: p.binKind, Left: p.lastArg, Right: ref, Position: p.lastPos})
	case glued && p.last == lastUnary:
		// Prefix: only the operator touching A binds, so ?*A is A*.
		u := p.run[len(p.run)-1]
		p.emit(&UnaryOp{Kind: u.kind, Target: ref, Position: u.pos})
	case p.last == lastLoop:
		p.frames = append(p.frames, frame{pos: p.lastPos, target: ref, outer: p.ops})
		p.ops = nil
	}

	p.last, p.lastPos, p.lastArg = lastStack, tok.Pos, ref
}

func (p *Parser) parseLiteral(tok Token) error {
	if p.last == lastLoop || (p.last == lastBinary && p.binKind == CopyInto) {
		return p.errorf(p.lastPos, "invalid right argument")
	}

	var arg Arg
	switch tok.Type {
	case TokenInteger:
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return p.errorf(tok.Pos, "integer literal %s out of range", tok.Literal)
		}
		arg = &IntLiteral{Value: v}
	case TokenCharacter:
		arg = &IntLiteral{Value: int64(tok.Literal[0])}
	default:
		codes := make([]int64, len(tok.Literal))
		for i := 0; i < len(tok.Literal); i++ {
			codes[i] = int64(tok.Literal[i])
		}
		arg = &ArrayLiteral{Codes: codes}
	}

	if p.last == lastBinary {
		p.emit(&BinaryOp{Kind: p.binKind, Left: p.lastArg, Right: arg, Position: p.lastPos})
	}
	p.last, p.lastPos, p.lastArg = lastLiteral, tok.Pos, arg
	return nil
}
