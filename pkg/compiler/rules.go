package compiler

import (
	"strconv"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/value"
)

// precedence levels, lowest to highest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix or infix parselet. canAssign tells an infix/
// prefix rule whether a trailing `=` may be consumed as an assignment
// target: only the outermost assignment-precedence expression may assign.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		lexer.TokenDot:          {infix: (*Compiler).dot, precedence: precCall},
		lexer.TokenMinus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		lexer.TokenPlus:         {infix: (*Compiler).binary, precedence: precTerm},
		lexer.TokenSlash:        {infix: (*Compiler).binary, precedence: precFactor},
		lexer.TokenStar:         {infix: (*Compiler).binary, precedence: precFactor},
		lexer.TokenBang:         {prefix: (*Compiler).unary},
		lexer.TokenBangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
		lexer.TokenEqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
		lexer.TokenGreater:      {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenGreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenLess:         {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenLessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
		lexer.TokenIdentifier:   {prefix: (*Compiler).variable},
		lexer.TokenString:       {prefix: (*Compiler).stringLiteral},
		lexer.TokenNumber:       {prefix: (*Compiler).number},
		lexer.TokenAnd:          {infix: (*Compiler).and, precedence: precAnd},
		lexer.TokenOr:           {infix: (*Compiler).or, precedence: precOr},
		lexer.TokenFalse:        {prefix: (*Compiler).literal},
		lexer.TokenTrue:         {prefix: (*Compiler).literal},
		lexer.TokenNil:          {prefix: (*Compiler).literal},
		lexer.TokenThis:         {prefix: (*Compiler).this},
		lexer.TokenSuper:        {prefix: (*Compiler).super},
	}
}

func getRule(kind lexer.TokenType) parseRule { return rules[kind] }

// parsePrecedence is the heart of the Pratt parser: it consumes one prefix
// expression and then greedily folds in infix operators whose precedence
// is at or above prec, emitting bytecode directly as it goes — no
// intermediate expression tree.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Type).prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefixRule(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infixRule := getRule(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) number(_ bool) {
	n, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(value.Number(n))
}

func (c *Compiler) stringLiteral(_ bool) {
	// The lexer already strips the surrounding quotes from a string token.
	c.emitConstant(value.FromObj(c.h.AllocateString(c.previous.Lexeme)))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case lexer.TokenFalse:
		c.emitByte(byte(bytecode.OpFalse))
	case lexer.TokenTrue:
		c.emitByte(byte(bytecode.OpTrue))
	case lexer.TokenNil:
		c.emitByte(byte(bytecode.OpNil))
	}
}

func (c *Compiler) unary(_ bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case lexer.TokenBang:
		c.emitByte(byte(bytecode.OpNot))
	case lexer.TokenMinus:
		c.emitByte(byte(bytecode.OpNegate))
	}
}

func (c *Compiler) binary(_ bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenBangEqual:
		c.emitBytes(byte(bytecode.OpEqual), byte(bytecode.OpNot))
	case lexer.TokenEqualEqual:
		c.emitByte(byte(bytecode.OpEqual))
	case lexer.TokenGreater:
		c.emitByte(byte(bytecode.OpGreater))
	case lexer.TokenGreaterEqual:
		c.emitBytes(byte(bytecode.OpLess), byte(bytecode.OpNot))
	case lexer.TokenLess:
		c.emitByte(byte(bytecode.OpLess))
	case lexer.TokenLessEqual:
		c.emitBytes(byte(bytecode.OpGreater), byte(bytecode.OpNot))
	case lexer.TokenPlus:
		c.emitByte(byte(bytecode.OpAdd))
	case lexer.TokenMinus:
		c.emitByte(byte(bytecode.OpSubtract))
	case lexer.TokenStar:
		c.emitByte(byte(bytecode.OpMultiply))
	case lexer.TokenSlash:
		c.emitByte(byte(bytecode.OpDivide))
	}
}

func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	endJump := c.emitJump(byte(bytecode.OpJump))

	c.patchJump(elseJump)
	c.emitByte(byte(bytecode.OpPop))

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argc := c.argumentList()
	c.emitBytes(byte(bytecode.OpCall), argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if argc == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitBytes(byte(bytecode.OpSetProperty), name)
	case c.match(lexer.TokenLeftParen):
		argc := c.argumentList()
		c.emitBytes(byte(bytecode.OpInvoke), name)
		c.emitByte(argc)
	default:
		c.emitBytes(byte(bytecode.OpGetProperty), name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) this(_ bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super(_ bool) {
	switch {
	case c.class == nil:
		c.error("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	c.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(lexer.TokenLeftParen) {
		argc := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(byte(bytecode.OpSuperInvoke), name)
		c.emitByte(argc)
	} else {
		c.namedVariable("super", false)
		c.emitBytes(byte(bytecode.OpGetSuper), name)
	}
}
