// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: oracle/oracle.go
// Summary: In-process evaluator for calculator token streams.
// Usage: oracle.New(opts) satisfies eval.Oracle.
// Notes: Grammar, loosest first:
//   sum     = product {(+|−) product}
//   product = unary {(×|÷) unary | power}   (juxtaposition multiplies)
//   unary   = (−|+) unary | power
//   power   = postfix [^ unary]
//   postfix = primary {! | % | ²}
//   primary = number | constant | function arg | ( sum [)]
// Unclosed parentheses at the end of the formula are closed implicitly.

package oracle

import (
	"context"
	"math"
	"math/big"
	"strings"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
)

// Options configure evaluation.
type Options struct {
	// Degrees makes trigonometric functions take and return degrees.
	Degrees bool
}

// Oracle evaluates formulas with complex128 arithmetic, keeping exact
// rationals while only rational operations are involved.
type Oracle struct {
	opts Options
}

// New returns an Oracle.
func New(opts Options) *Oracle {
	return &Oracle{opts: opts}
}

// Evaluate implements eval.Oracle.
func (o *Oracle) Evaluate(ctx context.Context, slot eval.Slot, tokens []expr.Token) (eval.Result, error) {
	if len(tokens) == 0 {
		return eval.Result{}, syntaxError()
	}
	p := &parser{ctx: ctx, tokens: tokens, degrees: o.opts.Degrees}
	v, err := p.parseSum()
	if err != nil {
		return eval.Result{}, err
	}
	if p.pos < len(p.tokens) {
		return eval.Result{}, syntaxError()
	}
	return v.result()
}

func syntaxError() error { return eval.NewError(eval.ErrSyntax, eval.MsgSyntax) }

type parser struct {
	ctx     context.Context
	tokens  []expr.Token
	pos     int
	degrees bool
}

func (p *parser) peek() (expr.Token, bool) {
	if p.pos >= len(p.tokens) {
		return expr.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (expr.Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// peekOp reports whether the next token is one of ops.
func (p *parser) peekOp(ops ...expr.Op) (expr.Op, bool) {
	tok, ok := p.peek()
	if !ok || tok.Kind != expr.KindOperator {
		return 0, false
	}
	for _, op := range ops {
		if tok.Op() == op {
			return op, true
		}
	}
	return 0, false
}

// startsOperand reports whether tok can begin a factor, which makes
// juxtaposition a multiplication ("2π", "3(4)", "2sin(1)").
func startsOperand(tok expr.Token) bool {
	switch tok.Kind {
	case expr.KindDigit, expr.KindDecimalPoint, expr.KindConstant:
		return true
	case expr.KindParen:
		return tok.IsOpen()
	case expr.KindFunction:
		return !tok.IsPostfix()
	}
	return false
}

func (p *parser) parseSum() (value, error) {
	left, err := p.parseProduct()
	if err != nil {
		return value{}, err
	}
	for {
		op, ok := p.peekOp(expr.OpAdd, expr.OpSub)
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return value{}, err
		}
		if op == expr.OpAdd {
			left = add(left, right)
		} else {
			left = sub(left, right)
		}
	}
}

func (p *parser) parseProduct() (value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return value{}, err
	}
	for {
		if op, ok := p.peekOp(expr.OpMul, expr.OpDiv); ok {
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return value{}, err
			}
			if op == expr.OpMul {
				left = mul(left, right)
				continue
			}
			if left, err = div(left, right); err != nil {
				return value{}, err
			}
			continue
		}
		tok, ok := p.peek()
		if !ok || !startsOperand(tok) {
			return left, nil
		}
		right, err := p.parsePower()
		if err != nil {
			return value{}, err
		}
		left = mul(left, right)
	}
}

func (p *parser) parseUnary() (value, error) {
	if op, ok := p.peekOp(expr.OpAdd, expr.OpSub); ok {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		if op == expr.OpSub {
			v = neg(v)
		}
		return v, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (value, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return value{}, err
	}
	if _, ok := p.peekOp(expr.OpPow); !ok {
		return base, nil
	}
	p.pos++
	exp, err := p.parseUnary()
	if err != nil {
		return value{}, err
	}
	return pow(base, exp)
}

func (p *parser) parsePostfix() (value, error) {
	v, err := p.parsePrimary()
	if err != nil {
		return value{}, err
	}
	for {
		tok, ok := p.peek()
		if !ok || !tok.IsPostfix() {
			return v, nil
		}
		p.pos++
		switch {
		case tok.Kind == expr.KindFunction:
			v = square(v)
		case tok.Op() == expr.OpPercent:
			v = percent(v)
		default:
			if v, err = factorial(v); err != nil {
				return value{}, err
			}
		}
	}
}

func (p *parser) parsePrimary() (value, error) {
	if err := p.ctx.Err(); err != nil {
		return value{}, err
	}
	tok, ok := p.next()
	if !ok {
		return value{}, syntaxError()
	}
	switch tok.Kind {
	case expr.KindDigit, expr.KindDecimalPoint:
		p.pos--
		return p.parseNumber()
	case expr.KindConstant:
		return constant(tok.Const()), nil
	case expr.KindParen:
		if !tok.IsOpen() {
			return value{}, syntaxError()
		}
		return p.parseGroup()
	case expr.KindFunction:
		if tok.IsPostfix() {
			return value{}, syntaxError()
		}
		arg, err := p.parseArgument()
		if err != nil {
			return value{}, err
		}
		return p.apply(tok.Func(), arg)
	}
	return value{}, syntaxError()
}

// parseGroup reads the inside of a parenthesis whose opener was consumed.
func (p *parser) parseGroup() (value, error) {
	v, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	tok, ok := p.next()
	switch {
	case !ok:
		return v, nil
	case tok.Kind == expr.KindParen && !tok.IsOpen():
		return v, nil
	}
	return value{}, syntaxError()
}

// parseArgument reads a function argument: a parenthesised group binds
// tightly ("sin(x)²" squares the sine), anything else is a unary term.
func (p *parser) parseArgument() (value, error) {
	tok, ok := p.peek()
	if ok && tok.Kind == expr.KindParen && tok.IsOpen() {
		p.pos++
		return p.parseGroup()
	}
	return p.parseUnary()
}

func (p *parser) parseNumber() (value, error) {
	var sb strings.Builder
	points := 0
	for {
		tok, ok := p.peek()
		if !ok || !tok.IsNumeric() {
			break
		}
		p.pos++
		if tok.Kind == expr.KindDecimalPoint {
			points++
			sb.WriteByte('.')
			continue
		}
		sb.WriteByte(byte('0' + tok.DigitValue()))
	}
	text := sb.String()
	if points > 1 || text == "." {
		return value{}, syntaxError()
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return value{}, syntaxError()
	}
	return keep(r), nil
}

func constant(c expr.Const) value {
	switch c {
	case expr.ConstPi:
		return inexact(math.Pi)
	case expr.ConstE:
		return inexact(math.E)
	}
	return cvalue(complex(0, 1))
}
