// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/token.go
// Summary: Token model for calculator formulas.
// Usage: Produced by Retokenize, consumed by evaluators and renderers.

package expr

import "fmt"

// Kind identifies the variant carried by a Token.
type Kind uint8

const (
	KindDigit Kind = iota
	KindOperator
	KindFunction
	KindConstant
	KindParen
	KindDecimalPoint
)

// Op is an operator token value.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpFactorial
	OpPercent
)

// Func is a function token value.
type Func uint8

const (
	FuncSin Func = iota
	FuncCos
	FuncTan
	FuncArcsin
	FuncArccos
	FuncArctan
	FuncLn
	FuncLog
	FuncExp
	FuncSqrt
	FuncSquare
)

// Const is a constant token value.
type Const uint8

const (
	ConstPi Const = iota
	ConstE
	ConstI
)

// Token is one atomic element of a formula. Value holds the digit, Op,
// Func or Const depending on Kind; for parens 1 means open.
type Token struct {
	Kind  Kind  `json:"k"`
	Value uint8 `json:"v"`
}

func Digit(d int) Token {
	if d < 0 || d > 9 {
		panic(fmt.Sprintf("expr: digit out of range: %d", d))
	}
	return Token{Kind: KindDigit, Value: uint8(d)}
}

func Operator(op Op) Token { return Token{Kind: KindOperator, Value: uint8(op)} }
func Function(f Func) Token { return Token{Kind: KindFunction, Value: uint8(f)} }
func Constant(c Const) Token { return Token{Kind: KindConstant, Value: uint8(c)} }
func DecimalPoint() Token { return Token{Kind: KindDecimalPoint} }

// Paren returns an opening or closing bracket.
func Paren(open bool) Token {
	if open {
		return Token{Kind: KindParen, Value: 1}
	}
	return Token{Kind: KindParen}
}

func (t Token) DigitValue() int { return int(t.Value) }
func (t Token) Op() Op { return Op(t.Value) }
func (t Token) Func() Func { return Func(t.Value) }
func (t Token) Const() Const { return Const(t.Value) }
func (t Token) IsOpen() bool { return t.Kind == KindParen && t.Value == 1 }

// IsBinary reports whether the token is an infix operator.
func (t Token) IsBinary() bool {
	if t.Kind != KindOperator {
		return false
	}
	switch t.Op() {
	case OpAdd, OpSub, OpMul, OpDiv, OpPow:
		return true
	}
	return false
}

// IsPostfix reports whether the token applies to the value on its left.
func (t Token) IsPostfix() bool {
	switch t.Kind {
	case KindOperator:
		return t.Op() == OpFactorial || t.Op() == OpPercent
	case KindFunction:
		return t.Func() == FuncSquare
	}
	return false
}

// IsNumeric reports whether the token is part of a number literal.
func (t Token) IsNumeric() bool {
	return t.Kind == KindDigit || t.Kind == KindDecimalPoint
}

func (k Kind) String() string {
	switch k {
	case KindDigit:
		return "Digit"
	case KindOperator:
		return "Operator"
	case KindFunction:
		return "Function"
	case KindConstant:
		return "Constant"
	case KindParen:
		return "Paren"
	case KindDecimalPoint:
		return "DecimalPoint"
	}
	return "Unknown"
}

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	case OpFactorial:
		return "factorial"
	case OpPercent:
		return "percent"
	}
	return "unknown"
}

func (f Func) String() string {
	switch f {
	case FuncSin:
		return "sin"
	case FuncCos:
		return "cos"
	case FuncTan:
		return "tan"
	case FuncArcsin:
		return "arcsin"
	case FuncArccos:
		return "arccos"
	case FuncArctan:
		return "arctan"
	case FuncLn:
		return "ln"
	case FuncLog:
		return "log"
	case FuncExp:
		return "exp"
	case FuncSqrt:
		return "sqrt"
	case FuncSquare:
		return "square"
	}
	return "unknown"
}

func (c Const) String() string {
	switch c {
	case ConstPi:
		return "pi"
	case ConstE:
		return "e"
	case ConstI:
		return "i"
	}
	return "unknown"
}

func (t Token) String() string {
	switch t.Kind {
	case KindDigit:
		return fmt.Sprintf("Digit(%d)", t.Value)
	case KindOperator:
		return fmt.Sprintf("Operator(%s)", t.Op())
	case KindFunction:
		return fmt.Sprintf("Function(%s)", t.Func())
	case KindConstant:
		return fmt.Sprintf("Constant(%s)", t.Const())
	case KindParen:
		if t.IsOpen() {
			return "Paren(open)"
		}
		return "Paren(close)"
	case KindDecimalPoint:
		return "DecimalPoint"
	}
	return "Unknown"
}

// Inverse returns the function bound to the same key in inverse mode.
func Inverse(f Func) (Func, bool) {
	switch f {
	case FuncSin:
		return FuncArcsin, true
	case FuncCos:
		return FuncArccos, true
	case FuncTan:
		return FuncArctan, true
	case FuncArcsin:
		return FuncSin, true
	case FuncArccos:
		return FuncCos, true
	case FuncArctan:
		return FuncTan, true
	case FuncLn:
		return FuncExp, true
	case FuncExp:
		return FuncLn, true
	case FuncSqrt:
		return FuncSquare, true
	case FuncSquare:
		return FuncSqrt, true
	}
	return f, false
}
