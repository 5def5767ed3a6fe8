// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: expr/table.go
// Summary: Spelling table mapping formula text to tokens.

package expr

import (
	"strings"
	"unicode/utf8"
)

// spelling binds one accepted text form to the token it produces.
type spelling struct {
	text  string
	token Token
}

// Canonical spellings, used for rendering.
var (
	opText = map[Op]string{
		OpAdd:       "+",
		OpSub:       "−",
		OpMul:       "×",
		OpDiv:       "÷",
		OpPow:       "^",
		OpFactorial: "!",
		OpPercent:   "%",
	}
	funcText = map[Func]string{
		FuncSin:    "sin",
		FuncCos:    "cos",
		FuncTan:    "tan",
		FuncArcsin: "sin⁻¹",
		FuncArccos: "cos⁻¹",
		FuncArctan: "tan⁻¹",
		FuncLn:     "ln",
		FuncLog:    "log",
		FuncExp:    "exp",
		FuncSqrt:   "√",
		FuncSquare: "²",
	}
	constText = map[Const]string{
		ConstPi: "π",
		ConstE:  "e",
		ConstI:  "i",
	}
)

// aliases accepted on input in addition to the canonical spellings.
var aliases = []spelling{
	{"-", Operator(OpSub)},
	{"*", Operator(OpMul)},
	{"/", Operator(OpDiv)},
	{"arcsin", Function(FuncArcsin)},
	{"arccos", Function(FuncArccos)},
	{"arctan", Function(FuncArctan)},
	{"asin", Function(FuncArcsin)},
	{"acos", Function(FuncArccos)},
	{"atan", Function(FuncArctan)},
	{"sqrt", Function(FuncSqrt)},
	{"pi", Constant(ConstPi)},
}

var spellings = buildSpellings()

func buildSpellings() []spelling {
	out := make([]spelling, 0, len(opText)+len(funcText)+len(constText)+len(aliases)+2)
	for op, text := range opText {
		out = append(out, spelling{text, Operator(op)})
	}
	for f, text := range funcText {
		out = append(out, spelling{text, Function(f)})
	}
	for c, text := range constText {
		out = append(out, spelling{text, Constant(c)})
	}
	out = append(out, spelling{"(", Paren(true)}, spelling{")", Paren(false)})
	return append(out, aliases...)
}

// lookup finds the longest spelling at the start of rest. pending is set
// when rest is itself a strict prefix of a longer spelling than the best
// full match, meaning the position cannot be resolved yet.
func lookup(rest string) (tok Token, n int, ok bool, pending bool) {
	bestRunes := 0
	for _, sp := range spellings {
		if strings.HasPrefix(rest, sp.text) {
			if r := utf8.RuneCountInString(sp.text); r > bestRunes {
				bestRunes = r
				tok = sp.token
				n = len(sp.text)
				ok = true
			}
		}
	}
	restRunes := utf8.RuneCountInString(rest)
	if restRunes <= bestRunes {
		return tok, n, ok, false
	}
	for _, sp := range spellings {
		if len(sp.text) > len(rest) && strings.HasPrefix(sp.text, rest) {
			return Token{}, 0, false, true
		}
	}
	return tok, n, ok, false
}
