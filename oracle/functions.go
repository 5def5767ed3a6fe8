// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: oracle/functions.go
// Summary: Elementary functions over real and complex values.

package oracle

import (
	"math"
	"math/big"
	"math/cmplx"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
)

// trigNoise is the magnitude below which a trigonometric result of a
// non-tiny argument is taken to be zero.
const trigNoise = 1e-15

func (p *parser) apply(f expr.Func, v value) (value, error) {
	switch f {
	case expr.FuncSin, expr.FuncCos, expr.FuncTan:
		return p.trig(f, v)
	case expr.FuncArcsin, expr.FuncArccos, expr.FuncArctan:
		return p.inverseTrig(f, v), nil
	case expr.FuncLn:
		return logarithm(v, math.Log, cmplx.Log)
	case expr.FuncLog:
		return logarithm(v, math.Log10, cmplx.Log10)
	case expr.FuncExp:
		if v.isReal() {
			return inexact(math.Exp(v.re())), nil
		}
		return cvalue(cmplx.Exp(v.z)), nil
	case expr.FuncSqrt:
		return squareRoot(v), nil
	case expr.FuncSquare:
		return square(v), nil
	}
	return value{}, syntaxError()
}

func (p *parser) trig(f expr.Func, v value) (value, error) {
	if !v.isReal() {
		z := v.z
		if p.degrees {
			z *= math.Pi / 180
		}
		switch f {
		case expr.FuncSin:
			return cvalue(cmplx.Sin(z)), nil
		case expr.FuncCos:
			return cvalue(cmplx.Cos(z)), nil
		}
		return cvalue(cmplx.Tan(z)), nil
	}

	x := v.re()
	if p.degrees {
		if r, ok, err := quadrant(f, x); ok || err != nil {
			return r, err
		}
		x *= math.Pi / 180
	}
	var out float64
	switch f {
	case expr.FuncSin:
		out = math.Sin(x)
	case expr.FuncCos:
		out = math.Cos(x)
	default:
		out = math.Tan(x)
	}
	if math.Abs(out) < trigNoise && math.Abs(x) > 1e-3 {
		out = 0
	}
	return inexact(out), nil
}

// quadrant answers sin, cos and tan exactly at multiples of 90 degrees.
func quadrant(f expr.Func, deg float64) (value, bool, error) {
	if math.IsInf(deg, 0) || deg != math.Trunc(deg) || math.Mod(deg, 90) != 0 {
		return value{}, false, nil
	}
	q := int(math.Mod(deg/90, 4))
	if q < 0 {
		q += 4
	}
	sin := [4]int64{0, 1, 0, -1}[q]
	cos := [4]int64{1, 0, -1, 0}[q]
	switch f {
	case expr.FuncSin:
		return exact(big.NewRat(sin, 1)), true, nil
	case expr.FuncCos:
		return exact(big.NewRat(cos, 1)), true, nil
	}
	if cos == 0 {
		return value{}, true, eval.NewError(eval.ErrDomain, eval.MsgDomain)
	}
	return exact(big.NewRat(sin*cos, 1)), true, nil
}

func (p *parser) inverseTrig(f expr.Func, v value) value {
	var out value
	switch {
	case v.isReal() && f == expr.FuncArctan:
		out = inexact(math.Atan(v.re()))
	case v.isReal() && math.Abs(v.re()) <= 1 && f == expr.FuncArcsin:
		out = inexact(math.Asin(v.re()))
	case v.isReal() && math.Abs(v.re()) <= 1 && f == expr.FuncArccos:
		out = inexact(math.Acos(v.re()))
	case f == expr.FuncArcsin:
		out = cvalue(cmplx.Asin(v.z))
	case f == expr.FuncArccos:
		out = cvalue(cmplx.Acos(v.z))
	default:
		out = cvalue(cmplx.Atan(v.z))
	}
	if p.degrees {
		out = cvalue(out.z * (180 / math.Pi))
	}
	return out
}

func logarithm(v value, realFn func(float64) float64, complexFn func(complex128) complex128) (value, error) {
	if v.isZero() {
		return value{}, eval.NewError(eval.ErrDomain, eval.MsgDomain)
	}
	if v.isReal() && v.re() > 0 {
		return inexact(realFn(v.re())), nil
	}
	return cvalue(complexFn(v.z)), nil
}

func squareRoot(v value) value {
	if v.rat != nil && v.rat.Sign() >= 0 {
		if r, ok := ratSqrt(v.rat); ok {
			return exact(r)
		}
	}
	switch {
	case v.isReal() && v.re() >= 0:
		return inexact(math.Sqrt(v.re()))
	case v.isReal():
		return cvalue(complex(0, math.Sqrt(-v.re())))
	}
	return cvalue(cmplx.Sqrt(v.z))
}

// ratSqrt returns the exact root of r when numerator and denominator are
// both perfect squares.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	num := new(big.Int).Sqrt(r.Num())
	den := new(big.Int).Sqrt(r.Denom())
	if new(big.Int).Mul(num, num).Cmp(r.Num()) != 0 || new(big.Int).Mul(den, den).Cmp(r.Denom()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}
