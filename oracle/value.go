// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: oracle/value.go
// Summary: Complex values that remember an exact rational when they have one.

package oracle

import (
	"math"
	"math/big"
	"math/cmplx"

	"github.com/framegrace/texelcalc/eval"
)

// Limits on exact arithmetic; beyond them values continue in float64.
const (
	maxExactBits      = 1 << 14
	maxExactExponent  = 1 << 10
	maxExactFactorial = 1000
)

// value is an intermediate result. rat is non-nil while the value is a
// real rational known exactly.
type value struct {
	z   complex128
	rat *big.Rat
}

func exact(r *big.Rat) value {
	f, _ := r.Float64()
	return value{z: complex(f, 0), rat: r}
}

func inexact(f float64) value { return value{z: complex(f, 0)} }

func cvalue(z complex128) value { return value{z: z} }

func (v value) isReal() bool { return imag(v.z) == 0 }

func (v value) re() float64 { return real(v.z) }

func (v value) isZero() bool { return v.z == 0 }

// isInteger reports whether v is a real whole number.
func (v value) isInteger() bool {
	if v.rat != nil {
		return v.rat.IsInt()
	}
	return v.isReal() && !math.IsInf(v.re(), 0) && v.re() == math.Trunc(v.re())
}

func tooBig(r *big.Rat) bool {
	return r.Num().BitLen()+r.Denom().BitLen() > maxExactBits
}

func keep(r *big.Rat) value {
	if tooBig(r) {
		f, _ := r.Float64()
		return inexact(f)
	}
	return exact(r)
}

func add(a, b value) value {
	if a.rat != nil && b.rat != nil {
		return keep(new(big.Rat).Add(a.rat, b.rat))
	}
	return cvalue(a.z + b.z)
}

func sub(a, b value) value {
	if a.rat != nil && b.rat != nil {
		return keep(new(big.Rat).Sub(a.rat, b.rat))
	}
	return cvalue(a.z - b.z)
}

func mul(a, b value) value {
	if a.rat != nil && b.rat != nil {
		return keep(new(big.Rat).Mul(a.rat, b.rat))
	}
	if a.isReal() && b.isReal() {
		return inexact(a.re() * b.re())
	}
	return cvalue(a.z * b.z)
}

func div(a, b value) (value, error) {
	if b.isZero() {
		return value{}, eval.NewError(eval.ErrDomain, eval.MsgDivideByZero)
	}
	if a.rat != nil && b.rat != nil {
		return keep(new(big.Rat).Quo(a.rat, b.rat)), nil
	}
	if a.isReal() && b.isReal() {
		return inexact(a.re() / b.re()), nil
	}
	return cvalue(a.z / b.z), nil
}

func neg(a value) value {
	if a.rat != nil {
		return exact(new(big.Rat).Neg(a.rat))
	}
	return cvalue(-a.z)
}

func pow(a, b value) (value, error) {
	if a.isZero() && real(b.z) < 0 {
		return value{}, eval.NewError(eval.ErrDomain, eval.MsgDivideByZero)
	}
	if a.rat != nil && b.rat != nil && b.rat.IsInt() && b.rat.Num().IsInt64() {
		n := b.rat.Num().Int64()
		if n >= -maxExactExponent && n <= maxExactExponent &&
			int64(a.rat.Num().BitLen()+a.rat.Denom().BitLen())*abs64(n) <= maxExactBits {
			return exact(ratPow(a.rat, n)), nil
		}
	}
	if a.isReal() && b.isReal() && (a.re() >= 0 || b.isInteger()) {
		return inexact(math.Pow(a.re(), b.re())), nil
	}
	return cvalue(cmplx.Pow(a.z, b.z)), nil
}

func ratPow(r *big.Rat, n int64) *big.Rat {
	num := new(big.Int).Exp(r.Num(), big.NewInt(abs64(n)), nil)
	den := new(big.Int).Exp(r.Denom(), big.NewInt(abs64(n)), nil)
	if n < 0 {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den)
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func percent(a value) value {
	if a.rat != nil {
		return exact(new(big.Rat).Quo(a.rat, big.NewRat(100, 1)))
	}
	return cvalue(a.z / 100)
}

func square(a value) value { return mul(a, a) }

func factorial(a value) (value, error) {
	if !a.isReal() {
		return value{}, eval.NewError(eval.ErrDomain, eval.MsgDomain)
	}
	x := a.re()
	if a.isInteger() {
		if x < 0 {
			return value{}, eval.NewError(eval.ErrDomain, eval.MsgDomain)
		}
		if x <= maxExactFactorial {
			f := new(big.Int).MulRange(1, int64(x))
			return keep(new(big.Rat).SetInt(f)), nil
		}
		return inexact(math.Inf(1)), nil
	}
	return inexact(math.Gamma(x + 1)), nil
}

// result converts the final value for the session.
func (v value) result() (eval.Result, error) {
	re, im := real(v.z), imag(v.z)
	if math.IsNaN(re) || math.IsNaN(im) {
		return eval.Result{}, eval.NewError(eval.ErrNotANumber, eval.MsgNaN)
	}
	r := eval.Result{Real: re, Imag: im, Exact: v.rat != nil}
	if v.rat != nil && v.rat.IsInt() {
		r.WholeNumber = v.rat.Num().String()
	}
	return r, nil
}
