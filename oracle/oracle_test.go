// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package oracle

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/framegrace/texelcalc/eval"
	"github.com/framegrace/texelcalc/expr"
)

func evaluate(t *testing.T, o *Oracle, text string) (eval.Result, error) {
	t.Helper()
	tokens, suffix := expr.Retokenize(text, expr.LocaleDot)
	if suffix != "" {
		t.Fatalf("%q left suffix %q", text, suffix)
	}
	return o.Evaluate(context.Background(), eval.MainSlot, tokens)
}

func TestEvaluateReal(t *testing.T) {
	tests := []struct {
		text  string
		want  float64
		whole string
	}{
		{"1+2", 3, "3"},
		{"2+3×4", 14, "14"},
		{"(2+3)×4", 20, "20"},
		{"2^3^2", 512, "512"},
		{"−2^2", -4, "-4"},
		{"2^−1", 0.5, ""},
		{"7÷2", 3.5, ""},
		{"1÷3×3", 1, "1"},
		{"5!", 120, "120"},
		{"0!", 1, "1"},
		{"50%", 0.5, ""},
		{"3²", 9, "9"},
		{"√16", 4, "4"},
		{"√2", math.Sqrt2, ""},
		{"2π", 2 * math.Pi, ""},
		{"2(3+1)", 8, "8"},
		{"(1+2", 3, "3"},
		{"ln(e)", 1, ""},
		{"log(1000)", 3, ""},
		{"exp(0)", 1, ""},
		{"sin(0)", 0, ""},
		{"sin(π)", 0, ""},
		{"cos(π)", -1, ""},
		{".5+1.", 1.5, ""},
		{"2sin(0)+1", 1, ""},
	}
	o := New(Options{})
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, err := evaluate(t, o, tt.text)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.text, err)
			}
			if r.Imag != 0 || math.Abs(r.Real-tt.want) > 1e-12 {
				t.Fatalf("Evaluate(%q) = %v%+vi, want %v", tt.text, r.Real, r.Imag, tt.want)
			}
			if r.WholeNumber != tt.whole {
				t.Fatalf("WholeNumber(%q) = %q, want %q", tt.text, r.WholeNumber, tt.whole)
			}
		})
	}
}

func TestEvaluateExactness(t *testing.T) {
	o := New(Options{})
	r, _ := evaluate(t, o, "1÷3")
	if !r.Exact {
		t.Fatalf("1÷3 should be exact")
	}
	r, _ = evaluate(t, o, "π")
	if r.Exact {
		t.Fatalf("π should not be exact")
	}
	r, _ = evaluate(t, o, "25!")
	if r.WholeNumber != "15511210043330985984000000" {
		t.Fatalf("25! = %q", r.WholeNumber)
	}
}

func TestEvaluateComplex(t *testing.T) {
	tests := []struct {
		text   string
		re, im float64
	}{
		{"√(−4)", 0, 2},
		{"i×i", -1, 0},
		{"3+2i", 3, 2},
		{"ln(−1)", 0, math.Pi},
		{"(1+i)²", 0, 2},
	}
	o := New(Options{})
	for _, tt := range tests {
		r, err := evaluate(t, o, tt.text)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.text, err)
		}
		if math.Abs(r.Real-tt.re) > 1e-12 || math.Abs(r.Imag-tt.im) > 1e-12 {
			t.Fatalf("Evaluate(%q) = %v%+vi, want %v%+vi", tt.text, r.Real, r.Imag, tt.re, tt.im)
		}
	}
}

func TestEvaluateDegrees(t *testing.T) {
	o := New(Options{Degrees: true})
	tests := []struct {
		text string
		want float64
	}{
		{"sin(90)", 1},
		{"cos(180)", -1},
		{"sin(−270)", 1},
		{"sin(30)", 0.5},
		{"tan(45)", 1},
		{"sin⁻¹(1)", 90},
	}
	for _, tt := range tests {
		r, err := evaluate(t, o, tt.text)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.text, err)
		}
		if math.Abs(r.Real-tt.want) > 1e-12 {
			t.Fatalf("Evaluate(%q) = %v, want %v", tt.text, r.Real, tt.want)
		}
	}
	if _, err := evaluate(t, o, "tan(90)"); !errors.Is(err, eval.ErrDomain) {
		t.Fatalf("tan(90) error = %v", err)
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		text string
		kind error
		msg  string
	}{
		{"1÷0", eval.ErrDomain, eval.MsgDivideByZero},
		{"0^−1", eval.ErrDomain, eval.MsgDivideByZero},
		{"ln(0)", eval.ErrDomain, eval.MsgDomain},
		{"(−1)!", eval.ErrDomain, eval.MsgDomain},
		{"1+", eval.ErrSyntax, eval.MsgSyntax},
		{"×2", eval.ErrSyntax, eval.MsgSyntax},
		{"2)", eval.ErrSyntax, eval.MsgSyntax},
		{"1.2.3", eval.ErrSyntax, eval.MsgSyntax},
		{"()", eval.ErrSyntax, eval.MsgSyntax},
	}
	o := New(Options{})
	for _, tt := range tests {
		_, err := evaluate(t, o, tt.text)
		var e *eval.Error
		if !errors.As(err, &e) || !errors.Is(err, tt.kind) || e.MessageID != tt.msg {
			t.Fatalf("Evaluate(%q) error = %v, want %v/%s", tt.text, err, tt.kind, tt.msg)
		}
	}
}

func TestEvaluateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tokens, _ := expr.Retokenize("1+2", expr.LocaleDot)
	if _, err := New(Options{}).Evaluate(ctx, eval.MainSlot, tokens); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
