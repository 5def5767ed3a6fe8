// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: eval/errors.go
// Summary: Evaluation error kinds and their message identifiers.

package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/framegrace/texelcalc/numfmt"
)

// Error kinds. Evaluators report one of these wrapped in an *Error.
var (
	ErrSyntax     = errors.New("syntax error")
	ErrDomain     = errors.New("domain error")
	ErrNotANumber = numfmt.ErrNotANumber
)

// Message identifiers shown by the display surface.
const (
	MsgSyntax       = "error_syntax"
	MsgNaN          = "error_nan"
	MsgDivideByZero = "error_zero"
	MsgDomain       = "error_domain"
	MsgOverflow     = "error_overflow"
	MsgTimeout      = "error_timeout"
)

// Error is an opaque (kind, messageID) pair reported by an evaluator.
type Error struct {
	Kind      error
	MessageID string
}

// NewError builds an *Error of the given kind.
func NewError(kind error, messageID string) *Error {
	return &Error{Kind: kind, MessageID: messageID}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (%s)", e.Kind, e.MessageID)
}

func (e *Error) Unwrap() error { return e.Kind }

// Classify reduces any evaluator error to an *Error. Unknown errors are
// reported as domain errors.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, ErrNotANumber):
		return NewError(ErrNotANumber, MsgNaN)
	case errors.Is(err, numfmt.ErrOverflow):
		return NewError(ErrDomain, MsgOverflow)
	case errors.Is(err, ErrSyntax):
		return NewError(ErrSyntax, MsgSyntax)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrDomain, MsgTimeout)
	}
	return NewError(ErrDomain, MsgDomain)
}
