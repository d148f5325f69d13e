// Package tyerr holds the errors inference produces: structural TypeError
// values, and reportable diagnostics which carry a code and a location
package tyerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/tyinfer/source"
)

// DebugStacks makes errors include where they were created when printed
var DebugStacks = false

const debugFullStacktrace = false

type ErrCode int

const (
	None ErrCode = iota
	TypeMismatch
	TypeErrorMessage
	CannotInferType
	CannotInferInt
	CannotInferFloat
	RegionUnsatisfiable
	InsufficientlyPolymorphic
	ProblemFile
)

// Error is a diagnostic ready to be shown to a user
type Error interface {
	Error() string
	Code() ErrCode
	source.Positioner

	withStack([]byte) Error
	getStack() []byte
}

func FormatWithCode(e Error) string {
	if DebugStacks && e.getStack() != nil {
		stack := string(e.getStack())
		if !debugFullStacktrace {
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E Error](err E) Error {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	source.Span
	stack []byte
}

func (e Unclassified) Error() string    { return fmt.Sprintf("unclassified error: %v", e.From) }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// NewMismatch reports that two values related for some origin did not match
type NewMismatch struct {
	source.Span
	// Headline describes the origin, like "mismatched types"
	Headline string
	// Values shows what was expected and what was found
	Values string
	Err    TypeError
	stack  []byte
}

func (e NewMismatch) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Headline, e.Values)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Headline, e.Values, e.Err)
}
func (e NewMismatch) Code() ErrCode {
	switch e.Err.(type) {
	case RegionsInsufficientlyPolymorphic, RegionsOverlyPolymorphic:
		return InsufficientlyPolymorphic
	}
	return TypeMismatch
}
func (e NewMismatch) getStack() []byte { return e.stack }
func (e NewMismatch) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// NewMessage is a free-form type error, optionally explained by a TypeError
type NewMessage struct {
	source.Span
	Msg   string
	Err   TypeError
	stack []byte
}

func (e NewMessage) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s (%s)", e.Msg, e.Err)
}
func (e NewMessage) Code() ErrCode    { return TypeErrorMessage }
func (e NewMessage) getStack() []byte { return e.stack }
func (e NewMessage) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type UnresolvedKind uint8

const (
	UnresolvedTy UnresolvedKind = iota
	UnresolvedInt
	UnresolvedFloat
)

// NewUnresolved reports a variable which nothing constrained
type NewUnresolved struct {
	source.Span
	Kind  UnresolvedKind
	Msg   string
	stack []byte
}

func (e NewUnresolved) Error() string { return e.Msg }
func (e NewUnresolved) Code() ErrCode {
	switch e.Kind {
	case UnresolvedInt:
		return CannotInferInt
	case UnresolvedFloat:
		return CannotInferFloat
	}
	return CannotInferType
}
func (e NewUnresolved) getStack() []byte { return e.stack }
func (e NewUnresolved) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// NewRegionError reports region constraints that cannot all hold
type NewRegionError struct {
	source.Span
	Msg   string
	stack []byte
}

func (e NewRegionError) Error() string    { return e.Msg }
func (e NewRegionError) Code() ErrCode    { return RegionUnsatisfiable }
func (e NewRegionError) getStack() []byte { return e.stack }
func (e NewRegionError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// NewProblemFile reports a malformed constraint problem
type NewProblemFile struct {
	source.Span
	Msg   string
	stack []byte
}

func (e NewProblemFile) Error() string    { return e.Msg }
func (e NewProblemFile) Code() ErrCode    { return ProblemFile }
func (e NewProblemFile) getStack() []byte { return e.stack }
func (e NewProblemFile) withStack(stack []byte) Error {
	e.stack = stack
	return e
}
