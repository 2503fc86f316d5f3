// Package faults defines the structured error type shared by every sealkit package.
//
// Callers should branch on Kind or Code rather than matching error strings.
// Error() strings are kept human-readable and may evolve; use errors.As to
// extract *Error, or the IsKind/CodeOf/Is helpers.
package faults

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	KindInvalidType      Kind = "InvalidType"
	KindInvalidArgument  Kind = "InvalidArgument"
	KindOutOfBounds      Kind = "OutOfBounds"
	KindInvalidKeyLength Kind = "InvalidKeyLength"
	KindUnsupported      Kind = "Unsupported"
	KindReleased         Kind = "Released"
	KindOutOfRange       Kind = "OutOfRange"
	KindAuthentication   Kind = "Authentication"
	KindMalformed        Kind = "Malformed"
)

// Error is the library's structured error type.
//
// Code names the violated bound or precondition and never changes meaning
// between releases. Context carries the offending values (offsets, sizes,
// algorithm ids) for diagnostics.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Context) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return e.Message + " (" + strings.Join(parts, " ") + ")"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// With returns e with key set in its context map.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 2)
	}
	e.Context[key] = value
	return e
}

// New returns an *Error whose Kind is taken from the code table.
func New(code Code, msg string) *Error {
	return &Error{Kind: code.Kind(), Code: code, Message: msg}
}

// Newf is New with fmt formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap is New with an underlying cause. A nil cause is allowed.
func Wrap(code Code, msg string, cause error) *Error {
	e := New(code, msg)
	e.Cause = cause
	return e
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CodeOf returns the stable Code for a structured error, or 0 if unknown.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Code
}

// Is reports whether err is (or wraps) a *Error carrying code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
