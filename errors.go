package hickae

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Every error returned by this package carries one.
type Kind uint8

const (
	// KindParameter: the caller supplied an invalid configuration value.
	KindParameter Kind = iota + 1
	// KindState: a prerequisite step has not run, or was invalidated.
	KindState
	// KindRange: a writer index or subset is outside [0, n) or empty.
	KindRange
	// KindPrimitive: the pairing, hashing or randomness layer failed.
	KindPrimitive
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter error"
	case KindState:
		return "state error"
	case KindRange:
		return "range error"
	case KindPrimitive:
		return "primitive failure"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinels for errors.Is.
var (
	ErrParameter = &Error{Kind: KindParameter}
	ErrState     = &Error{Kind: KindState}
	ErrRange     = &Error{Kind: KindRange}
	ErrPrimitive = &Error{Kind: KindPrimitive}
)

// Error is the concrete error type returned by System operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "extract"
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return "hickae: " + e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("hickae: %s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("hickae: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("hickae: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrRange) holds for
// every range failure regardless of Op or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func paramErr(op, format string, args ...any) error {
	return &Error{Kind: KindParameter, Op: op, Err: fmt.Errorf(format, args...)}
}

func stateErr(op, format string, args ...any) error {
	return &Error{Kind: KindState, Op: op, Err: fmt.Errorf(format, args...)}
}

func rangeErr(op, format string, args ...any) error {
	return &Error{Kind: KindRange, Op: op, Err: fmt.Errorf(format, args...)}
}

func primitiveErr(op string, err error) error {
	return &Error{Kind: KindPrimitive, Op: op, Err: err}
}

// KindOf reports the Kind of err, or 0 if err was not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
