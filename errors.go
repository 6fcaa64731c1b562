package lambdify

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLambdifiable is the only error kind Lambdify returns. Callers that
	// receive it should evaluate through the algebra engine instead.
	ErrNotLambdifiable = errors.New("not lambdifiable")

	ErrNotTranslatable   = errors.New("not translatable")
	ErrCompilationFailed = errors.New("compilation failed")

	// ErrNotReal is returned by Function.Call when the result has a non-zero
	// imaginary part.
	ErrNotReal = errors.New("result is not real")
)

// NotTranslatableError reports a node that no translation rule accepts.
type NotTranslatableError struct {
	Tag    string
	Reason string
	Err    error
}

func (e *NotTranslatableError) Error() string {
	msg := fmt.Sprintf("cannot translate %q: %s", e.Tag, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotTranslatableError) Unwrap() error        { return e.Err }
func (e *NotTranslatableError) Is(target error) bool { return target == ErrNotTranslatable }

// CompilationError reports a target expression the backend could not build.
type CompilationError struct {
	Callable string
	Reason   string
	Err      error
}

func (e *CompilationError) Error() string {
	msg := "cannot compile"
	if e.Callable != "" {
		msg += fmt.Sprintf(" %q", e.Callable)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() error        { return e.Err }
func (e *CompilationError) Is(target error) bool { return target == ErrCompilationFailed }

// notLambdifiable flattens any pipeline failure. The cause survives only as
// text; errors.As cannot reach it.
func notLambdifiable(err error) error {
	return fmt.Errorf("%w: %s", ErrNotLambdifiable, err.Error())
}

// ============================================================
// call-time errors
// ============================================================

// ArityError is returned when a Function is invoked with the wrong number of
// arguments.
type ArityError struct {
	Want, Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("expected %d arguments, got %d", e.Want, e.Got)
}

// UnboundVariableError is returned when evaluation reaches a variable that is
// not one of the function's parameters.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("variable %q is not bound to a parameter", e.Name)
}

// EvalError is a domain or type failure raised by a native callable.
type EvalError struct {
	Callable string
	Err      error
}

func (e *EvalError) Error() string { return e.Callable + ": " + e.Err.Error() }
func (e *EvalError) Unwrap() error { return e.Err }

func evalErrorf(callable, format string, args ...interface{}) error {
	return &EvalError{Callable: callable, Err: fmt.Errorf(format, args...)}
}
