// Package errors defines the error taxonomy shared by all boostbin packages.
//
// Two kinds of failure exist in this library:
//
//   - API-boundary errors: malformed arguments handed in by a caller
//     (dimension mismatches, invalid configuration values). These are
//     returned as values of the types below and cooperate with the standard
//     errors.Is / errors.As machinery.
//
//   - Contract violations inside the hot accumulation loops: corrupted
//     internal state that cannot be recovered from. Those are never returned;
//     they panic through AssertionFailedf when validation is enabled.
//
// All error messages carry the "boostbin: " prefix so they are attributable
// when they surface through a larger training pipeline. Wrapping is built on
// cockroachdb/errors, so "%+v" formatting includes stack traces.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const prefix = "boostbin: "

// ErrNotImplemented is returned for functionality that is declared but not
// yet available.
var ErrNotImplemented = errors.New("not implemented")

// ValueError reports an invalid argument or configuration value.
type ValueError struct {
	Op      string // operation that rejected the value
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s%s: %s", prefix, e.Op, e.Message)
}

// DimensionError reports a mismatch between an expected and an actual
// dimension of an input buffer or matrix.
type DimensionError struct {
	Op        string
	Expected  int
	Got       int
	Dimension int // which axis mismatched (0 = rows, 1 = columns)
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, dimension int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Dimension: dimension}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s%s: dimension %d mismatch: expected %d, got %d",
		prefix, e.Op, e.Dimension, e.Expected, e.Got)
}

// NotFittedError reports use of a component before its required setup call.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s%s: %s called before setup completed", prefix, e.ModelName, e.Method)
}

// ModelError wraps a lower-level failure with the component it occurred in.
type ModelError struct {
	Model   string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping cause. Cause may be nil.
func NewModelError(model, message string, cause error) *ModelError {
	return &ModelError{Model: model, Message: message, Err: cause}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s%s: %s", prefix, e.Model, e.Message)
	}
	return fmt.Sprintf("%s%s: %s: %v", prefix, e.Model, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// AssertionFailedf builds an internal-invariant violation error. Callers in
// the accumulation hot paths panic with the result; these conditions indicate
// corrupted upstream state, not recoverable user input.
func AssertionFailedf(format string, args ...interface{}) error {
	return errors.AssertionFailedf(format, args...)
}

// Wrap annotates err with a message, preserving the chain for Is/As.
func Wrap(err error, message string) error {
	return errors.Wrap(err, prefix+message)
}
