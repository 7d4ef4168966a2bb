// Package errors provides the error and warning taxonomy shared by the
// training and serving paths. Errors carry stack traces via cockroachdb/errors;
// non-fatal data-quality findings are routed through a process-wide warning
// hook instead of failing the pipeline.
package errors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warningMu      sync.Mutex
	warningHandler func(w error)
)

// SetWarningHandler installs the process-wide warning hook. The default
// handler discards warnings; cmd binaries wire it to zerolog at startup.
func SetWarningHandler(handler func(w error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	warningHandler = handler
}

// Warn emits a non-fatal warning through the installed hook.
func Warn(w error) {
	warningMu.Lock()
	h := warningHandler
	warningMu.Unlock()
	if h != nil {
		h(w)
	}
}

// UnexpectedValueWarning is emitted when a boolean-like column holds a value
// outside both synonym sets and the configured default is substituted.
// It never aborts processing.
type UnexpectedValueWarning struct {
	Column  string
	Value   string
	Default int
}

func (w *UnexpectedValueWarning) Error() string {
	return fmt.Sprintf("unexpected value %q in column %q, replaced with default (%d)", w.Value, w.Column, w.Default)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UnexpectedValueWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Str("value", w.Value).
		Int("default", w.Default).
		Str("type", "UnexpectedValueWarning")
}

// NewUnexpectedValueWarning creates a new UnexpectedValueWarning.
func NewUnexpectedValueWarning(column, value string, def int) *UnexpectedValueWarning {
	return &UnexpectedValueWarning{Column: column, Value: value, Default: def}
}

// ValidationError reports a structurally invalid request: required fields
// missing or values of the wrong shape. Surfaced to the caller as a client
// error; no partial processing happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, "; "))
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("fields", e.Fields).Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(fields ...string) error {
	return errors.WithStack(&ValidationError{Fields: fields})
}

// NotFittedError is returned when Transform is called on a pipeline stage
// whose Fit has not run.
type NotFittedError struct {
	Component string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: not fitted yet, call Fit() before %s()", e.Component, e.Method)
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(component, method string) error {
	return errors.WithStack(&NotFittedError{Component: component, Method: method})
}

// ArtifactError reports a model-artifact persistence failure. Op is "load"
// or "save": load failures are fatal for the inference service and
// recoverable for training; save failures are always recoverable.
type ArtifactError struct {
	Op   string
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// NewArtifactError creates an ArtifactError with a stack trace attached.
func NewArtifactError(op, path string, err error) error {
	return errors.WithStack(&ArtifactError{Op: op, Path: path, Err: err})
}

// TrainingError reports an unrecoverable training failure, for example a
// degenerate target or a search that produced no valid fit. Fatal for the
// training run; there is no fallback.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training failed in %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("training failed in %s", e.Stage)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// NewTrainingError creates a TrainingError with a stack trace attached.
func NewTrainingError(stage string, err error) error {
	return errors.WithStack(&TrainingError{Stage: stage, Err: err})
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}
