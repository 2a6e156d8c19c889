package errors

import (
	"fmt"
)

// ParseError represents a configuration file parsing failure with optional
// line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EnvironmentError indicates the container runtime or a required host tool
// is unreachable or returned an unusable response. Callers treat it as
// blocking.
type EnvironmentError struct {
	Component string
	Message   string
	Err       error
}

// NewEnvironmentError constructs an EnvironmentError for the named component.
func NewEnvironmentError(component, message string, err error) error {
	return &EnvironmentError{Component: component, Message: message, Err: err}
}

func (e *EnvironmentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Component != "" {
		return fmt.Sprintf("environment error [%s]: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("environment error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *EnvironmentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing an external
// command or launch step.
type ExecutionError struct {
	Op  string
	Err error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(op string, err error) error {
	return &ExecutionError{Op: op, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("execution error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
