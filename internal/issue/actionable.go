// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is an error with context for user-facing messages:
	// what was being attempted, which file or URL was involved, and what
	// the operator can do about it.
	//
	// Construct through the ErrorContext builder:
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("provision runtime").
	//		WithResource(archiveURL).
	//		WithSuggestion("Check network connectivity and retry").
	//		Wrap(downloadErr).
	//		BuildError()
	ActionableError struct {
		// Operation describes what was being attempted, as a verb phrase.
		Operation string

		// Resource identifies the file, path, or URL involved (optional).
		Resource string

		// Suggestions are operator fixes, most likely first (optional).
		Suggestions []string

		// Cause is the underlying error (optional).
		Cause error
	}

	// ErrorContext is a fluent builder for ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns the concise single-line message used for default output.
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying cause for use with errors.Is/As.
func (e *ActionableError) Unwrap() error { return e.Cause }

// Format returns the message with suggestions appended; verbose mode adds
// the full error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	for _, s := range e.Suggestions {
		msg.WriteString("\n  • ")
		msg.WriteString(s)
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}

	return msg.String()
}

// WithOperation sets the operation being performed, as a verb phrase
// ("provision runtime", "bootstrap pip").
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the file, path, or URL involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion adds an operator fix. May be called multiple times.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

// Wrap records the underlying error as the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build creates the ActionableError. Returns nil if no operation is set;
// an operation is the minimum useful context.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	e := c.err
	return &e
}

// BuildError is Build returning the error interface, for use directly in
// return statements.
func (c *ErrorContext) BuildError() error {
	e := c.Build()
	if e == nil {
		return nil
	}
	return e
}
