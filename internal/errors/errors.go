// Package errors provides structured error types for component compilation
// and scanning. Template errors carry source location information so authors
// can be pointed at the offending line of a .weft file.
package errors

import (
	"errors"
	"fmt"
	"sync"
)

// ErrorSeverity represents the severity of a template error
type ErrorSeverity int

const (
	ErrorSeverityWarning ErrorSeverity = iota
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// TemplateError represents a compile-time failure in a component source,
// such as a malformed asset marker or an invalid template body. It is the
// syntax-error class for the whole compilation pipeline: encountering one
// aborts compilation of that component only.
type TemplateError struct {
	Component string
	File      string
	Line      int
	Column    int
	Message   string
	Severity  ErrorSeverity
}

// Error implements the error interface
func (te *TemplateError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", te.File, te.Line, te.Column, te.Severity, te.Message)
}

// SyntaxErrorf creates a TemplateError at the given source location.
func SyntaxErrorf(file string, line, column int, format string, args ...interface{}) *TemplateError {
	return &TemplateError{
		File:     file,
		Line:     line,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
		Severity: ErrorSeverityError,
	}
}

// IsTemplateError reports whether err is (or wraps) a TemplateError.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}

// ErrorCollector aggregates template errors across a scan so a single broken
// component does not abort discovery of the rest.
type ErrorCollector struct {
	templateErrors []*TemplateError
	errors         []error
	mutex          sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		templateErrors: make([]*TemplateError, 0),
		errors:         make([]error, 0),
	}
}

// Add adds a template error to the collector
func (ec *ErrorCollector) Add(err *TemplateError) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.templateErrors = append(ec.templateErrors, err)
}

// AddError adds a general error to the collector. Template errors are routed
// to the template error list so location data is not lost.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	var te *TemplateError
	if errors.As(err, &te) {
		ec.Add(te)
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// TemplateErrors returns a copy of all collected template errors.
func (ec *ErrorCollector) TemplateErrors() []*TemplateError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]*TemplateError, len(ec.templateErrors))
	copy(result, ec.templateErrors)
	return result
}

// All returns all collected errors, template and general.
func (ec *ErrorCollector) All() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	all := make([]error, 0, len(ec.templateErrors)+len(ec.errors))
	for _, te := range ec.templateErrors {
		all = append(all, te)
	}
	all = append(all, ec.errors...)
	return all
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.templateErrors) > 0 || len(ec.errors) > 0
}

// ByFile returns template errors recorded for a specific file.
func (ec *ErrorCollector) ByFile(file string) []*TemplateError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []*TemplateError
	for _, te := range ec.templateErrors {
		if te.File == file {
			out = append(out, te)
		}
	}
	return out
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.templateErrors = ec.templateErrors[:0]
	ec.errors = ec.errors[:0]
}
