package models

import "fmt"

// ConfigurationError is fatal: the run stops before ingestion or assembly
// proceeds.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SourceError is scoped to one adapter. It degrades that source's block and
// never stops the run.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// CompletionError is returned by a completion engine when the model call fails.
// The pipeline turns it into a failed CompletionResult.
type CompletionError struct {
	Reason string
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion failed: %s: %v", e.Reason, e.Err)
	}
	return "completion failed: " + e.Reason
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// RenderError is scoped to one output format unless it prevents writing the
// degraded placeholder.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
