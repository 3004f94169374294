package ingest

import (
	"errors"
	"fmt"
)

// ConfigError is a problem with a dataset's configuration or sources:
// a missing file, a malformed layout, an unknown parameter. It aborts
// the dataset.
type ConfigError struct {
	Dataset string
	Stage   Stage
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("dataset %s: configuration error: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s: configuration error: %v", e.Dataset, e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(dataset, format string, args ...any) *ConfigError {
	return &ConfigError{Dataset: dataset, Err: fmt.Errorf(format, args...)}
}

// UnresolvedError means a designation could not be resolved and the
// dataset's policy does not allow creating it.
type UnresolvedError struct {
	Dataset     string
	Designation string
	Source      string
	Line        int
	Err         error
}

func (e *UnresolvedError) Error() string {
	msg := fmt.Sprintf("dataset %s: unknown object %q at %s:%d", e.Dataset, e.Designation, e.Source, e.Line)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvedError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsUnresolvedError reports whether err is or wraps an *UnresolvedError.
func IsUnresolvedError(err error) bool {
	var target *UnresolvedError
	return errors.As(err, &target)
}
