package pipeline

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed or incomplete pipeline document.
// A pipeline that fails to load never runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("pipeline config: %s", e.Reason)
	}
	return fmt.Sprintf("pipeline config: %s: %s", e.Field, e.Reason)
}

// IsConfigError returns true if the error is a pipeline configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// PredicateError reports a malformed trigger or when clause.
// Detected at load time, before any step can run.
type PredicateError struct {
	Step   string // empty for the pipeline-level trigger
	Reason string
}

func (e *PredicateError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("pipeline trigger: %s", e.Reason)
	}
	return fmt.Sprintf("step %s: when: %s", e.Step, e.Reason)
}

// IsPredicateError returns true if the error is a predicate parse error.
func IsPredicateError(err error) bool {
	var pe *PredicateError
	return errors.As(err, &pe)
}
