// Package executor abstracts the external tools pipeline steps delegate
// their work to. The runner only ever sees an exit status and captured
// output; everything a step actually does (network calls, file writes,
// process spawns) happens behind the Executor interface.
//
// Executors register by scheme. A step's image reference selects one:
//
//	shell                          -> shell
//	docker://alpine:3.20           -> docker
//	plugins/semantic-release       -> docker (bare image reference)
//	https://plugins.example/hook   -> webhook
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Spec is everything an executor needs to invoke one step. Secrets are
// resolved immediately before invocation and scoped to this spec; they are
// never part of the pipeline document.
type Spec struct {
	StepName string
	Image    string
	Commands []string
	Settings map[string]any
	Secrets  map[string]string
	Workdir  string
}

// Result is the outcome of one invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor invokes an external tool for a single step.
type Executor interface {
	// Execute runs the step to completion and reports its exit status.
	// A non-nil error means the tool could not be invoked at all; a
	// nonzero Result.ExitCode means it ran and failed.
	Execute(ctx context.Context, spec Spec) (Result, error)
}

// Error reports a failed executor invocation, carrying the step it
// originated from so the run report can attribute it.
type Error struct {
	Step   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("step %s: %s", e.Step, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// IsExecutorError returns true if the error originated in an executor.
func IsExecutorError(err error) bool {
	var ee *Error
	return errors.As(err, &ee)
}

// Registry maps image schemes to executors. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	fallback  string // scheme used for bare image references
}

// NewRegistry returns an empty registry whose bare-image fallback is the
// docker scheme.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		fallback:  SchemeDocker,
	}
}

const (
	SchemeShell   = "shell"
	SchemeDocker  = "docker"
	SchemeWebhook = "webhook"
)

// Register binds an executor to a scheme. Panics on duplicates, matching
// how misconfigured wiring should fail at startup rather than mid-run.
func (r *Registry) Register(scheme string, e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scheme == "" {
		panic("executor scheme cannot be empty")
	}
	if e == nil {
		panic(fmt.Sprintf("executor for scheme %q cannot be nil", scheme))
	}
	if _, exists := r.executors[scheme]; exists {
		panic(fmt.Sprintf("executor scheme %q already registered", scheme))
	}
	r.executors[scheme] = e
}

// ForImage resolves the executor responsible for an image reference.
func (r *Registry) ForImage(image string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scheme := schemeOf(image, r.fallback)
	e, ok := r.executors[scheme]
	if !ok {
		return nil, fmt.Errorf("no executor registered for scheme %q (image %q)", scheme, image)
	}
	return e, nil
}

// Schemes lists the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.executors))
	for s := range r.executors {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func schemeOf(image, fallback string) string {
	switch {
	case image == SchemeShell, strings.HasPrefix(image, "shell://"):
		return SchemeShell
	case strings.HasPrefix(image, "docker://"):
		return SchemeDocker
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return SchemeWebhook
	default:
		return fallback
	}
}
