// Package secret resolves named credentials for pipeline steps. Documents
// only ever carry names; values come from a host-provided store at
// invocation time and are scoped to the step being invoked.
package secret

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider resolves a named secret to its value.
type Provider interface {
	Resolve(name string) (string, error)
}

// NotFoundError reports a secret name the provider cannot resolve.
// The referencing step is failed before its executor is ever invoked.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("secret %q not found", e.Name)
}

// IsNotFound returns true if the error is a missing-secret error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Static resolves from a fixed map. Used in tests and for inline host config.
type Static map[string]string

func (s Static) Resolve(name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return v, nil
}

// Env resolves secrets from the process environment.
type Env struct{}

// NewEnv returns an environment-backed provider. If dotenvPath is non-empty
// the file is loaded into the environment first; a missing file is not an
// error so local setups without one keep working.
func NewEnv(dotenvPath string) Env {
	if dotenvPath != "" {
		_ = godotenv.Load(dotenvPath)
	}
	return Env{}
}

func (Env) Resolve(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return v, nil
}

// File resolves secrets from a flat YAML file of name: value pairs.
type File struct {
	values map[string]string
}

// NewFile loads a secrets file eagerly so malformed files fail at startup,
// not mid-run.
func NewFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}
	return &File{values: values}, nil
}

func (f *File) Resolve(name string) (string, error) {
	v, ok := f.values[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return v, nil
}

// Chain tries each provider in order, returning the first hit.
type Chain []Provider

func (c Chain) Resolve(name string) (string, error) {
	for _, p := range c {
		v, err := p.Resolve(name)
		if err == nil {
			return v, nil
		}
		if !IsNotFound(err) {
			return "", err
		}
	}
	return "", &NotFoundError{Name: name}
}
