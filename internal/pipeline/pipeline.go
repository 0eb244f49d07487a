// Package pipeline defines the pipeline document model and loader.
//
// A pipeline is an ordered, flat list of steps. Each step delegates its work
// to an external executor (a tool image, a shell command, a plugin endpoint)
// and is gated by a predicate over the triggering event. There is no DAG and
// no parallelism: declaration order is execution order.
package pipeline

import "gopkg.in/yaml.v3"

// Pipeline is the loaded, validated, read-only form of a pipeline document.
type Pipeline struct {
	Name    string
	Trigger Predicate // gates whether the pipeline runs at all
	Cron    string    // optional cron expression for scheduled triggering
	Steps   []Step
}

// Step is one unit of work, gated by its condition.
type Step struct {
	Name          string
	Image         string // executor reference, e.g. shell, docker://alpine:3.20, https://plugin.example/hook
	Commands      []string
	Settings      map[string]Setting
	Condition     Predicate
	IgnoreFailure bool // continue past a nonzero exit instead of halting
}

// Setting is one opaque settings value: either a literal passed through to
// the executor, or a named secret indirection resolved at invocation time.
// Secret values never appear in the document itself.
type Setting struct {
	Literal    any
	FromSecret string
}

// IsSecret reports whether the setting is a secret indirection.
func (s Setting) IsSecret() bool { return s.FromSecret != "" }

// UnmarshalYAML accepts either a scalar/sequence literal or the
// {from_secret: name} form.
func (s *Setting) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var ref struct {
			FromSecret string `yaml:"from_secret"`
		}
		if err := node.Decode(&ref); err == nil && ref.FromSecret != "" {
			s.FromSecret = ref.FromSecret
			return nil
		}
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	s.Literal = v
	return nil
}
