package pipeline

import (
	"os"

	"gopkg.in/yaml.v3"
)

// document is the raw YAML shape of a pipeline file.
type document struct {
	Kind  string    `yaml:"kind"`
	Name  string    `yaml:"name"`
	Cron  string    `yaml:"cron"`
	Trig  *whenDoc  `yaml:"trigger"`
	Steps []stepDoc `yaml:"steps"`
}

type stepDoc struct {
	Name          string             `yaml:"name"`
	Image         string             `yaml:"image"`
	Commands      []string           `yaml:"commands"`
	Settings      map[string]Setting `yaml:"settings"`
	When          *whenDoc           `yaml:"when"`
	IgnoreFailure bool               `yaml:"ignore_failure"`
}

// Load reads and validates a pipeline document from disk.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	return Parse(data)
}

// Parse validates a pipeline document and builds its predicates.
// Missing step names or executor references, duplicate step names, and
// malformed conditions all fail here: a pipeline that does not parse
// cleanly never executes anything.
func Parse(data []byte) (*Pipeline, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	if doc.Kind != "" && doc.Kind != "pipeline" {
		return nil, &ConfigError{Field: "kind", Reason: "unsupported kind " + doc.Kind}
	}
	if doc.Name == "" {
		return nil, &ConfigError{Field: "name", Reason: "required"}
	}
	if len(doc.Steps) == 0 {
		return nil, &ConfigError{Field: "steps", Reason: "at least one step required"}
	}

	trigger, err := doc.Trig.compile("")
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Name:    doc.Name,
		Trigger: trigger,
		Cron:    doc.Cron,
		Steps:   make([]Step, 0, len(doc.Steps)),
	}

	seen := make(map[string]bool, len(doc.Steps))
	for _, sd := range doc.Steps {
		if sd.Name == "" {
			return nil, &ConfigError{Field: "steps", Reason: "step missing name"}
		}
		if sd.Image == "" {
			return nil, &ConfigError{Field: "steps." + sd.Name, Reason: "missing executor image"}
		}
		if seen[sd.Name] {
			return nil, &ConfigError{Field: "steps." + sd.Name, Reason: "duplicate step name"}
		}
		seen[sd.Name] = true

		cond, err := sd.When.compile(sd.Name)
		if err != nil {
			return nil, err
		}

		p.Steps = append(p.Steps, Step{
			Name:          sd.Name,
			Image:         sd.Image,
			Commands:      sd.Commands,
			Settings:      sd.Settings,
			Condition:     cond,
			IgnoreFailure: sd.IgnoreFailure,
		})
	}

	return p, nil
}
