package pipeline

import (
	"testing"

	"github.com/conveyorci/conveyor/internal/event"
)

const releaseDoc = `
kind: pipeline
name: release
trigger:
  ref:
    - refs/heads/master
    - refs/tags/*
steps:
  - name: version-bump
    image: plugins/semantic-release
    commands:
      - semantic-release version
    settings:
      token:
        from_secret: github_token
    when:
      branch: [master]
      event: push
  - name: build
    image: shell
    commands:
      - make dist
    when:
      event: tag
  - name: publish
    image: https://plugins.example/pypi
    settings:
      repository: https://upload.pypi.org/legacy/
      password:
        from_secret: pypi_token
    when:
      event: tag
`

func TestParse_Release(t *testing.T) {
	p, err := Parse([]byte(releaseDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "release" {
		t.Errorf("expected name release, got %q", p.Name)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(p.Steps))
	}
	if p.Steps[0].Name != "version-bump" || p.Steps[1].Name != "build" || p.Steps[2].Name != "publish" {
		t.Errorf("step order does not match declaration order: %v", p.Steps)
	}

	tok, ok := p.Steps[0].Settings["token"]
	if !ok || !tok.IsSecret() || tok.FromSecret != "github_token" {
		t.Errorf("expected token to be a secret indirection, got %+v", tok)
	}
	repo := p.Steps[2].Settings["repository"]
	if repo.IsSecret() || repo.Literal != "https://upload.pypi.org/legacy/" {
		t.Errorf("expected literal repository setting, got %+v", repo)
	}
}

func TestParse_TriggerGlob(t *testing.T) {
	p, err := Parse([]byte(releaseDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match := event.Event{Kind: event.KindTag, Tag: "v1.0.0"}.Normalize()
	if !p.Trigger.Match(match) {
		t.Error("expected trigger to match tag ref")
	}
	miss := event.Event{Kind: event.KindPush, Branch: "feature/x"}.Normalize()
	if p.Trigger.Match(miss) {
		t.Error("expected trigger not to match feature branch")
	}
}

func TestParse_DuplicateStepName(t *testing.T) {
	doc := `
name: dup
steps:
  - name: build
    image: shell
  - name: build
    image: shell
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error for duplicate step names")
	}
	if !IsConfigError(err) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestParse_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"no name", "steps:\n  - name: a\n    image: shell\n"},
		{"no steps", "name: empty\n"},
		{"step without name", "name: p\nsteps:\n  - image: shell\n"},
		{"step without image", "name: p\nsteps:\n  - name: a\n"},
		{"wrong kind", "kind: deployment\nname: p\nsteps:\n  - name: a\n    image: shell\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.doc)); !IsConfigError(err) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestParse_BadPredicate(t *testing.T) {
	doc := `
name: p
steps:
  - name: a
    image: shell
    when:
      event: deploy
`
	_, err := Parse([]byte(doc))
	if !IsPredicateError(err) {
		t.Errorf("expected PredicateError, got %v", err)
	}
}

func TestParse_CronExpression(t *testing.T) {
	doc := `
name: nightly
cron: "0 2 * * *"
steps:
  - name: audit
    image: shell
    commands: [make audit]
`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Cron != "0 2 * * *" {
		t.Errorf("expected cron expression to survive parsing, got %q", p.Cron)
	}
}
