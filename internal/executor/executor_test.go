package executor

import (
	"context"
	"testing"
)

// fakeExecutor records invocations for registry routing tests.
type fakeExecutor struct {
	calls []Spec
}

func (f *fakeExecutor) Execute(_ context.Context, spec Spec) (Result, error) {
	f.calls = append(f.calls, spec)
	return Result{}, nil
}

func TestRegistry_ForImage(t *testing.T) {
	shell := &fakeExecutor{}
	docker := &fakeExecutor{}
	webhook := &fakeExecutor{}

	r := NewRegistry()
	r.Register(SchemeShell, shell)
	r.Register(SchemeDocker, docker)
	r.Register(SchemeWebhook, webhook)

	cases := []struct {
		image string
		want  Executor
	}{
		{"shell", shell},
		{"docker://alpine:3.20", docker},
		{"plugins/semantic-release", docker}, // bare image falls back to docker
		{"https://plugins.example/hook", webhook},
		{"http://localhost:9000/hook", webhook},
	}
	for _, tc := range cases {
		got, err := r.ForImage(tc.image)
		if err != nil {
			t.Fatalf("ForImage(%q): unexpected error: %v", tc.image, err)
		}
		if got != tc.want {
			t.Errorf("ForImage(%q) routed to the wrong executor", tc.image)
		}
	}
}

func TestRegistry_UnknownScheme(t *testing.T) {
	r := NewRegistry()
	r.Register(SchemeShell, &fakeExecutor{})

	if _, err := r.ForImage("plugins/git-push"); err == nil {
		t.Error("expected error for unregistered scheme")
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(SchemeShell, &fakeExecutor{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r.Register(SchemeShell, &fakeExecutor{})
}

func TestRegistry_Schemes(t *testing.T) {
	r := NewRegistry()
	r.Register(SchemeWebhook, &fakeExecutor{})
	r.Register(SchemeShell, &fakeExecutor{})

	got := r.Schemes()
	if len(got) != 2 || got[0] != SchemeShell || got[1] != SchemeWebhook {
		t.Errorf("expected sorted schemes [shell webhook], got %v", got)
	}
}
