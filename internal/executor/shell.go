package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Shell runs step commands through the local shell. Settings and secrets
// are exposed as environment variables, uppercased with a PLUGIN_ prefix
// for settings so tools can distinguish them from the ambient environment.
type Shell struct {
	timeout time.Duration
}

// NewShell returns a shell executor with a per-step timeout. A zero
// timeout means no limit beyond the caller's context.
func NewShell(timeout time.Duration) *Shell {
	return &Shell{timeout: timeout}
}

func (s *Shell) Execute(ctx context.Context, spec Spec) (Result, error) {
	if len(spec.Commands) == 0 {
		return Result{}, &Error{Step: spec.StepName, Reason: "shell executor requires commands"}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	script := strings.Join(spec.Commands, "\n")
	cmd := exec.CommandContext(ctx, "sh", "-e", "-c", script)
	cmd.Dir = spec.Workdir
	cmd.Env = append(os.Environ(), stepEnv(spec)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, &Error{Step: spec.StepName, Reason: "shell invocation failed", Err: err}
	}
}

// stepEnv flattens settings and secrets into environment variables.
func stepEnv(spec Spec) []string {
	env := make([]string, 0, len(spec.Settings)+len(spec.Secrets))
	for k, v := range spec.Settings {
		env = append(env, fmt.Sprintf("PLUGIN_%s=%v", strings.ToUpper(k), v))
	}
	for k, v := range spec.Secrets {
		env = append(env, fmt.Sprintf("%s=%s", strings.ToUpper(k), v))
	}
	return env
}
