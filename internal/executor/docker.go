package executor

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Docker runs each step in a throwaway container of the step's image.
// The container is created, started, waited on, its logs demuxed, and
// removed, in that order; removal is forced so a failed log fetch never
// leaks containers.
type Docker struct {
	cli     *client.Client
	timeout time.Duration
}

// NewDocker connects to the docker daemon. Host may be empty to use the
// environment/default socket.
func NewDocker(host string, timeout time.Duration) (*Docker, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	} else {
		opts = append(opts, client.FromEnv)
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Docker{cli: cli, timeout: timeout}, nil
}

func (d *Docker) Execute(ctx context.Context, spec Spec) (Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	image := strings.TrimPrefix(spec.Image, "docker://")

	cfg := &container.Config{
		Image: image,
		Env:   stepEnv(spec),
	}
	if len(spec.Commands) > 0 {
		cfg.Cmd = []string{"sh", "-e", "-c", strings.Join(spec.Commands, "\n")}
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, "")
	if err != nil {
		return Result{}, &Error{Step: spec.StepName, Reason: "create container", Err: err}
	}
	containerID := resp.ID

	defer func() {
		_ = d.cli.ContainerRemove(context.WithoutCancel(ctx), containerID, container.RemoveOptions{Force: true})
	}()

	if err := d.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return Result{}, &Error{Step: spec.StepName, Reason: "start container", Err: err}
	}

	var exitCode int
	statusCh, errCh := d.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return Result{}, &Error{Step: spec.StepName, Reason: "wait for container", Err: err}
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	res := Result{ExitCode: exitCode}

	out, err := d.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return res, &Error{Step: spec.StepName, Reason: "fetch container logs", Err: err}
	}
	defer out.Close()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	if _, err := stdcopy.StdCopy(stdout, stderr, out); err != nil {
		return res, &Error{Step: spec.StepName, Reason: "demux container logs", Err: err}
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	return res, nil
}
