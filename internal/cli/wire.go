package cli

import (
	"fmt"
	"time"

	"github.com/conveyorci/conveyor/internal/config"
	"github.com/conveyorci/conveyor/internal/executor"
	"github.com/conveyorci/conveyor/internal/secret"
	"github.com/conveyorci/conveyor/internal/storage"
	"github.com/conveyorci/conveyor/internal/storage/memory"
	"github.com/conveyorci/conveyor/internal/storage/sqlite"
)

// buildExecutors registers the configured executors. Shell and webhook are
// always available; docker only when enabled, so hosts without a daemon
// still run shell-only pipelines.
func buildExecutors(cfg *config.Config) (*executor.Registry, error) {
	reg := executor.NewRegistry()

	shellTimeout, err := parseTimeout(cfg.Executors.Shell.Timeout, "executors.shell.timeout")
	if err != nil {
		return nil, err
	}
	reg.Register(executor.SchemeShell, executor.NewShell(shellTimeout))

	webhookTimeout, err := parseTimeout(cfg.Executors.Webhook.Timeout, "executors.webhook.timeout")
	if err != nil {
		return nil, err
	}
	reg.Register(executor.SchemeWebhook, executor.NewWebhook(executor.WebhookConfig{
		Timeout: webhookTimeout,
		Retries: cfg.Executors.Webhook.Retries,
	}))

	if cfg.Executors.Docker.Enabled {
		dockerTimeout, err := parseTimeout(cfg.Executors.Docker.Timeout, "executors.docker.timeout")
		if err != nil {
			return nil, err
		}
		d, err := executor.NewDocker(cfg.Executors.Docker.Host, dockerTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect to docker: %w", err)
		}
		reg.Register(executor.SchemeDocker, d)
	}

	return reg, nil
}

func buildSecrets(cfg *config.Config) (secret.Provider, error) {
	switch cfg.Secrets.Source {
	case "", "env":
		return secret.NewEnv(cfg.Secrets.Dotenv), nil
	case "file":
		return secret.NewFile(cfg.Secrets.File)
	default:
		return nil, fmt.Errorf("unknown secrets source %q", cfg.Secrets.Source)
	}
}

func buildStore(cfg *config.Config) (storage.RunStore, error) {
	switch cfg.Storage.Type {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(cfg.Storage.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

func parseTimeout(raw, field string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return d, nil
}
