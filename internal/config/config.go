// Package config loads runner configuration from an optional YAML file and
// the environment. Environment variables use the CONVEYOR_ prefix with
// underscores as separators, e.g. CONVEYOR_SERVER_PORT=9090.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Pipelines PipelinesConfig `koanf:"pipelines"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Executors ExecutorsConfig `koanf:"executors"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type PipelinesConfig struct {
	// Files are the pipeline documents the server and cron scheduler load.
	Files []string `koanf:"files"`
}

type SecretsConfig struct {
	// Source selects the provider: env (default) or file.
	Source string `koanf:"source"`
	// File is the YAML secrets file when source is file.
	File string `koanf:"file"`
	// Dotenv is an optional .env file loaded into the environment.
	Dotenv string `koanf:"dotenv"`
}

type ExecutorsConfig struct {
	Shell   ShellConfig   `koanf:"shell"`
	Docker  DockerConfig  `koanf:"docker"`
	Webhook WebhookConfig `koanf:"webhook"`
}

type ShellConfig struct {
	Timeout string `koanf:"timeout"` // duration string, e.g. "5m"
}

type DockerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Timeout string `koanf:"timeout"`
}

type WebhookConfig struct {
	Timeout string `koanf:"timeout"`
	Retries int    `koanf:"retries"`
}

// Load reads configuration from path (optional, may be empty) and the
// environment, with env taking precedence over the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("CONVEYOR_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CONVEYOR_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/conveyor.db")
	}
	if !k.Exists("secrets.source") {
		k.Set("secrets.source", "env")
	}
	if !k.Exists("executors.shell.timeout") {
		k.Set("executors.shell.timeout", "5m")
	}
	if !k.Exists("executors.docker.timeout") {
		k.Set("executors.docker.timeout", "10m")
	}
	if !k.Exists("executors.webhook.timeout") {
		k.Set("executors.webhook.timeout", "30s")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
