package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook delegates a step to an external plugin endpoint over HTTP.
// The endpoint receives the step payload as JSON and answers with an
// exit status; anything beyond that is the plugin's business.
type Webhook struct {
	timeout time.Duration
	retries int
	headers map[string]string
	client  *http.Client
}

// WebhookConfig configures the webhook executor.
type WebhookConfig struct {
	Timeout time.Duration
	Retries int
	Headers map[string]string
}

// NewWebhook creates a webhook executor.
func NewWebhook(cfg WebhookConfig) *Webhook {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Webhook{
		timeout: timeout,
		retries: cfg.Retries,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}
}

// webhookPayload is the request body sent to the plugin endpoint.
type webhookPayload struct {
	Step     string            `json:"step"`
	Commands []string          `json:"commands,omitempty"`
	Settings map[string]any    `json:"settings,omitempty"`
	Secrets  map[string]string `json:"secrets,omitempty"`
}

// webhookReply is the response body expected back.
type webhookReply struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

func (w *Webhook) Execute(ctx context.Context, spec Spec) (Result, error) {
	var lastErr error

	attempts := w.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := w.doRequest(ctx, spec)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	return Result{}, &Error{Step: spec.StepName, Reason: "webhook invocation failed", Err: lastErr}
}

func (w *Webhook) doRequest(ctx context.Context, spec Spec) (Result, error) {
	body, err := json.Marshal(webhookPayload{
		Step:     spec.StepName,
		Commands: spec.Commands,
		Settings: spec.Settings,
		Secrets:  spec.Secrets,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal step payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.Image, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var reply webhookReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return Result{}, fmt.Errorf("unmarshal webhook reply: %w", err)
	}

	return Result{ExitCode: reply.ExitCode, Stdout: reply.Output}, nil
}
