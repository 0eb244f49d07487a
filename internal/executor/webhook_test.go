package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestWebhook_Success(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(webhookReply{ExitCode: 0, Output: "released"})
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{})
	res, err := wh.Execute(context.Background(), Spec{
		StepName: "publish",
		Image:    srv.URL,
		Settings: map[string]any{"repository": "pypi"},
		Secrets:  map[string]string{"pypi_token": "tok"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 || res.Stdout != "released" {
		t.Errorf("unexpected result: %+v", res)
	}
	if got.Step != "publish" {
		t.Errorf("expected step name in payload, got %q", got.Step)
	}
	if got.Secrets["pypi_token"] != "tok" {
		t.Error("expected secrets to reach the plugin endpoint")
	}
}

func TestWebhook_NonzeroExit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(webhookReply{ExitCode: 2, Output: "upload rejected"})
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{})
	res, err := wh.Execute(context.Background(), Spec{StepName: "publish", Image: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 2 {
		t.Errorf("expected exit 2, got %d", res.ExitCode)
	}
}

func TestWebhook_RetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{Retries: 2})
	_, err := wh.Execute(context.Background(), Spec{StepName: "publish", Image: srv.URL})
	if !IsExecutorError(err) {
		t.Fatalf("expected executor error, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestWebhook_RecoversWithinRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(webhookReply{})
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{Retries: 1})
	res, err := wh.Execute(context.Background(), Spec{StepName: "push", Image: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit 0 after retry, got %d", res.ExitCode)
	}
}
