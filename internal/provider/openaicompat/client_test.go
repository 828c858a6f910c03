package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postdeck/internal/provider"
)

func TestGenerateParsesFirstChoice(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %#v", payload["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from the model"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	text, err := c.Generate(context.Background(), provider.GenerateRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "be brief",
		Prompt:       "say hello",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hello from the model" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestGenerateEmptyChoicesIsNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	text, err := c.Generate(context.Background(), provider.GenerateRequest{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("empty completion must not be an error: %v", err)
	}
	if text != provider.NoResponse {
		t.Fatalf("expected %q, got %q", provider.NoResponse, text)
	}
}

func TestGenerateSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit reached for model"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	_, err := c.Generate(context.Background(), provider.GenerateRequest{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error on 429")
	}
	if !strings.Contains(err.Error(), "rate limit reached for model") {
		t.Fatalf("vendor message missing from error: %v", err)
	}
}

func TestVendorMessageFallsBackToBody(t *testing.T) {
	if got := vendorMessage([]byte("upstream exploded")); got != "upstream exploded" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := vendorMessage(nil); got != "unknown" {
		t.Fatalf("expected unknown for empty body, got %q", got)
	}
}
