package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postdeck/internal/provider"
)

func TestGenerateJoinsCandidateParts(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Query().Get("key") != "g-key" {
			t.Errorf("api key missing from query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]}}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "g-key"})
	text, err := c.Generate(context.Background(), provider.GenerateRequest{Model: "gemini-2.0-flash", Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "first\nsecond" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestGenerateNoCandidatesIsNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "g-key"})
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
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "bad"})
	_, err := c.Generate(context.Background(), provider.GenerateRequest{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error on 400")
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("vendor message missing from error: %v", err)
	}
}
