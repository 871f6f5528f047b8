package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
)

func TestCodeHostFetch(t *testing.T) {
	t.Parallel()

	var gotQ string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": 777,
					"name": "queuectl",
					"full_name": "acme/queuectl",
					"description": "Self-hosted job queue dashboard",
					"homepage": "https://queuectl.dev",
					"html_url": "https://github.com/acme/queuectl",
					"stargazers_count": 1530,
					"topics": ["queue", "dashboard"],
					"license": {"spdx_id": "MIT"},
					"created_at": "2025-02-10T12:00:00Z"
				},
				{
					"id": 778,
					"name": "dotfiles-sync",
					"html_url": "https://github.com/acme/dotfiles-sync",
					"stargazers_count": 12
				},
				{
					"id": 779,
					"stargazers_count": 5
				}
			]
		}`))
	}))
	defer server.Close()

	cfg := config.FeedConfig{Name: "codehost", URL: server.URL, Options: map[string]string{"topic": "devtools"}}
	adapter := NewCodeHostAdapter(cfg, server.Client(), nil)

	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if gotQ != "topic:devtools" {
		t.Fatalf("unexpected search query: %q", gotQ)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Name != "queuectl" {
		t.Fatalf("unexpected name: %s", c.Name)
	}
	if c.Kind != domain.KindOpenSource || c.Source != domain.SourceCodeHost {
		t.Fatalf("unexpected kind/source: %s/%s", c.Kind, c.Source)
	}
	if c.SourceID != "777" {
		t.Fatalf("unexpected source id: %s", c.SourceID)
	}
	if c.Website != "https://queuectl.dev" {
		t.Fatalf("unexpected website: %s", c.Website)
	}
	if c.RepoURL != "https://github.com/acme/queuectl" {
		t.Fatalf("unexpected repo url: %s", c.RepoURL)
	}
	if c.Stars != 1530 || c.License != "MIT" {
		t.Fatalf("unexpected stars/license: %d/%s", c.Stars, c.License)
	}

	// No homepage means the repo URL doubles as the website; the catalog
	// pre-screen filters those domains later.
	if candidates[1].Website != "https://github.com/acme/dotfiles-sync" {
		t.Fatalf("unexpected fallback website: %s", candidates[1].Website)
	}
}

func TestCodeHostDefaultTopic(t *testing.T) {
	t.Parallel()

	var gotQ string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	adapter := NewCodeHostAdapter(config.FeedConfig{Name: "codehost", URL: server.URL}, server.Client(), nil)
	if _, err := adapter.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotQ != "topic:saas" {
		t.Fatalf("unexpected default query: %q", gotQ)
	}
}

func TestCodeHostFetchStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	adapter := NewCodeHostAdapter(config.FeedConfig{Name: "codehost", URL: server.URL}, server.Client(), nil)
	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
