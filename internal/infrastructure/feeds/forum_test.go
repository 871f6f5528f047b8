package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
)

func TestCleanForumTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Show HN: Acme - CRM for small teams", "Acme"},
		{"Launch HN: Parcel (YC W26)", "Parcel (YC W26)"},
		{"Show HN: Briefly – AI meeting notes", "Briefly"},
		{"Plain title without prefix", "Plain title without prefix"},
		{"Show HN:", ""},
	}
	for _, tc := range cases {
		if got := cleanForumTitle(tc.in); got != tc.want {
			t.Fatalf("cleanForumTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestForumFetch(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": [
				{
					"objectID": "9001",
					"title": "Show HN: LeadLoop - CRM for outbound teams",
					"url": "https://leadloop.io",
					"story_text": "We built LeadLoop to automate follow-ups.",
					"points": 120,
					"num_comments": 34,
					"created_at_i": 1756368000
				},
				{
					"objectID": "9002",
					"title": "Show HN:",
					"url": "https://example.com",
					"points": 3
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewForumAdapter(config.FeedConfig{Name: "forum", URL: server.URL}, server.Client(), nil)

	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if gotQuery != "Show HN" {
		t.Fatalf("unexpected query param: %q", gotQuery)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Name != "LeadLoop" {
		t.Fatalf("unexpected name: %s", c.Name)
	}
	if c.Website != "https://leadloop.io" {
		t.Fatalf("unexpected website: %s", c.Website)
	}
	if c.SourceID != "9001" || c.Source != domain.SourceForum {
		t.Fatalf("unexpected source identity: %s/%s", c.Source, c.SourceID)
	}
	if c.Upvotes != 120 || c.Comments != 34 {
		t.Fatalf("unexpected counts: %d/%d", c.Upvotes, c.Comments)
	}
	if c.LaunchDate.IsZero() {
		t.Fatal("expected launch date from created_at_i")
	}
}

func TestForumFetchCustomQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"hits": []}`))
	}))
	defer server.Close()

	cfg := config.FeedConfig{Name: "forum", URL: server.URL, Options: map[string]string{"query": "Launch HN"}}
	adapter := NewForumAdapter(cfg, server.Client(), nil)

	if _, err := adapter.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotQuery != "Launch HN" {
		t.Fatalf("unexpected query param: %q", gotQuery)
	}
}

func TestForumFetchStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewForumAdapter(config.FeedConfig{Name: "forum", URL: server.URL}, server.Client(), nil)

	if _, err := adapter.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
