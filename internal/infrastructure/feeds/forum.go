package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

// ForumAdapter reads an Algolia-style forum search API (Show-HN-like
// launch posts).
type ForumAdapter struct {
	name   string
	url    string
	query  string
	client *http.Client
	logger *slog.Logger
}

var _ ports.SourceAdapter = (*ForumAdapter)(nil)

// NewForumAdapter builds the adapter from feed configuration. The
// "query" option narrows the search; it defaults to launch posts.
func NewForumAdapter(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *ForumAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	query := cfg.Options["query"]
	if query == "" {
		query = "Show HN"
	}
	return &ForumAdapter{name: cfg.Name, url: cfg.URL, query: query, client: client, logger: logger}
}

// Name identifies the adapter inside summaries and logs.
func (a *ForumAdapter) Name() string {
	return a.name
}

type forumResponse struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		StoryText   string `json:"story_text"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		CreatedAtI  int64  `json:"created_at_i"`
	} `json:"hits"`
}

// Fetch queries the search API once and maps hits to candidates.
func (a *ForumAdapter) Fetch(ctx context.Context) ([]domain.CandidateRecord, error) {
	endpoint, err := url.Parse(a.url)
	if err != nil {
		return nil, fmt.Errorf("invalid forum url %s: %w", a.url, err)
	}
	values := endpoint.Query()
	values.Set("query", a.query)
	values.Set("hitsPerPage", "50")
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SaasScout/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request forum search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forum search returned %s", resp.Status)
	}

	var result forumResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode forum response: %w", err)
	}

	candidates := make([]domain.CandidateRecord, 0, len(result.Hits))
	for _, hit := range result.Hits {
		name := cleanForumTitle(hit.Title)
		if name == "" {
			continue
		}
		candidates = append(candidates, domain.CandidateRecord{
			Kind:        domain.KindCommercial,
			Name:        name,
			Description: hit.StoryText,
			Website:     hit.URL,
			Source:      domain.SourceForum,
			SourceID:    hit.ObjectID,
			Upvotes:     hit.Points,
			Comments:    hit.NumComments,
			LaunchDate:  time.Unix(hit.CreatedAtI, 0).UTC(),
		})
	}

	if a.logger != nil {
		a.logger.Debug("forum fetched", "feed", a.name, "count", len(candidates))
	}
	return candidates, nil
}

// cleanForumTitle strips the launch-post prefix and a trailing em-dash
// tagline from titles like "Show HN: Acme - CRM for teams".
func cleanForumTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, prefix := range []string{"Show HN:", "Launch HN:", "Show:", "Launch:"} {
		if strings.HasPrefix(title, prefix) {
			title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
			break
		}
	}
	if idx := strings.Index(title, " - "); idx > 0 {
		title = strings.TrimSpace(title[:idx])
	}
	if idx := strings.Index(title, " – "); idx > 0 {
		title = strings.TrimSpace(title[:idx])
	}
	return title
}
