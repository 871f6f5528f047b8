package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

// CodeHostAdapter searches a code-host repository API for tools with a
// product homepage. Repositories surface as open-source candidates; the
// gatekeeper decides whether they are commercially viable.
type CodeHostAdapter struct {
	name   string
	url    string
	topic  string
	client *http.Client
	logger *slog.Logger
}

var _ ports.SourceAdapter = (*CodeHostAdapter)(nil)

// NewCodeHostAdapter builds the adapter; the "topic" option scopes the
// repository search.
func NewCodeHostAdapter(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *CodeHostAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	topic := cfg.Options["topic"]
	if topic == "" {
		topic = "saas"
	}
	return &CodeHostAdapter{name: cfg.Name, url: cfg.URL, topic: topic, client: client, logger: logger}
}

// Name identifies the adapter inside summaries and logs.
func (a *CodeHostAdapter) Name() string {
	return a.name
}

type repoSearchResponse struct {
	Items []struct {
		ID          int64    `json:"id"`
		Name        string   `json:"name"`
		FullName    string   `json:"full_name"`
		Description string   `json:"description"`
		Homepage    string   `json:"homepage"`
		HTMLURL     string   `json:"html_url"`
		Stars       int      `json:"stargazers_count"`
		Topics      []string `json:"topics"`
		License     struct {
			SPDXID string `json:"spdx_id"`
		} `json:"license"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"items"`
}

// Fetch runs one search query and maps repositories to candidates.
// Repositories without an external homepage are still reported; the
// catalog's excluded-domain screen drops repo-as-homepage entries later.
func (a *CodeHostAdapter) Fetch(ctx context.Context) ([]domain.CandidateRecord, error) {
	endpoint, err := url.Parse(a.url)
	if err != nil {
		return nil, fmt.Errorf("invalid code host url %s: %w", a.url, err)
	}
	values := endpoint.Query()
	values.Set("q", "topic:"+a.topic)
	values.Set("sort", "stars")
	values.Set("per_page", "50")
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SaasScout/1.0")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request repo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("repo search returned %s", resp.Status)
	}

	var result repoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode repo search response: %w", err)
	}

	candidates := make([]domain.CandidateRecord, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Name == "" {
			continue
		}
		website := item.Homepage
		if website == "" {
			website = item.HTMLURL
		}
		candidates = append(candidates, domain.CandidateRecord{
			Kind:        domain.KindOpenSource,
			Name:        item.Name,
			Description: item.Description,
			Website:     website,
			Tags:        item.Topics,
			Source:      domain.SourceCodeHost,
			SourceID:    fmt.Sprintf("%d", item.ID),
			Stars:       item.Stars,
			LaunchDate:  item.CreatedAt,
			RepoURL:     item.HTMLURL,
			License:     item.License.SPDXID,
		})
	}

	if a.logger != nil {
		a.logger.Debug("code host fetched", "feed", a.name, "count", len(candidates))
	}
	return candidates, nil
}
