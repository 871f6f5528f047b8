package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

// LaunchBoardAdapter scrapes a launch-board listing page for newly
// launched products.
type LaunchBoardAdapter struct {
	name   string
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ ports.SourceAdapter = (*LaunchBoardAdapter)(nil)

// NewLaunchBoardAdapter wires an HTTP client; a nil client gets a default
// with a 20s timeout.
func NewLaunchBoardAdapter(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *LaunchBoardAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &LaunchBoardAdapter{name: cfg.Name, url: cfg.URL, client: client, logger: logger}
}

// Name identifies the adapter inside summaries and logs.
func (a *LaunchBoardAdapter) Name() string {
	return a.name
}

// Fetch downloads the listing page and extracts one candidate per post.
func (a *LaunchBoardAdapter) Fetch(ctx context.Context) ([]domain.CandidateRecord, error) {
	doc, err := a.fetchDocument(ctx, a.url)
	if err != nil {
		return nil, err
	}

	var candidates []domain.CandidateRecord
	doc.Find(".post-item").Each(func(_ int, sel *goquery.Selection) {
		candidate, ok := parsePost(sel)
		if !ok {
			return
		}
		candidates = append(candidates, candidate)
	})

	if a.logger != nil {
		a.logger.Debug("launch board fetched", "feed", a.name, "count", len(candidates))
	}
	return candidates, nil
}

func (a *LaunchBoardAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SaasScout/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("launch board returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return doc, nil
}

func parsePost(sel *goquery.Selection) (domain.CandidateRecord, bool) {
	name := strings.TrimSpace(sel.Find(".post-name").First().Text())
	if name == "" {
		return domain.CandidateRecord{}, false
	}

	candidate := domain.CandidateRecord{
		Kind:    domain.KindCommercial,
		Name:    name,
		Tagline: strings.TrimSpace(sel.Find(".post-tagline").First().Text()),
		Source:  domain.SourceLaunchBoard,
	}

	if id, ok := sel.Attr("data-post-id"); ok {
		candidate.SourceID = strings.TrimSpace(id)
	}
	if href, ok := sel.Find("a.post-website").First().Attr("href"); ok {
		candidate.Website = strings.TrimSpace(href)
	}
	if src, ok := sel.Find("img.post-logo").First().Attr("src"); ok {
		candidate.LogoURL = strings.TrimSpace(src)
	}

	candidate.Upvotes = parseCount(sel.Find(".post-votes").First().Text())
	candidate.Comments = parseCount(sel.Find(".post-comments").First().Text())

	sel.Find(".post-topics .topic").Each(func(_ int, topic *goquery.Selection) {
		if tag := strings.TrimSpace(topic.Text()); tag != "" {
			candidate.Tags = append(candidate.Tags, tag)
		}
	})

	if dateText, ok := sel.Find("time").First().Attr("datetime"); ok {
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(dateText)); err == nil {
			candidate.LaunchDate = parsed
		}
	}

	return candidate, true
}

func parseCount(text string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
