// Package llm implements ports.Classifier against OpenAI-compatible chat
// completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
)

// ErrNotConfigured is returned when no API credential is present; the
// gatekeeper treats it like any other classifier failure and falls back.
var ErrNotConfigured = errors.New("classifier not configured")

const systemPrompt = `You review software products for a curated commercial catalog.
Given one product, respond with ONLY a JSON object, no prose:
{
  "isCommercialSaaS": bool,
  "targetAudience": "b2b" | "b2c" | "developer" | "unknown",
  "productType": "saas" | "library" | "framework" | "game" | "tutorial" | "exam_prep" | "student_tool" | "other",
  "businessCategory": "marketing" | "sales" | "customer_service" | "productivity" | "developer" | "other",
  "confidence": number between 0 and 1,
  "rejectionReason": string (only when the product does not belong in a commercial catalog)
}`

// Classifier talks to an OpenAI-compatible endpoint.
type Classifier struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a client from configuration.
func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// verdict is the wire form of the model's answer. It is decoded strictly
// and then normalized field by field; external JSON never reaches the
// domain model unvalidated.
type verdict struct {
	IsCommercialSaaS bool     `json:"isCommercialSaaS"`
	TargetAudience   string   `json:"targetAudience"`
	ProductType      string   `json:"productType"`
	BusinessCategory string   `json:"businessCategory"`
	Confidence       *float64 `json:"confidence"`
	RejectionReason  string   `json:"rejectionReason"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one candidate to the model and parses the verdict.
func (c *Classifier) Classify(ctx context.Context, candidate domain.CandidateRecord) (domain.ViabilityAssessment, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.ViabilityAssessment{}, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": candidateSummary(candidate)},
		},
		"temperature": 0.1,
	})
	if err != nil {
		return domain.ViabilityAssessment{}, fmt.Errorf("marshal classify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ViabilityAssessment{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ViabilityAssessment{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ClassifierDuration.Observe(time.Since(started).Seconds())

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ViabilityAssessment{}, fmt.Errorf("classifier error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.ViabilityAssessment{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return domain.ViabilityAssessment{}, fmt.Errorf("classifier returned no choices")
	}

	return decodeVerdict(chat.Choices[0].Message.Content)
}

func candidateSummary(c domain.CandidateRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.Tagline != "" {
		fmt.Fprintf(&b, "Tagline: %s\n", c.Tagline)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	if c.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", c.Website)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(&b, "Source: %s, upvotes: %d, stars: %d, comments: %d\n", c.Source, c.Upvotes, c.Stars, c.Comments)
	if c.Kind == domain.KindOpenSource {
		fmt.Fprintf(&b, "Discovered as an open-source tool, repo: %s\n", c.RepoURL)
	}
	return b.String()
}

// decodeVerdict parses the model's JSON answer, tolerating a fenced code
// block, and normalizes every field: confidence clamped to [0,1], unknown
// enum values defaulted.
func decodeVerdict(content string) (domain.ViabilityAssessment, error) {
	raw := stripFences(content)

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.ViabilityAssessment{}, fmt.Errorf("parse verdict: %w", err)
	}

	confidence := 0.0
	if v.Confidence != nil {
		confidence = *v.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.ViabilityAssessment{
		IsCommercialSaaS: v.IsCommercialSaaS,
		TargetAudience:   parseAudience(v.TargetAudience),
		ProductType:      parseProductType(v.ProductType),
		BusinessCategory: parseCategory(v.BusinessCategory),
		Confidence:       confidence,
		RejectionReason:  strings.TrimSpace(v.RejectionReason),
		Method:           domain.MethodAI,
	}, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}

func parseAudience(s string) domain.TargetAudience {
	switch domain.TargetAudience(strings.ToLower(strings.TrimSpace(s))) {
	case domain.AudienceB2B:
		return domain.AudienceB2B
	case domain.AudienceB2C:
		return domain.AudienceB2C
	case domain.AudienceDeveloper:
		return domain.AudienceDeveloper
	default:
		return domain.AudienceUnknown
	}
}

func parseProductType(s string) domain.ProductType {
	switch p := domain.ProductType(strings.ToLower(strings.TrimSpace(s))); p {
	case domain.ProductSaaS, domain.ProductLibrary, domain.ProductFramework,
		domain.ProductGame, domain.ProductTutorial, domain.ProductExamPrep,
		domain.ProductStudentTool:
		return p
	default:
		return domain.ProductOther
	}
}

func parseCategory(s string) domain.BusinessCategory {
	switch c := domain.BusinessCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case domain.CategoryMarketing, domain.CategorySales, domain.CategoryCustomerService,
		domain.CategoryProductivity, domain.CategoryDeveloper:
		return c
	default:
		return domain.CategoryOther
	}
}
