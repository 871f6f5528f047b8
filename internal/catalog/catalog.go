// Package catalog is the capacity-bounded upsert store: it decides
// create/update/skip/reject for scored, classified candidates against the
// persistent collection, and owns the eviction and pruning policies.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"SaasScout/internal/domain"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
)

// Result is the admission outcome for one candidate.
type Result string

const (
	ResultCreated  Result = "created"
	ResultUpdated  Result = "updated"
	ResultSkipped  Result = "skipped"
	ResultRejected Result = "rejected"
)

const (
	// DefaultCapacity bounds the live collection when config is silent.
	DefaultCapacity = 500

	// DeveloperConfidenceFloor is the single canonical confidence a
	// developer-audience verdict needs for admission. Commercial SaaS
	// verdicts are admitted at any confidence; generic developer tooling
	// is held to this stricter bar.
	DeveloperConfidenceFloor = 0.7

	// minQuality rejects candidates before any persistence is attempted.
	minQuality = 10

	// Per-signal floors: a candidate must clear at least one of these,
	// guarding against zero-signal noise that still scraped together a
	// nominal score.
	minUpvotes  = 5
	minStars    = 25
	minComments = 3

	// evictionMargin is how far a newcomer's quality must exceed the
	// evictee's combined engagement before churn is worth it.
	evictionMargin = 25
)

// Domains that host content rather than products. A candidate whose
// website lives on one of these is not a commercial product homepage.
var excludedDomains = []string{
	"github.com",
	"gitlab.com",
	"huggingface.co",
	"itch.io",
	"store.steampowered.com",
	"youtube.com",
	"medium.com",
	"substack.com",
	"notion.site",
	"coursera.org",
	"udemy.com",
	"khanacademy.org",
}

// Coarse text net independent of the gatekeeper's detectors, applied
// before classification is ever paid for.
var rejectKeywords = regexp.MustCompile(`(?i)\b(?:exam prep|test prep|flashcards?|homework|study guide|for students|video game|game jam|minecraft|roblox)\b`)

// Admissible applies the caller-side admission rule to a verdict: accept
// commercial SaaS outright, accept developer-audience tools only with
// sufficient confidence.
func Admissible(a domain.ViabilityAssessment) bool {
	if a.Rejected() {
		return false
	}
	if a.IsCommercialSaaS {
		return true
	}
	return a.TargetAudience == domain.AudienceDeveloper && a.Confidence >= DeveloperConfidenceFloor
}

// Catalog mediates all mutations of the stored collection.
type Catalog struct {
	repo     ports.EntityRepository
	capacity int
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a catalog over the repository. capacity ≤ 0 selects
// DefaultCapacity.
func New(repo ports.EntityRepository, capacity int, logger *slog.Logger) *Catalog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Catalog{repo: repo, capacity: capacity, logger: logger, now: time.Now}
}

// PreScreen runs the cheap structural rejections that precede both the
// gatekeeper and persistence. It returns a reason and true when the
// candidate should be rejected outright.
func (c *Catalog) PreScreen(cand domain.CandidateRecord, quality int) (string, bool) {
	if quality < minQuality {
		return fmt.Sprintf("quality %d below minimum %d", quality, minQuality), true
	}
	if cand.Upvotes < minUpvotes && cand.Stars < minStars && cand.Comments < minComments {
		return "engagement below per-signal floors", true
	}
	if host := websiteHost(cand.Website); host != "" {
		for _, d := range excludedDomains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return fmt.Sprintf("excluded website domain %s", d), true
			}
		}
	}
	if m := rejectKeywords.FindString(cand.CombinedText()); m != "" {
		return fmt.Sprintf("rejection keyword %q", strings.ToLower(m)), true
	}
	return "", false
}

// Admit decides the fate of one scored, classified candidate. The stored
// collection never exceeds capacity after any call.
func (c *Catalog) Admit(ctx context.Context, cand domain.CandidateRecord, quality int, assessment domain.ViabilityAssessment) (Result, error) {
	if reason, rejected := c.PreScreen(cand, quality); rejected {
		c.debug("candidate rejected before persistence", "name", cand.Name, "reason", reason)
		metrics.Admissions.WithLabelValues(string(ResultRejected)).Inc()
		return ResultRejected, nil
	}

	existing, err := c.lookup(ctx, cand)
	if err != nil {
		return ResultSkipped, err
	}

	if existing != nil {
		if err := c.merge(ctx, existing, cand, quality, assessment); err != nil {
			return ResultSkipped, err
		}
		metrics.Admissions.WithLabelValues(string(ResultUpdated)).Inc()
		return ResultUpdated, nil
	}

	count, err := c.repo.Count(ctx)
	if err != nil {
		return ResultSkipped, fmt.Errorf("count entities: %w", err)
	}

	if count >= c.capacity {
		evicted, err := c.evictFor(ctx, quality)
		if err != nil {
			return ResultSkipped, err
		}
		if !evicted {
			metrics.Admissions.WithLabelValues(string(ResultSkipped)).Inc()
			return ResultSkipped, nil
		}
	}

	if err := c.create(ctx, cand, quality, assessment); err != nil {
		return ResultSkipped, err
	}
	metrics.Admissions.WithLabelValues(string(ResultCreated)).Inc()
	return ResultCreated, nil
}

// Refresh updates an already-stored entity from a fresh candidate sighting
// without ever creating a new row. Used by the enrichment stage.
func (c *Catalog) Refresh(ctx context.Context, cand domain.CandidateRecord, quality int) (bool, error) {
	existing, err := c.lookup(ctx, cand)
	if err != nil || existing == nil {
		return false, err
	}
	if err := c.merge(ctx, existing, cand, quality, domain.ViabilityAssessment{}); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) lookup(ctx context.Context, cand domain.CandidateRecord) (*domain.StoredEntity, error) {
	if cand.SourceID != "" {
		existing, err := c.repo.FindBySourceID(ctx, cand.Source, cand.SourceID)
		if err != nil {
			return nil, fmt.Errorf("lookup by source id: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}
	existing, err := c.repo.FindBySlug(ctx, Slugify(cand.Name))
	if err != nil {
		return nil, fmt.Errorf("lookup by slug: %w", err)
	}
	return existing, nil
}

// merge overlays non-empty incoming fields, keeps the maximum of monotonic
// counters (engagement only grows), and refreshes classification fields
// when a fresh assessment was actually computed.
func (c *Catalog) merge(ctx context.Context, existing *domain.StoredEntity, cand domain.CandidateRecord, quality int, assessment domain.ViabilityAssessment) error {
	if cand.Tagline != "" {
		existing.Tagline = cand.Tagline
	}
	if cand.Description != "" {
		existing.Description = cand.Description
	}
	if cand.Website != "" {
		existing.Website = cand.Website
	}
	if cand.LogoURL != "" {
		existing.LogoURL = cand.LogoURL
	}
	if len(cand.Tags) > 0 {
		existing.Tags = cand.Tags
	}
	if !cand.LaunchDate.IsZero() {
		existing.LaunchDate = cand.LaunchDate
	}
	if existing.SourceID == "" && cand.SourceID != "" {
		existing.SourceID = cand.SourceID
	}

	existing.Upvotes = max(existing.Upvotes, cand.Upvotes)
	existing.Stars = max(existing.Stars, cand.Stars)
	existing.Comments = max(existing.Comments, cand.Comments)
	existing.QualityScore = max(existing.QualityScore, quality)

	if assessment.Assessed() {
		applyAssessment(existing, assessment)
	}

	existing.UpdatedAt = c.now()

	if err := c.repo.Update(ctx, existing); err != nil {
		return fmt.Errorf("update entity %s: %w", existing.Slug, err)
	}
	return nil
}

func (c *Catalog) create(ctx context.Context, cand domain.CandidateRecord, quality int, assessment domain.ViabilityAssessment) error {
	slug, err := uniqueSlug(ctx, c.repo, Slugify(cand.Name))
	if err != nil {
		return err
	}

	now := c.now()
	entity := &domain.StoredEntity{
		Slug:         slug,
		Source:       cand.Source,
		SourceID:     cand.SourceID,
		Kind:         cand.Kind,
		Name:         cand.Name,
		Tagline:      cand.Tagline,
		Description:  cand.Description,
		Website:      cand.Website,
		LogoURL:      cand.LogoURL,
		Tags:         cand.Tags,
		LaunchDate:   cand.LaunchDate,
		Upvotes:      cand.Upvotes,
		Stars:        cand.Stars,
		Comments:     cand.Comments,
		QualityScore: quality,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if assessment.Assessed() {
		applyAssessment(entity, assessment)
	}

	if err := c.repo.Create(ctx, entity); err != nil {
		return fmt.Errorf("create entity %s: %w", slug, err)
	}
	return nil
}

// evictFor removes the lowest-ranked entity iff the newcomer's quality
// beats its combined engagement by the eviction margin.
func (c *Catalog) evictFor(ctx context.Context, quality int) (bool, error) {
	victim, err := c.repo.LowestQuality(ctx)
	if err != nil {
		return false, fmt.Errorf("find eviction victim: %w", err)
	}
	if victim == nil {
		return false, nil
	}
	if quality <= victim.Engagement()+evictionMargin {
		c.debug("newcomer not worth eviction churn", "quality", quality, "victim", victim.Slug, "engagement", victim.Engagement())
		return false, nil
	}
	if err := c.repo.Delete(ctx, victim.ID); err != nil {
		return false, fmt.Errorf("evict %s: %w", victim.Slug, err)
	}
	c.debug("evicted entity under capacity pressure", "slug", victim.Slug, "engagement", victim.Engagement())
	metrics.Evictions.Inc()
	return true, nil
}

func applyAssessment(e *domain.StoredEntity, a domain.ViabilityAssessment) {
	e.Classified = true
	e.IsCommercialSaaS = a.IsCommercialSaaS
	e.TargetAudience = a.TargetAudience
	e.ProductType = a.ProductType
	e.BusinessCategory = a.BusinessCategory
	e.Confidence = a.Confidence
}

func websiteHost(website string) string {
	if website == "" {
		return ""
	}
	parsed, err := url.Parse(website)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

func (c *Catalog) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
