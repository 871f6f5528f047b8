// Package gatekeeper decides commercial viability with a two-tier
// classifier: cheap structural detectors first, the external AI
// collaborator second, and an independent rule-based fallback whenever
// the AI path is unavailable or fails.
package gatekeeper

import (
	"fmt"
	"regexp"

	"SaasScout/internal/domain"
)

// preRejectConfidence is the fixed confidence of a Tier-1 verdict.
const preRejectConfidence = 0.85

// detector is one ordered structural check; the first match wins.
type detector struct {
	category string
	re       *regexp.Regexp
	field    func(domain.CandidateRecord) string
}

func nameField(c domain.CandidateRecord) string    { return c.Name }
func websiteField(c domain.CandidateRecord) string { return c.Website }

// Detector order matters: listicle titles are by far the most common
// invalid shape in launch-board feeds, so they run first.
var preDetectors = []detector{
	{"listicle title", regexp.MustCompile(`(?i)^\s*(?:top|best)\s+\d+\b`), nameField},
	{"listicle title", regexp.MustCompile(`(?i)^\s*\d+\s+(?:best|top|essential|free|great)\b`), nameField},
	{"listicle title", regexp.MustCompile(`(?i)\b(?:best|top)\b.*\bfor\s+20\d{2}\b`), nameField},
	{"listicle title", regexp.MustCompile(`(?i)\b(?:alternatives|vs\.?|versus|compared)\b.*\b20\d{2}\b`), nameField},
	{"blog url", regexp.MustCompile(`(?i)/(?:blog|guide|guides|articles|posts|news)(?:/|$)`), websiteField},
	{"blog url", regexp.MustCompile(`(?i)/top-\d+`), websiteField},
	{"generic name", regexp.MustCompile(`(?i)^\s*(?:pricing|login|sign\s*up|sign\s*in|home|blog|untitled)\s*$`), nameField},
	{"pricing page", regexp.MustCompile(`(?i)/pricing(?:/|$)`), websiteField},
}

// PreValidate runs the Tier-1 structural detectors. It returns a rejection
// verdict and true on the first match; the AI tier must not be invoked for
// a pre-rejected candidate.
func PreValidate(c domain.CandidateRecord) (domain.ViabilityAssessment, bool) {
	for _, d := range preDetectors {
		value := d.field(c)
		if value == "" {
			continue
		}
		if d.re.MatchString(value) {
			return domain.ViabilityAssessment{
				IsCommercialSaaS: false,
				TargetAudience:   domain.AudienceUnknown,
				ProductType:      domain.ProductOther,
				BusinessCategory: domain.CategoryOther,
				Confidence:       preRejectConfidence,
				RejectionReason:  fmt.Sprintf("pre-validation: %s matched %q", d.category, value),
				Method:           domain.MethodRules,
			}, true
		}
	}
	return domain.ViabilityAssessment{}, false
}
