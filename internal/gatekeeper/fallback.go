package gatekeeper

import (
	"fmt"
	"regexp"

	"SaasScout/internal/domain"
)

// Fallback confidences sit well below the AI path on purpose: a keyword
// verdict is a guess, and downstream thresholds should treat it as one.
const (
	fallbackAcceptConfidence = 0.4
	fallbackRejectConfidence = 0.5
)

// minB2BSignals is how many distinct positive patterns the combined text
// must match before the fallback will call a candidate commercial.
const minB2BSignals = 2

// rejectRule maps a regex family to the product type it disqualifies.
// These are independent of the Tier-1 detectors: Tier 1 catches structural
// junk, these catch real products outside the catalog's scope.
type rejectRule struct {
	label       string
	productType domain.ProductType
	re          *regexp.Regexp
}

var fallbackRejectRules = []rejectRule{
	{"game", domain.ProductGame, regexp.MustCompile(`(?i)\b(?:game|gaming|play(?:er|able)?|puzzle|arcade|rpg|multiplayer)\b`)},
	{"tutorial", domain.ProductTutorial, regexp.MustCompile(`(?i)\b(?:tutorial|course|curriculum|learn(?:ing)? (?:path|platform)|bootcamp|lesson)\b`)},
	{"exam prep", domain.ProductExamPrep, regexp.MustCompile(`(?i)\b(?:exam|quiz|test prep|flashcard|sat|gre|toefl|certification prep)\b`)},
	{"student tool", domain.ProductStudentTool, regexp.MustCompile(`(?i)\b(?:student|homework|essay (?:writer|helper)|study (?:guide|buddy|plan)|classroom)\b`)},
	{"open-source llm infra", domain.ProductLibrary, regexp.MustCompile(`(?i)\b(?:ollama|llama\.cpp|gguf|lora|self-host(?:ed)? llm|inference server|model weights|open[- ]?source (?:llm|model))\b`)},
	{"crypto", domain.ProductOther, regexp.MustCompile(`(?i)\b(?:crypto(?:currency)?|web3|blockchain|nft|defi|token(?:omics)?)\b`)},
}

// Keyword families for business category, checked in priority order.
var categoryRules = []struct {
	category domain.BusinessCategory
	re       *regexp.Regexp
}{
	{domain.CategoryMarketing, regexp.MustCompile(`(?i)\b(?:marketing|seo|campaign|content (?:creation|generation)|social media|brand|ads?|copywriting)\b`)},
	{domain.CategorySales, regexp.MustCompile(`(?i)\b(?:sales|crm|lead(?:s| gen)|outreach|prospect|pipeline|deal)\b`)},
	{domain.CategoryCustomerService, regexp.MustCompile(`(?i)\b(?:support|helpdesk|customer service|chatbot|ticket(?:ing)?|faq)\b`)},
	{domain.CategoryProductivity, regexp.MustCompile(`(?i)\b(?:productivity|workflow|automat(?:e|ion)|scheduling|notes?|tasks?|meeting|calendar)\b`)},
	{domain.CategoryDeveloper, regexp.MustCompile(`(?i)\b(?:developer|api|sdk|cli|devops|code|deploy(?:ment)?|monitoring|database)\b`)},
}

var b2bSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:pricing|subscription|per (?:seat|user)|free trial)\b`),
	regexp.MustCompile(`(?i)\b(?:teams?|enterprise|business(?:es)?|compan(?:y|ies)|organizations?)\b`),
	regexp.MustCompile(`(?i)\b(?:dashboard|analytics|reporting|insights)\b`),
	regexp.MustCompile(`(?i)\b(?:integrat(?:e|es|ion)|api access|workflow)\b`),
	regexp.MustCompile(`(?i)\b(?:customers?|clients?|users? manage)\b`),
	regexp.MustCompile(`(?i)\b(?:saas|platform|software|solution|service)\b`),
}

// developerAudienceHint separates developer tooling from general b2b
// products when the fallback accepts a candidate.
var developerAudienceHint = regexp.MustCompile(`(?i)\b(?:developer|api|sdk|cli|devops|code)\b`)

// AssessByRules produces a verdict without the AI collaborator. It always
// succeeds, which is what lets the gatekeeper guarantee a verdict when the
// classifier is unreachable.
func AssessByRules(c domain.CandidateRecord) domain.ViabilityAssessment {
	text := c.CombinedText()

	for _, rule := range fallbackRejectRules {
		if rule.re.MatchString(text) {
			return domain.ViabilityAssessment{
				IsCommercialSaaS: false,
				TargetAudience:   domain.AudienceUnknown,
				ProductType:      rule.productType,
				BusinessCategory: domain.CategoryOther,
				Confidence:       fallbackRejectConfidence,
				RejectionReason:  fmt.Sprintf("rule-based: %s vocabulary", rule.label),
				Method:           domain.MethodFallback,
			}
		}
	}

	category := domain.CategoryOther
	for _, rule := range categoryRules {
		if rule.re.MatchString(text) {
			category = rule.category
			break
		}
	}

	signals := 0
	for _, re := range b2bSignals {
		if re.MatchString(text) {
			signals++
		}
	}

	if signals < minB2BSignals {
		return domain.ViabilityAssessment{
			IsCommercialSaaS: false,
			TargetAudience:   domain.AudienceUnknown,
			ProductType:      domain.ProductOther,
			BusinessCategory: category,
			Confidence:       fallbackRejectConfidence,
			RejectionReason:  fmt.Sprintf("rule-based: only %d of %d required commercial signals", signals, minB2BSignals),
			Method:           domain.MethodFallback,
		}
	}

	audience := domain.AudienceB2B
	if category == domain.CategoryDeveloper || developerAudienceHint.MatchString(text) {
		audience = domain.AudienceDeveloper
	}

	return domain.ViabilityAssessment{
		IsCommercialSaaS: true,
		TargetAudience:   audience,
		ProductType:      domain.ProductSaaS,
		BusinessCategory: category,
		Confidence:       fallbackAcceptConfidence,
		Method:           domain.MethodFallback,
	}
}
