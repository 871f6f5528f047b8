package gatekeeper

import (
	"strings"
	"testing"

	"SaasScout/internal/domain"
)

func TestPreValidateListicles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		website string
		reason  string
	}{
		{"Top 10 AI Tools for 2025", "", "listicle"},
		{"Best 7 CRMs", "", "listicle"},
		{"5 Best Marketing Platforms", "", "listicle"},
		{"Notion vs Obsidian compared 2025", "", "listicle"},
		{"Acme", "https://x.com/blog/top-5", "blog"},
		{"Acme", "https://x.com/guides/how-to", "blog"},
		{"Acme", "https://x.com/top-12-tools", "blog"},
		{"Pricing", "", "generic"},
		{"Sign Up", "", "generic"},
		{"Acme", "https://acme.io/pricing", "pricing"},
	}

	for _, tc := range cases {
		c := domain.CandidateRecord{Name: tc.name, Website: tc.website}
		verdict, rejected := PreValidate(c)
		if !rejected {
			t.Fatalf("expected %q / %q to be pre-rejected", tc.name, tc.website)
		}
		if verdict.IsCommercialSaaS {
			t.Fatalf("pre-rejected candidate marked commercial: %q", tc.name)
		}
		if verdict.Confidence < 0.8 {
			t.Fatalf("pre-rejection confidence %.2f below 0.8", verdict.Confidence)
		}
		if !strings.Contains(verdict.RejectionReason, tc.reason) {
			t.Fatalf("reason %q does not mention %q", verdict.RejectionReason, tc.reason)
		}
	}
}

func TestPreValidatePassesRealProducts(t *testing.T) {
	t.Parallel()

	cases := []domain.CandidateRecord{
		{Name: "Acme", Website: "https://acme.io"},
		{Name: "Top Hat Analytics", Website: "https://tophat.io"},
		{Name: "Blogster", Website: "https://blogster.io"},
		{Name: "Bestie", Website: "https://bestie.app/product"},
	}

	for _, c := range cases {
		if verdict, rejected := PreValidate(c); rejected {
			t.Fatalf("%q unexpectedly pre-rejected: %s", c.Name, verdict.RejectionReason)
		}
	}
}

func TestPreValidateScenarioTop5CRMs(t *testing.T) {
	t.Parallel()

	c := domain.CandidateRecord{Name: "Top 5 CRMs for 2025", Website: "https://x.com/blog/top-5"}
	verdict, rejected := PreValidate(c)
	if !rejected {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(verdict.RejectionReason, "listicle") && !strings.Contains(verdict.RejectionReason, "blog") {
		t.Fatalf("reason should mention listicle or blog, got %q", verdict.RejectionReason)
	}
}
