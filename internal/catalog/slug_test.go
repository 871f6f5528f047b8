package catalog

import (
	"context"
	"testing"

	"SaasScout/internal/domain"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Acme", "acme"},
		{"Acme AI", "acme-ai"},
		{"  La Crème du CRM  ", "la-crème-du-crm"},
		{"C++ Helper!!", "c-helper"},
		{"--- ", "entry"},
		{"v2.0 Launch", "v2-0-launch"},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniqueSlugAppendsSuffix(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	ctx := context.Background()

	slug, err := uniqueSlug(ctx, repo, "acme")
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "acme" {
		t.Fatalf("expected base slug, got %q", slug)
	}

	for _, s := range []string{"acme", "acme-2"} {
		if err := repo.Create(ctx, &domain.StoredEntity{Slug: s, Name: s}); err != nil {
			t.Fatalf("seed %s: %v", s, err)
		}
	}

	slug, err = uniqueSlug(ctx, repo, "acme")
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if slug != "acme-3" {
		t.Fatalf("expected acme-3, got %q", slug)
	}
}
