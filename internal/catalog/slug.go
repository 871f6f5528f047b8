package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"SaasScout/internal/ports"
)

// Slugify lowers a name to a URL-safe identifier: letters and digits are
// kept, every other run of characters collapses to a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "entry"
	}
	return slug
}

// uniqueSlug resolves collisions by appending an incrementing numeric
// suffix to the base slug until an unused one is found.
func uniqueSlug(ctx context.Context, repo ports.EntityRepository, base string) (string, error) {
	exists, err := repo.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check slug %s: %w", base, err)
	}
	if !exists {
		return base, nil
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		exists, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}
