package catalog

import (
	"context"
	"fmt"
	"time"

	"SaasScout/internal/domain"
)

// IdentifyLowQuality lists stored entities older than maxAge whose
// engagement never reached minEngagement. It performs no mutation; the
// separate Prune step deletes.
func (c *Catalog) IdentifyLowQuality(ctx context.Context, maxAge time.Duration, minEngagement int) ([]domain.StoredEntity, error) {
	cutoff := c.now().Add(-maxAge)
	entities, err := c.repo.Stale(ctx, cutoff, minEngagement)
	if err != nil {
		return nil, fmt.Errorf("query stale entities: %w", err)
	}
	return entities, nil
}

// Prune deletes the low-quality entities and returns how many were removed.
// Deletion failures abort the pass; entities already deleted stay deleted,
// which is safe because the pass is re-runnable.
func (c *Catalog) Prune(ctx context.Context, maxAge time.Duration, minEngagement int) (int, error) {
	entities, err := c.IdentifyLowQuality(ctx, maxAge, minEngagement)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, e := range entities {
		if err := c.repo.Delete(ctx, e.ID); err != nil {
			return pruned, fmt.Errorf("prune %s: %w", e.Slug, err)
		}
		pruned++
	}

	if pruned > 0 {
		c.debug("pruned low-quality entities", "count", pruned)
	}
	return pruned, nil
}
