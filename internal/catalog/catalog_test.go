package catalog

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"SaasScout/internal/domain"
)

// memRepo is an in-memory EntityRepository honoring the same uniqueness
// and ordering semantics as the Postgres implementation.
type memRepo struct {
	nextID   int64
	entities map[int64]*domain.StoredEntity
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, entities: map[int64]*domain.StoredEntity{}}
}

func (m *memRepo) FindBySourceID(_ context.Context, source domain.Source, sourceID string) (*domain.StoredEntity, error) {
	for _, e := range m.entities {
		if e.Source == source && e.SourceID == sourceID && sourceID != "" {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memRepo) FindBySlug(_ context.Context, slug string) (*domain.StoredEntity, error) {
	for _, e := range m.entities {
		if e.Slug == slug {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	e, _ := m.FindBySlug(ctx, slug)
	return e != nil, nil
}

func (m *memRepo) Create(_ context.Context, entity *domain.StoredEntity) error {
	entity.ID = m.nextID
	m.nextID++
	clone := *entity
	m.entities[entity.ID] = &clone
	return nil
}

func (m *memRepo) Update(_ context.Context, entity *domain.StoredEntity) error {
	clone := *entity
	m.entities[entity.ID] = &clone
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.entities, id)
	return nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	return len(m.entities), nil
}

func (m *memRepo) LowestQuality(_ context.Context) (*domain.StoredEntity, error) {
	all := m.sorted()
	if len(all) == 0 {
		return nil, nil
	}
	clone := all[0]
	return &clone, nil
}

func (m *memRepo) Unclassified(_ context.Context, limit int) ([]domain.StoredEntity, error) {
	var out []domain.StoredEntity
	for _, e := range m.sorted() {
		if !e.Classified {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]domain.StoredEntity, error) {
	all := m.sorted()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memRepo) Stale(_ context.Context, olderThan time.Time, minEngagement int) ([]domain.StoredEntity, error) {
	var out []domain.StoredEntity
	for _, e := range m.sorted() {
		if e.CreatedAt.Before(olderThan) && e.Engagement() < minEngagement {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) sorted() []domain.StoredEntity {
	out := make([]domain.StoredEntity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Upvotes != out[j].Upvotes {
			return out[i].Upvotes < out[j].Upvotes
		}
		if out[i].Stars != out[j].Stars {
			return out[i].Stars < out[j].Stars
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func accepted() domain.ViabilityAssessment {
	return domain.ViabilityAssessment{
		IsCommercialSaaS: true,
		TargetAudience:   domain.AudienceB2B,
		ProductType:      domain.ProductSaaS,
		BusinessCategory: domain.CategoryProductivity,
		Confidence:       0.9,
		Method:           domain.MethodAI,
	}
}

func candidate(name, sourceID string, upvotes int) domain.CandidateRecord {
	return domain.CandidateRecord{
		Kind:        domain.KindCommercial,
		Name:        name,
		Website:     "https://" + Slugify(name) + ".io",
		Description: strings.Repeat("useful product detail ", 10),
		Source:      domain.SourceLaunchBoard,
		SourceID:    sourceID,
		Upvotes:     upvotes,
	}
}

func TestAdmitCreatesWithUniqueSlug(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cat := New(repo, 10, nil)
	ctx := context.Background()

	cand := candidate("Acme", "acme-1", 2000)
	result, err := cat.Admit(ctx, cand, 90, accepted())
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if result != ResultCreated {
		t.Fatalf("expected created, got %s", result)
	}

	stored, _ := repo.FindBySlug(ctx, "acme")
	if stored == nil {
		t.Fatal("expected slug acme to exist")
	}
	if !stored.Classified || !stored.IsCommercialSaaS {
		t.Fatal("classification fields not applied")
	}

	// Same name from another feed without a source id match: the slug
	// lookup finds the row and merges instead of duplicating.
	other := candidate("Acme", "acme-2", 500)
	other.Source = domain.SourceForum
	result, err = cat.Admit(ctx, other, 80, accepted())
	if err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if result != ResultUpdated {
		t.Fatalf("expected slug match to update, got %s", result)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected slug match to merge, got %d rows", n)
	}
}

func TestAdmitIdempotentSameSourceID(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cat := New(repo, 10, nil)
	ctx := context.Background()

	first := candidate("Acme", "acme-1", 100)
	first.Comments = 10
	if _, err := cat.Admit(ctx, first, 60, accepted()); err != nil {
		t.Fatalf("first admit: %v", err)
	}

	second := candidate("Acme", "acme-1", 80)
	second.Comments = 25
	result, err := cat.Admit(ctx, second, 55, accepted())
	if err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if result != ResultUpdated {
		t.Fatalf("expected updated, got %s", result)
	}

	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected exactly one entity, got %d", n)
	}

	stored, _ := repo.FindBySourceID(ctx, domain.SourceLaunchBoard, "acme-1")
	if stored.Upvotes != 100 {
		t.Fatalf("upvotes should keep the maximum, got %d", stored.Upvotes)
	}
	if stored.Comments != 25 {
		t.Fatalf("comments should keep the maximum, got %d", stored.Comments)
	}
}

func TestAdmitNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	const capacity = 3
	cat := New(repo, capacity, nil)
	ctx := context.Background()

	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"}
	for i, name := range names {
		cand := candidate(name, Slugify(name), 50+i*200)
		if _, err := cat.Admit(ctx, cand, 40+i*20, accepted()); err != nil {
			t.Fatalf("admit %s: %v", name, err)
		}
		if n, _ := repo.Count(ctx); n > capacity {
			t.Fatalf("capacity exceeded after %s: %d > %d", name, n, capacity)
		}
	}
}

func TestAdmitEvictionMargin(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cat := New(repo, 1, nil)
	ctx := context.Background()

	incumbent := candidate("Incumbent", "inc-1", 40)
	if _, err := cat.Admit(ctx, incumbent, 50, accepted()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Marginal newcomer: quality 50 does not clear engagement 40 + margin.
	marginal := candidate("Marginal", "mar-1", 30)
	result, err := cat.Admit(ctx, marginal, 50, accepted())
	if err != nil {
		t.Fatalf("marginal admit: %v", err)
	}
	if result != ResultSkipped {
		t.Fatalf("expected marginal newcomer to be skipped, got %s", result)
	}
	if e, _ := repo.FindBySlug(ctx, "incumbent"); e == nil {
		t.Fatal("incumbent should survive a marginal challenger")
	}

	// Clearly better newcomer evicts.
	strong := candidate("Strong", "str-1", 2000)
	result, err = cat.Admit(ctx, strong, 90, accepted())
	if err != nil {
		t.Fatalf("strong admit: %v", err)
	}
	if result != ResultCreated {
		t.Fatalf("expected strong newcomer to be created, got %s", result)
	}
	if e, _ := repo.FindBySlug(ctx, "incumbent"); e != nil {
		t.Fatal("incumbent should have been evicted")
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("capacity invariant broken: %d", n)
	}
}

func TestPreScreenRejections(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cat := New(repo, 10, nil)

	cases := []struct {
		name    string
		mutate  func(*domain.CandidateRecord)
		quality int
		reason  string
	}{
		{"low quality", func(c *domain.CandidateRecord) {}, 5, "quality"},
		{"zero signals", func(c *domain.CandidateRecord) { c.Upvotes = 0 }, 40, "floors"},
		{"excluded domain", func(c *domain.CandidateRecord) { c.Website = "https://github.com/acme/acme" }, 40, "excluded"},
		{"excluded subdomain", func(c *domain.CandidateRecord) { c.Website = "https://acme.notion.site" }, 40, "excluded"},
		{"reject keyword", func(c *domain.CandidateRecord) { c.Description = "flashcards for exam prep" }, 40, "keyword"},
	}

	for _, tc := range cases {
		cand := candidate("Acme", "acme-1", 100)
		tc.mutate(&cand)
		reason, rejected := cat.PreScreen(cand, tc.quality)
		if !rejected {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if !strings.Contains(reason, tc.reason) {
			t.Fatalf("%s: reason %q missing %q", tc.name, reason, tc.reason)
		}
	}

	if reason, rejected := cat.PreScreen(candidate("Acme", "acme-1", 100), 40); rejected {
		t.Fatalf("healthy candidate rejected: %s", reason)
	}
}

func TestPruneRemovesStaleLowEngagement(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	cat := New(repo, 10, nil)
	ctx := context.Background()

	old := &domain.StoredEntity{Slug: "old", Name: "Old", Upvotes: 1, CreatedAt: time.Now().Add(-90 * 24 * time.Hour)}
	busy := &domain.StoredEntity{Slug: "busy", Name: "Busy", Upvotes: 500, CreatedAt: time.Now().Add(-90 * 24 * time.Hour)}
	fresh := &domain.StoredEntity{Slug: "fresh", Name: "Fresh", Upvotes: 1, CreatedAt: time.Now()}
	for _, e := range []*domain.StoredEntity{old, busy, fresh} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	listed, err := cat.IdentifyLowQuality(ctx, 30*24*time.Hour, 50)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if len(listed) != 1 || listed[0].Slug != "old" {
		t.Fatalf("expected only the old low-engagement row, got %v", listed)
	}

	pruned, err := cat.Prune(ctx, 30*24*time.Hour, 50)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}
	if n, _ := repo.Count(ctx); n != 2 {
		t.Fatalf("expected 2 survivors, got %d", n)
	}
}

func TestAdmissible(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a    domain.ViabilityAssessment
		want bool
	}{
		{domain.ViabilityAssessment{IsCommercialSaaS: true, Confidence: 0.2}, true},
		{domain.ViabilityAssessment{TargetAudience: domain.AudienceDeveloper, Confidence: 0.8}, true},
		{domain.ViabilityAssessment{TargetAudience: domain.AudienceDeveloper, Confidence: 0.5}, false},
		{domain.ViabilityAssessment{TargetAudience: domain.AudienceB2C, Confidence: 0.99}, false},
		{domain.ViabilityAssessment{IsCommercialSaaS: true, RejectionReason: "nope"}, false},
	}

	for i, tc := range cases {
		if got := Admissible(tc.a); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}
