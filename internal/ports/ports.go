package ports

import (
	"context"
	"time"

	"SaasScout/internal/domain"
)

// SourceAdapter pulls candidate records from one external feed. The core
// imposes no retry policy on adapters; a failing adapter is reported and
// isolated from its siblings.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.CandidateRecord, error)
}

// Classifier is the external AI collaborator producing viability verdicts.
// Any error triggers the gatekeeper's rule-based fallback.
type Classifier interface {
	Classify(ctx context.Context, candidate domain.CandidateRecord) (domain.ViabilityAssessment, error)
}

// EntityRepository persists admitted entities. Lookups return (nil, nil)
// when no row matches. The store enforces uniqueness of slug and of the
// (source, source_id) pair.
type EntityRepository interface {
	FindBySourceID(ctx context.Context, source domain.Source, sourceID string) (*domain.StoredEntity, error)
	FindBySlug(ctx context.Context, slug string) (*domain.StoredEntity, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, entity *domain.StoredEntity) error
	Update(ctx context.Context, entity *domain.StoredEntity) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	LowestQuality(ctx context.Context) (*domain.StoredEntity, error)
	Unclassified(ctx context.Context, limit int) ([]domain.StoredEntity, error)
	List(ctx context.Context, limit, offset int) ([]domain.StoredEntity, error)
	Stale(ctx context.Context, olderThan time.Time, minEngagement int) ([]domain.StoredEntity, error)
}

// JobRepository persists pipeline jobs. Get returns (nil, nil) when the
// id is unknown.
type JobRepository interface {
	Create(ctx context.Context, job *domain.PipelineJob) error
	Get(ctx context.Context, id string) (*domain.PipelineJob, error)
	Update(ctx context.Context, job *domain.PipelineJob) error
	List(ctx context.Context, filter domain.JobFilter) ([]domain.PipelineJob, error)
}
