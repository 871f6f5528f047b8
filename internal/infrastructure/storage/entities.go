package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

// entityColumns is the scan order shared by every entity query.
var entityColumns = []string{
	"id", "slug", "source", "source_id", "kind", "name", "tagline",
	"description", "website", "logo_url", "tags", "launch_date",
	"upvotes", "stars", "comments", "quality_score",
	"classified", "is_commercial_saas", "target_audience",
	"product_type", "business_category", "confidence",
	"created_at", "updated_at",
}

// EntityRepository is the Postgres implementation of the entity port.
type EntityRepository struct {
	pool *pgxpool.Pool
}

var _ ports.EntityRepository = (*EntityRepository)(nil)

// NewEntityRepository wires the connection pool.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

func (r *EntityRepository) FindBySourceID(ctx context.Context, source domain.Source, sourceID string) (*domain.StoredEntity, error) {
	return r.findOne(ctx, sq.Eq{"source": string(source), "source_id": sourceID})
}

func (r *EntityRepository) FindBySlug(ctx context.Context, slug string) (*domain.StoredEntity, error) {
	return r.findOne(ctx, sq.Eq{"slug": slug})
}

func (r *EntityRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query, args, err := psql.Select("1").From("entities").Where(sq.Eq{"slug": slug}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug query: %w", err)
	}
	var one int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check slug %s: %w", slug, err)
	}
	return true, nil
}

func (r *EntityRepository) Create(ctx context.Context, entity *domain.StoredEntity) error {
	query, args, err := psql.Insert("entities").
		Columns(entityColumns[1:]...).
		Values(
			entity.Slug, string(entity.Source), entity.SourceID, string(entity.Kind),
			entity.Name, entity.Tagline, entity.Description, entity.Website,
			entity.LogoURL, tagsValue(entity.Tags), entity.LaunchDate,
			entity.Upvotes, entity.Stars, entity.Comments, entity.QualityScore,
			entity.Classified, entity.IsCommercialSaaS, string(entity.TargetAudience),
			string(entity.ProductType), string(entity.BusinessCategory), entity.Confidence,
			entity.CreatedAt, entity.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&entity.ID); err != nil {
		return fmt.Errorf("insert entity %s: %w", entity.Slug, err)
	}
	return nil
}

func (r *EntityRepository) Update(ctx context.Context, entity *domain.StoredEntity) error {
	query, args, err := psql.Update("entities").
		SetMap(map[string]any{
			"slug":               entity.Slug,
			"source":             string(entity.Source),
			"source_id":          entity.SourceID,
			"kind":               string(entity.Kind),
			"name":               entity.Name,
			"tagline":            entity.Tagline,
			"description":        entity.Description,
			"website":            entity.Website,
			"logo_url":           entity.LogoURL,
			"tags":               tagsValue(entity.Tags),
			"launch_date":        entity.LaunchDate,
			"upvotes":            entity.Upvotes,
			"stars":              entity.Stars,
			"comments":           entity.Comments,
			"quality_score":      entity.QualityScore,
			"classified":         entity.Classified,
			"is_commercial_saas": entity.IsCommercialSaaS,
			"target_audience":    string(entity.TargetAudience),
			"product_type":       string(entity.ProductType),
			"business_category":  string(entity.BusinessCategory),
			"confidence":         entity.Confidence,
			"updated_at":         entity.UpdatedAt,
		}).
		Where(sq.Eq{"id": entity.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update entity %s: %w", entity.Slug, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update entity %s: no row with id %d", entity.Slug, entity.ID)
	}
	return nil
}

func (r *EntityRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("entities").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete entity %d: %w", id, err)
	}
	return nil
}

func (r *EntityRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("entities").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return count, nil
}

// LowestQuality returns the eviction candidate: the entity with the least
// engagement, ties broken by age so the oldest goes first.
func (r *EntityRepository) LowestQuality(ctx context.Context) (*domain.StoredEntity, error) {
	return r.findOne(ctx, nil, "upvotes ASC", "stars ASC", "created_at ASC")
}

func (r *EntityRepository) Unclassified(ctx context.Context, limit int) ([]domain.StoredEntity, error) {
	builder := psql.Select(entityColumns...).From("entities").
		Where(sq.Eq{"classified": false}).
		OrderBy("quality_score DESC", "id ASC").
		Limit(uint64(limit))
	return r.query(ctx, builder)
}

func (r *EntityRepository) List(ctx context.Context, limit, offset int) ([]domain.StoredEntity, error) {
	builder := psql.Select(entityColumns...).From("entities").
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	return r.query(ctx, builder)
}

func (r *EntityRepository) Stale(ctx context.Context, olderThan time.Time, minEngagement int) ([]domain.StoredEntity, error) {
	builder := psql.Select(entityColumns...).From("entities").
		Where(sq.Lt{"created_at": olderThan}).
		Where(sq.Expr("upvotes + stars < ?", minEngagement)).
		OrderBy("created_at ASC")
	return r.query(ctx, builder)
}

func (r *EntityRepository) findOne(ctx context.Context, pred any, orderBy ...string) (*domain.StoredEntity, error) {
	builder := psql.Select(entityColumns...).From("entities").Limit(1)
	if pred != nil {
		builder = builder.Where(pred)
	}
	if len(orderBy) > 0 {
		builder = builder.OrderBy(orderBy...)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	entity, err := scanEntity(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select entity: %w", err)
	}
	return entity, nil
}

func (r *EntityRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]domain.StoredEntity, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}

func scanEntity(row pgx.Row) (*domain.StoredEntity, error) {
	var e domain.StoredEntity
	var source, kind, audience, productType, category string
	err := row.Scan(
		&e.ID, &e.Slug, &source, &e.SourceID, &kind, &e.Name, &e.Tagline,
		&e.Description, &e.Website, &e.LogoURL, &e.Tags, &e.LaunchDate,
		&e.Upvotes, &e.Stars, &e.Comments, &e.QualityScore,
		&e.Classified, &e.IsCommercialSaaS, &audience,
		&productType, &category, &e.Confidence,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Source = domain.Source(source)
	e.Kind = domain.Kind(kind)
	e.TargetAudience = domain.TargetAudience(audience)
	e.ProductType = domain.ProductType(productType)
	e.BusinessCategory = domain.BusinessCategory(category)
	return &e, nil
}

// tagsValue normalizes nil slices so the column never stores NULL.
func tagsValue(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
