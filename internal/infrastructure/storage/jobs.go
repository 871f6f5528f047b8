package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

var jobColumns = []string{
	"id", "type", "status", "progress", "items_processed", "items_total",
	"current_step", "current_item", "errors", "activity_log", "metadata",
	"error_message", "created_at", "started_at", "completed_at",
}

// JobRepository is the Postgres implementation of the job port. Activity
// logs and metadata travel as JSONB documents.
type JobRepository struct {
	pool *pgxpool.Pool
}

var _ ports.JobRepository = (*JobRepository)(nil)

// NewJobRepository wires the connection pool.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.PipelineJob) error {
	activity, metadata, err := encodeJobDocs(job)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert("pipeline_jobs").
		Columns(jobColumns...).
		Values(
			job.ID, string(job.Type), string(job.Status), job.Progress,
			job.ItemsProcessed, job.ItemsTotal, job.CurrentStep, job.CurrentItem,
			job.Errors, activity, metadata, job.ErrorMessage,
			job.CreatedAt, job.StartedAt, job.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build job insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.PipelineJob, error) {
	query, args, err := psql.Select(jobColumns...).From("pipeline_jobs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job select: %w", err)
	}

	job, err := scanJob(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select job %s: %w", id, err)
	}
	return job, nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.PipelineJob) error {
	activity, metadata, err := encodeJobDocs(job)
	if err != nil {
		return err
	}
	query, args, err := psql.Update("pipeline_jobs").
		SetMap(map[string]any{
			"status":          string(job.Status),
			"progress":        job.Progress,
			"items_processed": job.ItemsProcessed,
			"items_total":     job.ItemsTotal,
			"current_step":    job.CurrentStep,
			"current_item":    job.CurrentItem,
			"errors":          job.Errors,
			"activity_log":    activity,
			"metadata":        metadata,
			"error_message":   job.ErrorMessage,
			"started_at":      job.StartedAt,
			"completed_at":    job.CompletedAt,
		}).
		Where(sq.Eq{"id": job.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build job update: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: not found", job.ID)
	}
	return nil
}

func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]domain.PipelineJob, error) {
	builder := psql.Select(jobColumns...).From("pipeline_jobs").
		OrderBy("created_at DESC")
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": string(filter.Type)})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.PipelineJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func scanJob(row pgx.Row) (*domain.PipelineJob, error) {
	var job domain.PipelineJob
	var jobType, status string
	var activity, metadata []byte
	err := row.Scan(
		&job.ID, &jobType, &status, &job.Progress, &job.ItemsProcessed,
		&job.ItemsTotal, &job.CurrentStep, &job.CurrentItem, &job.Errors,
		&activity, &metadata, &job.ErrorMessage,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal(activity, &job.ActivityLog); err != nil {
		return nil, fmt.Errorf("decode activity log: %w", err)
	}
	if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &job, nil
}

func encodeJobDocs(job *domain.PipelineJob) ([]byte, []byte, error) {
	activityLog := job.ActivityLog
	if activityLog == nil {
		activityLog = []domain.ActivityEntry{}
	}
	activity, err := json.Marshal(activityLog)
	if err != nil {
		return nil, nil, fmt.Errorf("encode activity log: %w", err)
	}

	meta := job.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	return activity, metadata, nil
}
