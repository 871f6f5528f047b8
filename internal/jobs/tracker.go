// Package jobs implements the durable pipeline job tracker. The job record
// is the only coordination mechanism between time-boxed invocations of the
// same logical run, so every mutation goes straight through the repository.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"SaasScout/internal/domain"
	"SaasScout/internal/ports"
)

// Tracker drives the pending → running → {completed|failed} state machine.
type Tracker struct {
	repo   ports.JobRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker wires the job repository.
func NewTracker(repo ports.JobRepository, logger *slog.Logger) *Tracker {
	return &Tracker{repo: repo, logger: logger, now: time.Now}
}

// Create instantiates a job in pending with zero progress.
func (t *Tracker) Create(ctx context.Context, jobType domain.JobType) (*domain.PipelineJob, error) {
	job := &domain.PipelineJob{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    domain.JobPending,
		Metadata:  map[string]any{},
		CreatedAt: t.now(),
	}
	if err := t.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create %s job: %w", jobType, err)
	}
	t.debug("job created", "id", job.ID, "type", jobType)
	return job, nil
}

// Start transitions pending → running and stamps the start time.
func (t *Tracker) Start(ctx context.Context, id string) error {
	job, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.JobPending {
		return fmt.Errorf("job %s: cannot start from %s", id, job.Status)
	}
	job.Status = domain.JobRunning
	job.StartedAt = t.now()
	return t.save(ctx, job)
}

// ProgressUpdate carries the mutable fields of one progress report. Nil
// pointers leave the corresponding counter untouched.
type ProgressUpdate struct {
	ItemsProcessed *int
	ItemsTotal     *int
	CurrentStep    string
	CurrentItem    string
	ErrorDelta     int
}

// UpdateProgress is only valid while running. Progress is recomputed from
// the counters when the total is known; otherwise it is left unchanged.
// Supplying CurrentItem appends an activity entry, trimmed to the cap.
func (t *Tracker) UpdateProgress(ctx context.Context, id string, update ProgressUpdate) error {
	job, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.JobRunning {
		return fmt.Errorf("job %s: cannot update progress in %s", id, job.Status)
	}

	if update.ItemsProcessed != nil {
		job.ItemsProcessed = *update.ItemsProcessed
	}
	if update.ItemsTotal != nil {
		job.ItemsTotal = *update.ItemsTotal
	}
	if update.CurrentStep != "" {
		job.CurrentStep = update.CurrentStep
	}
	job.Errors += update.ErrorDelta

	if job.ItemsTotal > 0 {
		job.Progress = clampProgress(float64(job.ItemsProcessed) / float64(job.ItemsTotal) * 100)
	}

	if update.CurrentItem != "" {
		job.CurrentItem = update.CurrentItem
		appendActivity(job, update.CurrentItem, t.now())
	}

	return t.save(ctx, job)
}

// Complete transitions running → completed, forces progress to 100, merges
// result metadata, and clears the current item.
func (t *Tracker) Complete(ctx context.Context, id string, metadata map[string]any) error {
	job, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.JobRunning {
		return fmt.Errorf("job %s: cannot complete from %s", id, job.Status)
	}

	job.Status = domain.JobCompleted
	job.Progress = 100
	job.CurrentItem = ""
	job.CompletedAt = t.now()
	if job.Metadata == nil {
		job.Metadata = map[string]any{}
	}
	for k, v := range metadata {
		job.Metadata[k] = v
	}

	t.debug("job completed", "id", id, "type", job.Type)
	return t.save(ctx, job)
}

// Fail transitions running → failed, records the message, clears the
// current item, and logs the failure into the activity log.
func (t *Tracker) Fail(ctx context.Context, id string, message string) error {
	job, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.JobRunning {
		return fmt.Errorf("job %s: cannot fail from %s", id, job.Status)
	}

	job.Status = domain.JobFailed
	job.ErrorMessage = message
	job.CurrentItem = ""
	job.CompletedAt = t.now()
	appendActivity(job, "error: "+message, t.now())

	t.debug("job failed", "id", id, "type", job.Type, "error", message)
	return t.save(ctx, job)
}

// List exposes filtered job queries for the orchestration surface.
func (t *Tracker) List(ctx context.Context, filter domain.JobFilter) ([]domain.PipelineJob, error) {
	return t.repo.List(ctx, filter)
}

func (t *Tracker) load(ctx context.Context, id string) (*domain.PipelineJob, error) {
	job, err := t.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	if job == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return job, nil
}

func (t *Tracker) save(ctx context.Context, job *domain.PipelineJob) error {
	if err := t.repo.Update(ctx, job); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func appendActivity(job *domain.PipelineJob, message string, at time.Time) {
	job.ActivityLog = append(job.ActivityLog, domain.ActivityEntry{At: at, Message: message})
	if overflow := len(job.ActivityLog) - domain.ActivityLogCap; overflow > 0 {
		job.ActivityLog = job.ActivityLog[overflow:]
	}
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (t *Tracker) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
