package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"SaasScout/internal/catalog"
	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/gatekeeper"
	"SaasScout/internal/jobs"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
	"SaasScout/internal/quality"
)

// listPageSize bounds how many entities a scoring pass loads at once.
const listPageSize = 100

// PipelineDeps wires the stage components into the orchestrator.
type PipelineDeps struct {
	Aggregator *Aggregator
	Gatekeeper *gatekeeper.Gatekeeper
	Catalog    *catalog.Catalog
	Tracker    *jobs.Tracker
	Repository ports.EntityRepository
	Config     config.PipelineConfig
	Logger     *slog.Logger
}

// Pipeline runs the curation stages. Every entry point owns exactly one
// job record and drives it to a terminal state before returning.
type Pipeline struct {
	aggregator *Aggregator
	gatekeeper *gatekeeper.Gatekeeper
	catalog    *catalog.Catalog
	tracker    *jobs.Tracker
	repo       ports.EntityRepository
	cfg        config.PipelineConfig
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		aggregator: deps.Aggregator,
		gatekeeper: deps.Gatekeeper,
		catalog:    deps.Catalog,
		tracker:    deps.Tracker,
		repo:       deps.Repository,
		cfg:        deps.Config,
		logger:     deps.Logger,
	}
}

// AdmissionStats counts per-candidate outcomes of one admission pass.
type AdmissionStats struct {
	Created  int
	Updated  int
	Skipped  int
	Rejected int
	Errors   int
}

func (s AdmissionStats) metadata() map[string]any {
	return map[string]any{
		"created":  s.Created,
		"updated":  s.Updated,
		"skipped":  s.Skipped,
		"rejected": s.Rejected,
		"errors":   s.Errors,
	}
}

// RunAggregation fetches all feeds and admits the merged candidates
// without classification; the gatekeeping stage assesses them later.
// The job fails only when every feed failed.
func (p *Pipeline) RunAggregation(ctx context.Context) (string, error) {
	job, err := p.begin(ctx, domain.JobScrape)
	if err != nil {
		return "", err
	}

	candidates, results := p.aggregator.Collect(ctx)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			p.note(ctx, job.ID, jobs.ProgressUpdate{
				CurrentItem: fmt.Sprintf("feed %s failed: %v", res.Source, res.Err),
				ErrorDelta:  1,
			})
		}
	}
	if len(results) > 0 && failed == len(results) {
		return job.ID, p.fail(ctx, job.ID, fmt.Errorf("all %d feeds failed", failed))
	}

	stats := p.admitAll(ctx, job.ID, candidates, true)

	meta := stats.metadata()
	meta["feeds_failed"] = failed
	meta["candidates"] = len(candidates)
	return job.ID, p.complete(ctx, job.ID, meta)
}

// RunAdmission scores, gatekeeps, and admits an explicit candidate list.
// skipGatekeeper stores candidates unclassified for a later assess run.
// Admission passes share the score job type with RunScoring; the two are
// told apart by metadata shape (admission writes created/updated/skipped/
// rejected, a rescore writes scanned/rescored).
func (p *Pipeline) RunAdmission(ctx context.Context, candidates []domain.CandidateRecord, skipGatekeeper bool) (string, error) {
	job, err := p.begin(ctx, domain.JobScore)
	if err != nil {
		return "", err
	}
	stats := p.admitAll(ctx, job.ID, candidates, skipGatekeeper)
	return job.ID, p.complete(ctx, job.ID, stats.metadata())
}

// admitAll is the shared admission pass: score, order best-first so
// capacity pressure favors strong candidates, then pre-screen, gatekeep
// unless skipped, and hand survivors to the catalog. Failures on one
// candidate never abort the pass.
func (p *Pipeline) admitAll(ctx context.Context, jobID string, candidates []domain.CandidateRecord, skipGatekeeper bool) AdmissionStats {
	scores := make(map[string]int, len(candidates))
	for _, cand := range candidates {
		scores[cand.DedupKey()] = quality.Score(cand)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].DedupKey()] > scores[candidates[j].DedupKey()]
	})

	if !skipGatekeeper {
		p.gatekeeper.Reset()
	}

	var stats AdmissionStats
	total := len(candidates)
	p.note(ctx, jobID, jobs.ProgressUpdate{ItemsTotal: &total, CurrentStep: "admission"})

	for i, cand := range candidates {
		score := scores[cand.DedupKey()]

		var verdict domain.ViabilityAssessment
		if !skipGatekeeper {
			if reason, rejected := p.catalog.PreScreen(cand, score); rejected {
				p.debug("candidate pre-screened out", "name", cand.Name, "reason", reason)
				stats.Rejected++
				p.progress(ctx, jobID, i+1, cand.Name, 0)
				continue
			}
			var usedAI bool
			verdict, usedAI = p.gatekeeper.Assess(ctx, cand)
			if usedAI {
				p.pause(ctx)
			}
			if !catalog.Admissible(verdict) {
				p.debug("candidate not viable", "name", cand.Name, "reason", verdict.RejectionReason)
				stats.Rejected++
				p.progress(ctx, jobID, i+1, cand.Name, 0)
				continue
			}
		}

		result, err := p.catalog.Admit(ctx, cand, score, verdict)
		if err != nil {
			p.warn("admission failed", "name", cand.Name, "error", err)
			stats.Errors++
			p.progress(ctx, jobID, i+1, cand.Name, 1)
			continue
		}
		switch result {
		case catalog.ResultCreated:
			stats.Created++
		case catalog.ResultUpdated:
			stats.Updated++
		case catalog.ResultSkipped:
			stats.Skipped++
		case catalog.ResultRejected:
			stats.Rejected++
		}
		p.progress(ctx, jobID, i+1, cand.Name, 0)
	}

	p.publishCatalogSize(ctx)
	return stats
}

// RunGatekeeping classifies stored entities that have no verdict yet, in
// batches, so an interrupted run resumes from the repository state. A
// batch that makes no forward progress fails the job instead of spinning.
func (p *Pipeline) RunGatekeeping(ctx context.Context, batchSize int) (string, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.GatekeepBatchSize
	}

	job, err := p.begin(ctx, domain.JobAssess)
	if err != nil {
		return "", err
	}

	classified, removed, errored := 0, 0, 0
	for {
		entities, err := p.repo.Unclassified(ctx, batchSize)
		if err != nil {
			return job.ID, p.fail(ctx, job.ID, fmt.Errorf("load unclassified: %w", err))
		}
		if len(entities) == 0 {
			break
		}

		p.gatekeeper.Reset()
		advanced := 0
		for _, entity := range entities {
			cand := entity.Candidate()
			verdict, usedAI := p.gatekeeper.Assess(ctx, cand)
			if usedAI {
				p.pause(ctx)
			}

			if !catalog.Admissible(verdict) {
				if err := p.repo.Delete(ctx, entity.ID); err != nil {
					p.warn("failed to remove inviable entity", "slug", entity.Slug, "error", err)
					errored++
					continue
				}
				removed++
				advanced++
				p.note(ctx, job.ID, jobs.ProgressUpdate{
					ItemsProcessed: intp(classified + removed),
					CurrentItem:    fmt.Sprintf("removed %s: %s", entity.Slug, verdict.RejectionReason),
				})
				continue
			}

			result, err := p.catalog.Admit(ctx, cand, entity.QualityScore, verdict)
			if err != nil {
				p.warn("failed to store verdict", "slug", entity.Slug, "error", err)
				errored++
				continue
			}
			if result != catalog.ResultCreated && result != catalog.ResultUpdated {
				// The catalog pre-screen can reject a stored entity after
				// its score or the screen lists changed. The row must
				// leave the unclassified set or the loop would re-fetch
				// it on every pass.
				if err := p.repo.Delete(ctx, entity.ID); err != nil {
					p.warn("failed to remove pre-screened entity", "slug", entity.Slug, "error", err)
					errored++
					continue
				}
				removed++
				advanced++
				p.note(ctx, job.ID, jobs.ProgressUpdate{
					ItemsProcessed: intp(classified + removed),
					CurrentItem:    fmt.Sprintf("removed %s: failed catalog screening", entity.Slug),
				})
				continue
			}
			classified++
			advanced++
			p.note(ctx, job.ID, jobs.ProgressUpdate{
				ItemsProcessed: intp(classified + removed),
				CurrentItem:    entity.Slug,
			})
		}

		if advanced == 0 {
			return job.ID, p.fail(ctx, job.ID, fmt.Errorf("batch of %d made no progress (%d errors)", len(entities), errored))
		}
	}

	p.publishCatalogSize(ctx)
	return job.ID, p.complete(ctx, job.ID, map[string]any{
		"classified": classified,
		"removed":    removed,
		"errors":     errored,
	})
}

// RunScoring recomputes quality for every stored entity from its current
// signals. Unlike admission merges, a drop in score is written through.
func (p *Pipeline) RunScoring(ctx context.Context) (string, error) {
	job, err := p.begin(ctx, domain.JobScore)
	if err != nil {
		return "", err
	}

	rescored, scanned := 0, 0
	for offset := 0; ; offset += listPageSize {
		entities, err := p.repo.List(ctx, listPageSize, offset)
		if err != nil {
			return job.ID, p.fail(ctx, job.ID, fmt.Errorf("list entities: %w", err))
		}
		if len(entities) == 0 {
			break
		}

		for _, entity := range entities {
			scanned++
			score := quality.Score(entity.Candidate())
			if score == entity.QualityScore {
				continue
			}
			entity.QualityScore = score
			entity.UpdatedAt = time.Now()
			if err := p.repo.Update(ctx, &entity); err != nil {
				p.warn("failed to rescore entity", "slug", entity.Slug, "error", err)
				p.note(ctx, job.ID, jobs.ProgressUpdate{ErrorDelta: 1})
				continue
			}
			rescored++
		}
		p.note(ctx, job.ID, jobs.ProgressUpdate{ItemsProcessed: intp(scanned)})
	}

	return job.ID, p.complete(ctx, job.ID, map[string]any{
		"scanned":  scanned,
		"rescored": rescored,
	})
}

// RunEnrichment re-fetches the feeds and overlays fresh details onto
// entities already stored. It never creates rows; unknown candidates are
// left for the next aggregation run.
func (p *Pipeline) RunEnrichment(ctx context.Context) (string, error) {
	job, err := p.begin(ctx, domain.JobEnrich)
	if err != nil {
		return "", err
	}

	candidates, _ := p.aggregator.Collect(ctx)
	total := len(candidates)
	p.note(ctx, job.ID, jobs.ProgressUpdate{ItemsTotal: &total, CurrentStep: "enrichment"})

	refreshed, errored := 0, 0
	for i, cand := range candidates {
		ok, err := p.catalog.Refresh(ctx, cand, quality.Score(cand))
		if err != nil {
			p.warn("enrichment failed", "name", cand.Name, "error", err)
			errored++
			p.progress(ctx, job.ID, i+1, cand.Name, 1)
			continue
		}
		if ok {
			refreshed++
		}
		p.progress(ctx, job.ID, i+1, cand.Name, 0)
	}

	return job.ID, p.complete(ctx, job.ID, map[string]any{
		"candidates": total,
		"refreshed":  refreshed,
		"errors":     errored,
	})
}

// RunCleanup prunes entities past the configured age that never earned
// the configured engagement.
func (p *Pipeline) RunCleanup(ctx context.Context) (string, error) {
	job, err := p.begin(ctx, domain.JobCleanup)
	if err != nil {
		return "", err
	}

	pruned, err := p.catalog.Prune(ctx, p.cfg.PruneMaxAge(), p.cfg.PruneMinEngagement)
	if err != nil {
		return job.ID, p.fail(ctx, job.ID, err)
	}

	p.publishCatalogSize(ctx)
	return job.ID, p.complete(ctx, job.ID, map[string]any{"pruned": pruned})
}

// ListLowQuality previews what a cleanup run would delete.
func (p *Pipeline) ListLowQuality(ctx context.Context) ([]domain.StoredEntity, error) {
	return p.catalog.IdentifyLowQuality(ctx, p.cfg.PruneMaxAge(), p.cfg.PruneMinEngagement)
}

// RunFullPipeline chains aggregation, gatekeeping, and cleanup under one
// parent job. A failing stage aborts the chain and fails the parent;
// completed runs record the child job ids in the parent metadata.
func (p *Pipeline) RunFullPipeline(ctx context.Context) (string, error) {
	job, err := p.begin(ctx, domain.JobFullPipeline)
	if err != nil {
		return "", err
	}

	stages := []struct {
		name string
		run  func(context.Context) (string, error)
	}{
		{"aggregation", p.RunAggregation},
		{"gatekeeping", func(ctx context.Context) (string, error) { return p.RunGatekeeping(ctx, 0) }},
		{"cleanup", p.RunCleanup},
	}

	meta := map[string]any{}
	total := len(stages)
	p.note(ctx, job.ID, jobs.ProgressUpdate{ItemsTotal: &total})

	for i, stage := range stages {
		p.note(ctx, job.ID, jobs.ProgressUpdate{CurrentStep: stage.name, CurrentItem: "stage " + stage.name})

		childID, err := stage.run(ctx)
		if childID != "" {
			meta[stage.name+"_job"] = childID
		}
		if err != nil {
			return job.ID, p.fail(ctx, job.ID, fmt.Errorf("stage %s: %w", stage.name, err))
		}
		p.note(ctx, job.ID, jobs.ProgressUpdate{ItemsProcessed: intp(i + 1)})
	}

	return job.ID, p.complete(ctx, job.ID, meta)
}

// Jobs exposes the tracker's listing for the CLI surface.
func (p *Pipeline) Jobs(ctx context.Context, filter domain.JobFilter) ([]domain.PipelineJob, error) {
	return p.tracker.List(ctx, filter)
}

func (p *Pipeline) begin(ctx context.Context, jobType domain.JobType) (*domain.PipelineJob, error) {
	job, err := p.tracker.Create(ctx, jobType)
	if err != nil {
		return nil, err
	}
	if err := p.tracker.Start(ctx, job.ID); err != nil {
		return nil, err
	}
	p.debug("job started", "id", job.ID, "type", jobType)
	return job, nil
}

func (p *Pipeline) complete(ctx context.Context, jobID string, metadata map[string]any) error {
	if err := p.tracker.Complete(ctx, jobID, metadata); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

// fail marks the job failed and returns the causing error so callers
// propagate it.
func (p *Pipeline) fail(ctx context.Context, jobID string, cause error) error {
	if err := p.tracker.Fail(ctx, jobID, cause.Error()); err != nil {
		p.warn("failed to record job failure", "id", jobID, "error", err)
	}
	return cause
}

func (p *Pipeline) progress(ctx context.Context, jobID string, processed int, item string, errDelta int) {
	p.note(ctx, jobID, jobs.ProgressUpdate{
		ItemsProcessed: &processed,
		CurrentItem:    item,
		ErrorDelta:     errDelta,
	})
}

// note writes a progress update, logging instead of failing the run when
// the tracker write itself errors.
func (p *Pipeline) note(ctx context.Context, jobID string, update jobs.ProgressUpdate) {
	if err := p.tracker.UpdateProgress(ctx, jobID, update); err != nil {
		p.warn("progress update failed", "id", jobID, "error", err)
	}
}

// pause waits the configured classifier delay, returning early on
// context cancellation.
func (p *Pipeline) pause(ctx context.Context) {
	d := p.cfg.ClassifierDelay()
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *Pipeline) publishCatalogSize(ctx context.Context) {
	if count, err := p.repo.Count(ctx); err == nil {
		metrics.CatalogSize.Set(float64(count))
	}
}

func intp(v int) *int { return &v }

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
