// Package app assembles configuration, storage, feeds, and the pipeline
// into a runnable application and dispatches CLI commands to it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"SaasScout/internal/catalog"
	"SaasScout/internal/config"
	"SaasScout/internal/domain"
	"SaasScout/internal/gatekeeper"
	"SaasScout/internal/infrastructure/feeds"
	"SaasScout/internal/infrastructure/llm"
	"SaasScout/internal/infrastructure/storage"
	"SaasScout/internal/jobs"
	"SaasScout/internal/logging"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
	"SaasScout/internal/usecase"
)

// Application wires configs to the pipeline and owns shared resources.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance: connects Postgres, applies
// the schema, and assembles the pipeline components.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.File)
	}

	pool, err := storage.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}
	if err := storage.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate storage: %w", err)
	}

	entityRepo := storage.NewEntityRepository(pool)
	jobRepo := storage.NewJobRepository(pool)

	registry := feeds.NewRegistry()
	adapters, err := registry.Build(cfg.Feeds, nil, baseLogger.With("component", "feeds"))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build feed adapters: %w", err)
	}

	var classifier ports.Classifier
	if cfg.Classifier.APIKey != "" {
		classifier = llm.NewClassifier(cfg.Classifier)
	} else {
		baseLogger.Warn("no classifier credentials, gatekeeper will use rule-based fallback")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Aggregator: usecase.NewAggregator(adapters, baseLogger.With("component", "aggregator")),
		Gatekeeper: gatekeeper.New(classifier, baseLogger.With("component", "gatekeeper")),
		Catalog:    catalog.New(entityRepo, cfg.Catalog.Capacity, baseLogger.With("component", "catalog")),
		Tracker:    jobs.NewTracker(jobRepo, baseLogger.With("component", "jobs")),
		Repository: entityRepo,
		Config:     cfg.Pipeline,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	if cfg.Metrics.Addr != "" {
		go metrics.Expose(cfg.Metrics.Addr)
	}

	return &Application{cfg: cfg, logger: baseLogger, pool: pool, pipeline: pipeline}, nil
}

// Close releases the shared resources.
func (a *Application) Close() {
	a.pool.Close()
}

// Run dispatches one CLI command to the pipeline.
func (a *Application) Run(ctx context.Context, command string) error {
	switch command {
	case "scrape":
		return a.report(a.pipeline.RunAggregation(ctx))
	case "assess":
		return a.report(a.pipeline.RunGatekeeping(ctx, 0))
	case "score":
		return a.report(a.pipeline.RunScoring(ctx))
	case "enrich":
		return a.report(a.pipeline.RunEnrichment(ctx))
	case "cleanup":
		return a.report(a.pipeline.RunCleanup(ctx))
	case "low-quality":
		return a.printLowQuality(ctx)
	case "jobs":
		return a.printJobs(ctx)
	case "run":
		return a.report(a.pipeline.RunFullPipeline(ctx))
	default:
		return fmt.Errorf("unknown command %q (expected scrape, assess, score, enrich, cleanup, low-quality, jobs, or run)", command)
	}
}

func (a *Application) report(jobID string, err error) error {
	if err != nil {
		return err
	}
	a.logger.Info("command finished", "job", jobID)
	return nil
}

// printLowQuality previews what cleanup would delete, without mutating.
func (a *Application) printLowQuality(ctx context.Context) error {
	entities, err := a.pipeline.ListLowQuality(ctx)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Println("nothing to prune")
		return nil
	}
	for _, e := range entities {
		fmt.Printf("%s\t%s\tengagement=%d\tcreated=%s\n", e.Slug, e.Name, e.Engagement(), e.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *Application) printJobs(ctx context.Context) error {
	list, err := a.pipeline.Jobs(ctx, domain.JobFilter{Limit: 20})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no jobs recorded")
		return nil
	}
	for _, job := range list {
		fmt.Printf("%s\t%s\t%s\t%.0f%%\t%d/%d\terrors=%d\t%s\n",
			job.ID, job.Type, job.Status, job.Progress,
			job.ItemsProcessed, job.ItemsTotal, job.Errors,
			job.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
