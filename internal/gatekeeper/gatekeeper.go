package gatekeeper

import (
	"context"
	"log/slog"

	"SaasScout/internal/domain"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
)

// Gatekeeper runs the two-tier viability classification. Verdicts are
// memoized by dedup key so a candidate surfacing from two feeds in the
// same batch is classified once. The cache must not outlive a batch;
// callers reset it at batch start.
type Gatekeeper struct {
	classifier ports.Classifier
	logger     *slog.Logger
	cache      map[string]domain.ViabilityAssessment
}

// New builds a gatekeeper. classifier may be nil, in which case every
// Tier-2 decision takes the rule-based fallback path.
func New(classifier ports.Classifier, logger *slog.Logger) *Gatekeeper {
	return &Gatekeeper{
		classifier: classifier,
		logger:     logger,
		cache:      map[string]domain.ViabilityAssessment{},
	}
}

// Reset drops memoized verdicts. Called at the start of each batch so
// assessments never leak across pipeline runs.
func (g *Gatekeeper) Reset() {
	g.cache = map[string]domain.ViabilityAssessment{}
}

// Assess produces a verdict for one candidate. It never returns an error:
// a classifier failure degrades to the rule-based fallback. The second
// return reports whether the external classifier was actually invoked;
// pre-validation, fallback, and memoized verdicts cost no AI quota and
// callers must not rate-limit on them.
func (g *Gatekeeper) Assess(ctx context.Context, c domain.CandidateRecord) (domain.ViabilityAssessment, bool) {
	key := c.DedupKey()
	if verdict, ok := g.cache[key]; ok {
		metrics.GatekeeperVerdicts.WithLabelValues("cached").Inc()
		return verdict, false
	}

	verdict, tier := g.assess(ctx, c)
	g.cache[key] = verdict
	metrics.GatekeeperVerdicts.WithLabelValues(tier).Inc()
	return verdict, tier == "ai"
}

func (g *Gatekeeper) assess(ctx context.Context, c domain.CandidateRecord) (domain.ViabilityAssessment, string) {
	if verdict, rejected := PreValidate(c); rejected {
		g.debug("pre-validation rejected candidate", "name", c.Name, "reason", verdict.RejectionReason)
		return verdict, "prevalidation"
	}

	if g.classifier == nil {
		return AssessByRules(c), "fallback"
	}

	verdict, err := g.classifier.Classify(ctx, c)
	if err != nil {
		g.warn("classifier failed, using rule-based fallback", "name", c.Name, "error", err)
		return AssessByRules(c), "fallback"
	}

	verdict.Method = domain.MethodAI
	return verdict, "ai"
}

func (g *Gatekeeper) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *Gatekeeper) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
