// Package feeds holds the concrete source adapters behind
// ports.SourceAdapter and the registry mapping config entries to them.
package feeds

import (
	"fmt"
	"log/slog"
	"net/http"

	"SaasScout/internal/config"
	"SaasScout/internal/ports"
)

// Factory builds an adapter for one configured feed.
type Factory func(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) ports.SourceAdapter

// Registry keeps a mapping from adapter names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds a registry with the built-in adapters registered.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("launchboard", func(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) ports.SourceAdapter {
		return NewLaunchBoardAdapter(cfg, client, logger)
	})
	r.Register("forum", func(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) ports.SourceAdapter {
		return NewForumAdapter(cfg, client, logger)
	})
	r.Register("codehost", func(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) ports.SourceAdapter {
		return NewCodeHostAdapter(cfg, client, logger)
	})
	return r
}

// Register adds or replaces an adapter factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Build instantiates adapters for all configured feeds. Unknown adapter
// names are an error: a misconfigured feed should fail loudly at startup,
// not silently produce nothing.
func (r *Registry) Build(cfgs []config.FeedConfig, client *http.Client, logger *slog.Logger) ([]ports.SourceAdapter, error) {
	adapters := make([]ports.SourceAdapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		factory, ok := r.factories[cfg.Adapter]
		if !ok {
			return nil, fmt.Errorf("feed %s: adapter %s is not registered", cfg.Name, cfg.Adapter)
		}
		adapters = append(adapters, factory(cfg, client, logger))
	}
	return adapters, nil
}
