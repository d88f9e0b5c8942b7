package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/aggregate"
	"github.com/dgallion1/lexgest/internal/cache"
	"github.com/dgallion1/lexgest/internal/config"
	"github.com/dgallion1/lexgest/internal/extract"
	"github.com/dgallion1/lexgest/internal/metrics"
	"github.com/dgallion1/lexgest/internal/pathstore"
	"github.com/dgallion1/lexgest/internal/pipeline"
)

// app holds the long-lived dependencies shared by both commands.
type app struct {
	metrics *metrics.Metrics
	stats   *extract.TierStats
	runner  *pipeline.Runner
	store   *pathstore.Store

	closers []func()
}

// buildApp wires model clients, the optional batch cache and the optional
// pathstore into a runner. A cache that cannot be reached is logged and
// skipped.
func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger, withRuntime bool) (*app, error) {
	a := &app{
		metrics: metrics.New(withRuntime),
		stats:   extract.NewTierStats(time.Hour),
	}

	primary := extract.Instrument(
		extract.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL, cfg.ModelTimeout),
		extract.TierPrimary, a.stats, a.metrics)

	var fallback extract.Completer
	switch {
	case cfg.OpenAIAPIKey != "":
		fallback = extract.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.ModelTimeout)
	case cfg.FallbackModel != "" && cfg.FallbackModel != cfg.AnthropicModel:
		fallback = extract.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.FallbackModel, cfg.AnthropicBaseURL, cfg.ModelTimeout)
	}

	opts := []extract.ExtractorOption{
		extract.WithRetry(pipeline.Retry(log, nil)),
		extract.WithFallbackThreshold(cfg.FallbackThreshold),
	}
	if fallback != nil {
		opts = append(opts, extract.WithFallback(extract.Instrument(fallback, extract.TierFallback, a.stats, a.metrics)))
	}
	if cfg.RedisURL != "" {
		c, err := cache.Dial(ctx, cfg.RedisURL, cfg.CacheTTL, log)
		if err != nil {
			log.Warn("batch cache disabled", zap.Error(err))
		} else {
			opts = append(opts, extract.WithCache(c))
			a.closers = append(a.closers, func() { _ = c.Close() })
		}
	}

	strategy, err := aggregate.New(cfg.MergeStrategy, primary, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.runner = pipeline.NewRunner(
		extract.NewExtractor(primary, log, opts...),
		strategy,
		pipeline.RunnerConfig{
			WindowSize:     cfg.WindowSize,
			BatchTimeout:   cfg.BatchTimeout,
			SkimParagraphs: cfg.SkimParagraphs,
		},
		a.metrics, log)

	if cfg.PathstoreURL != "" {
		a.store = pathstore.NewStore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey), cfg.MaxConcurrentStore, log)
		a.closers = append(a.closers, a.store.Close)
	}

	log.Info("pipeline ready",
		zap.String("model", cfg.AnthropicModel),
		zap.Bool("fallback", fallback != nil),
		zap.String("merge_strategy", cfg.MergeStrategy),
		zap.Bool("cache", cfg.RedisURL != ""),
		zap.Bool("pathstore", a.store != nil))
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}
