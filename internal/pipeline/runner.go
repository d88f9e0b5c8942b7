package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/aggregate"
	"github.com/dgallion1/lexgest/internal/chunker"
	"github.com/dgallion1/lexgest/internal/extract"
	"github.com/dgallion1/lexgest/internal/legal"
	"github.com/dgallion1/lexgest/internal/metrics"
)

// DefaultSkimParagraphs is how many opening paragraphs the quick skim reads.
const DefaultSkimParagraphs = 8

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	WindowSize     int
	BatchTimeout   time.Duration
	SkimParagraphs int // 0 disables the skim
}

// Runner turns a set of segmented documents into one SummaryItem.
type Runner struct {
	extractor *extract.Extractor
	strategy  aggregate.Strategy
	batcher   *chunker.Batcher
	cfg       RunnerConfig
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewRunner(ex *extract.Extractor, strategy aggregate.Strategy, cfg RunnerConfig, m *metrics.Metrics, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		extractor: ex,
		strategy:  strategy,
		batcher:   chunker.NewBatcher(nil),
		cfg:       cfg,
		metrics:   m,
		log:       log,
	}
}

// RunInput is one summarization request over already segmented documents.
type RunInput struct {
	ID        string // generated when empty
	Title     string // derived from the documents when empty
	Documents []legal.Document
	Options   legal.Options
	Progress  ProgressFunc
}

// Run segments nothing itself: it batches the documents' paragraphs, extracts
// every batch under the concurrency limit, aggregates the survivors and
// returns the SummaryItem. Errors are *StageError.
func (r *Runner) Run(ctx context.Context, in RunInput) (legal.SummaryItem, error) {
	item, err := r.run(ctx, in)
	switch {
	case err != nil:
		r.metrics.RunFinished("failed")
	case !item.Coverage.Complete():
		r.metrics.RunFinished("partial")
	default:
		r.metrics.RunFinished("completed")
	}
	return item, err
}

func (r *Runner) run(ctx context.Context, in RunInput) (legal.SummaryItem, error) {
	opts := in.Options.Normalize()
	if err := opts.Validate(); err != nil {
		return legal.SummaryItem{}, stageErr(StageBatch, err)
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	title := in.Title
	if title == "" {
		title = runTitle(in.Documents)
	}
	log := r.log.With(zap.String("run_id", id))
	report := func(p Progress) {
		if in.Progress != nil {
			in.Progress(p)
		}
	}

	var paras []legal.Paragraph
	for _, d := range in.Documents {
		paras = append(paras, d.Paragraphs...)
	}
	if len(paras) == 0 {
		return legal.SummaryItem{}, stageErr(StageSegment, ErrNoContent)
	}

	batches := r.batcher.Batch(paras, opts.TokenCeiling)
	log.Info("run started",
		zap.Int("documents", len(in.Documents)),
		zap.Int("paragraphs", len(paras)),
		zap.Int("batches", len(batches)),
		zap.Int("token_ceiling", opts.TokenCeiling),
		zap.Int("concurrency", opts.Concurrency))
	report(Progress{Stage: StageExtract, Total: len(batches)})

	skim := r.startSkim(ctx, paras, opts, log)

	ctrl := &Controller{
		Concurrency:  opts.Concurrency,
		WindowSize:   r.cfg.WindowSize,
		BatchTimeout: r.cfg.BatchTimeout,
		Metrics:      r.metrics,
		Log:          log,
	}
	outcomes, err := ctrl.Run(ctx, batches, func(bctx context.Context, b legal.Batch) (legal.BatchResult, error) {
		return r.extractor.Extract(bctx, title, b, opts, len(batches))
	}, report)
	if err != nil {
		<-skim
		return legal.SummaryItem{}, stageErr(StageExtract, err)
	}

	results, cov := r.collect(outcomes, len(paras))
	if cov.SucceededBatches == 0 {
		<-skim
		return legal.SummaryItem{}, stageErr(StageExtract, fmt.Errorf("%w (%d batches)", ErrAllBatchesFailed, cov.TotalBatches))
	}
	if !cov.Complete() {
		log.Warn("partial coverage",
			zap.Int("dropped_batches", cov.DroppedBatches),
			zap.Int("dropped_paragraphs", len(cov.DroppedParagraphs)))
	}

	report(Progress{Stage: StageAggregate, Done: len(batches), Total: len(batches), Dropped: cov.DroppedBatches})
	merged, err := r.strategy.Aggregate(ctx, aggregate.Input{
		DocTitle:   title,
		Results:    results,
		Paragraphs: paras,
		Options:    opts,
	})
	skimText := <-skim
	if err != nil {
		return legal.SummaryItem{}, stageErr(StageAggregate, err)
	}

	log.Info("run finished",
		zap.String("strategy", r.strategy.Name()),
		zap.Int("extractions", len(merged.Extractions)),
		zap.Int("ontology_items", merged.Ontology.Len()),
		zap.Int("conflicts", len(merged.Ontology.Conflicts)))
	return legal.SummaryItem{
		ID:          id,
		Title:       merged.Title,
		Extractions: merged.Extractions,
		Ontology:    merged.Ontology,
		Skim:        skimText,
		Coverage:    cov,
		Options:     opts,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// startSkim runs the quick skim alongside extraction. Its failure only
// leaves the skim empty.
func (r *Runner) startSkim(ctx context.Context, paras []legal.Paragraph, opts legal.Options, log *zap.Logger) <-chan string {
	out := make(chan string, 1)
	n := min(r.cfg.SkimParagraphs, len(paras))
	if n <= 0 {
		out <- ""
		return out
	}
	go func() {
		sctx, cancel := r.callContext(ctx)
		defer cancel()
		text, err := r.extractor.Skim(sctx, paras[:n], opts)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("quick skim failed", zap.Error(err))
		}
		out <- text
	}()
	return out
}

func (r *Runner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.BatchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.BatchTimeout)
}

// collect keeps successful results in batch order and computes coverage.
func (r *Runner) collect(outcomes []Outcome, totalParas int) ([]legal.BatchResult, legal.Coverage) {
	cov := legal.Coverage{TotalBatches: len(outcomes), ParagraphsTotal: totalParas}
	var results []legal.BatchResult
	for _, o := range outcomes {
		if !o.OK() {
			cov.DroppedBatches++
			cov.DroppedParagraphs = append(cov.DroppedParagraphs, o.Batch.IDs()...)
			r.metrics.BatchOutcome(metrics.OutcomeDropped)
			continue
		}
		cov.SucceededBatches++
		cov.ParagraphsCovered += len(o.Batch.Paragraphs)
		switch {
		case o.Result.Cached:
			cov.CachedBatches++
			r.metrics.BatchOutcome(metrics.OutcomeCached)
		case o.Result.Fallback:
			cov.FallbackBatches++
			r.metrics.BatchOutcome(metrics.OutcomeFallback)
		default:
			r.metrics.BatchOutcome(metrics.OutcomeOK)
		}
		results = append(results, o.Result)
	}
	return results, cov
}

func runTitle(docs []legal.Document) string {
	var named []string
	for _, d := range docs {
		if d.Name != "" && len(d.Paragraphs) > 0 {
			named = append(named, d.Name)
		}
	}
	switch len(named) {
	case 0:
		return ""
	case 1:
		return named[0]
	default:
		return fmt.Sprintf("%s and %d more", named[0], len(named)-1)
	}
}
