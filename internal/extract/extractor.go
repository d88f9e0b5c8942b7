package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/legal"
)

// DefaultFallbackThreshold is the batch count above which a failed batch is
// retried once on the fallback model. Small jobs fail fast instead.
const DefaultFallbackThreshold = 10

// BatchCache stores validated batch results keyed by CacheKey.
type BatchCache interface {
	Get(ctx context.Context, key string) (legal.BatchResult, bool, error)
	Put(ctx context.Context, key string, res legal.BatchResult) error
}

// RetryFunc runs call, retrying transient failures as it sees fit.
type RetryFunc func(ctx context.Context, call func(context.Context) error) error

func callOnce(ctx context.Context, call func(context.Context) error) error { return call(ctx) }

// Extractor produces one validated BatchResult per batch.
type Extractor struct {
	primary           Completer
	fallback          Completer
	cache             BatchCache
	retry             RetryFunc
	fallbackThreshold int
	log               *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

func WithFallback(c Completer) ExtractorOption { return func(e *Extractor) { e.fallback = c } }

func WithCache(c BatchCache) ExtractorOption { return func(e *Extractor) { e.cache = c } }

func WithRetry(r RetryFunc) ExtractorOption { return func(e *Extractor) { e.retry = r } }

func WithFallbackThreshold(n int) ExtractorOption {
	return func(e *Extractor) { e.fallbackThreshold = n }
}

func NewExtractor(primary Completer, log *zap.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		primary:           primary,
		retry:             callOnce,
		fallbackThreshold: DefaultFallbackThreshold,
		log:               log,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Extract runs one batch. The primary model is retried through the
// configured RetryFunc. On primary failure the fallback model gets a single
// call, but only when the job has more than the fallback threshold of
// batches. The returned error means the batch is dropped.
func (e *Extractor) Extract(ctx context.Context, docTitle string, batch legal.Batch, opts legal.Options, totalBatches int) (legal.BatchResult, error) {
	log := e.log.With(zap.Int("batch", batch.Index), zap.Int("paragraphs", len(batch.Paragraphs)))

	key := CacheKey(docTitle, batch, opts)
	if e.cache != nil {
		res, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Warn("batch cache read failed", zap.Error(err))
		} else if ok {
			res.BatchIndex = batch.Index
			res.Cached = true
			return res, nil
		}
	}

	res, err := e.extractWith(ctx, e.primary, e.retry, docTitle, batch, opts)
	if err != nil {
		if e.fallback == nil || totalBatches <= e.fallbackThreshold || ctx.Err() != nil {
			return legal.BatchResult{}, err
		}
		log.Warn("primary extraction failed, trying fallback model",
			zap.String("fallback_model", e.fallback.Model()), zap.Error(err))
		res, err = e.extractWith(ctx, e.fallback, callOnce, docTitle, batch, opts)
		if err != nil {
			return legal.BatchResult{}, fmt.Errorf("fallback: %w", err)
		}
		res.Fallback = true
	}

	if e.cache != nil {
		if err := e.cache.Put(ctx, key, res); err != nil {
			log.Warn("batch cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func (e *Extractor) extractWith(ctx context.Context, c Completer, retry RetryFunc, docTitle string, batch legal.Batch, opts legal.Options) (legal.BatchResult, error) {
	system, prompt := BuildBatchPrompt(docTitle, batch, opts)

	var res legal.BatchResult
	err := retry(ctx, func(ctx context.Context) error {
		out, err := c.Complete(ctx, Request{System: system, Prompt: prompt, JSON: true})
		if err != nil {
			return err
		}
		var resp batchResponse
		if err := ParseJSON(out.Text, &resp); err != nil {
			return err
		}
		var rej Rejections
		res, rej = Sanitize(resp.Extractions, resp.Ontology, batch.Paragraphs, opts)
		if rej != (Rejections{}) {
			e.log.Debug("dropped unsupported model output",
				zap.Int("batch", batch.Index),
				zap.Int("extractions", rej.Extractions),
				zap.Int("items", rej.Items),
				zap.Int("sources", rej.Sources))
		}
		return nil
	})
	if err != nil {
		return legal.BatchResult{}, fmt.Errorf("extract batch %d with %s: %w", batch.Index, c.Model(), err)
	}
	res.BatchIndex = batch.Index
	res.Model = c.Model()
	return res, nil
}

// Skim produces a short plain-prose overview of the opening paragraphs.
func (e *Extractor) Skim(ctx context.Context, paragraphs []legal.Paragraph, opts legal.Options) (string, error) {
	if len(paragraphs) == 0 {
		return "", nil
	}
	system, prompt := BuildSkimPrompt(paragraphs, opts)
	out, err := e.primary.Complete(ctx, Request{System: system, Prompt: prompt, MaxTokens: 512})
	if err != nil {
		return "", fmt.Errorf("skim: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// CacheKey derives a stable key for a batch from everything that influences
// its extraction result.
func CacheKey(docTitle string, batch legal.Batch, opts legal.Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00",
		PromptVersion, docTitle, opts.Length, opts.Complexity, opts.Tone, opts.Style, opts.Jurisdiction)
	for _, p := range batch.Paragraphs {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00", p.ID, p.SectionTitle, p.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
