package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lexgest/internal/legal"
	"github.com/dgallion1/lexgest/internal/metrics"
)

// DefaultWindowSize is how many batches complete between progress reports.
const DefaultWindowSize = 4

// BatchFunc extracts one batch. A returned error drops the batch.
type BatchFunc func(ctx context.Context, b legal.Batch) (legal.BatchResult, error)

// Outcome is the result slot of one batch.
type Outcome struct {
	Batch  legal.Batch
	Result legal.BatchResult
	Err    error
}

// OK reports whether the batch produced a result.
func (o Outcome) OK() bool { return o.Err == nil }

// Progress is reported after every window and at stage changes.
type Progress struct {
	Stage   Stage `json:"stage"`
	Done    int   `json:"batches_done"`
	Total   int   `json:"total_batches"`
	Dropped int   `json:"dropped_batches"`
	Window  int   `json:"windows_done"`
	Windows int   `json:"windows"`
}

// Percent returns completed batches as a whole percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Done * 100 / p.Total
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Controller drives batch extraction with bounded parallelism.
type Controller struct {
	Concurrency  int
	WindowSize   int
	BatchTimeout time.Duration
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

// window returns the effective window size. A window never holds fewer
// batches than the concurrency limit, so windows do not throttle it.
func (c *Controller) window() int {
	w := c.WindowSize
	if w <= 0 {
		w = DefaultWindowSize
	}
	return max(w, c.Concurrency, 1)
}

// Run extracts every batch and returns one Outcome per batch in batch order.
// A failing batch never cancels its siblings. Run only returns an error when
// ctx ends; the outcomes gathered so far are returned with it.
func (c *Controller) Run(ctx context.Context, batches []legal.Batch, fn BatchFunc, progress ProgressFunc) ([]Outcome, error) {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := make([]Outcome, len(batches))
	size := c.window()
	windows := (len(batches) + size - 1) / size
	done, dropped := 0, 0

	for w := 0; w < windows; w++ {
		lo, hi := w*size, min((w+1)*size, len(batches))

		var g errgroup.Group
		g.SetLimit(max(c.Concurrency, 1))
		for i := lo; i < hi; i++ {
			b := batches[i]
			g.Go(func() error {
				bctx, cancel := c.batchContext(ctx)
				defer cancel()

				c.Metrics.BatchStarted()
				res, err := fn(bctx, b)
				c.Metrics.BatchDone()
				if err != nil {
					log.Warn("batch dropped", zap.Int("batch", b.Index), zap.Error(err))
				}
				outcomes[i] = Outcome{Batch: b, Result: res, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		for i := lo; i < hi; i++ {
			done++
			if outcomes[i].Err != nil {
				dropped++
			}
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if progress != nil {
			progress(Progress{
				Stage:   StageExtract,
				Done:    done,
				Total:   len(batches),
				Dropped: dropped,
				Window:  w + 1,
				Windows: windows,
			})
		}
	}
	return outcomes, nil
}

func (c *Controller) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.BatchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.BatchTimeout)
}
