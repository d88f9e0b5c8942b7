package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/config"
	"github.com/dgallion1/lexgest/internal/metrics"
	"github.com/dgallion1/lexgest/internal/parser"
	"github.com/dgallion1/lexgest/internal/pathstore"
)

// Orchestrator manages the summarization job queue and its sessions.
type Orchestrator struct {
	jobs     *JobStore
	sessions *SessionStore
	queue    chan *Job
	runner   *Runner
	store    *pathstore.Store
	metrics  *metrics.Metrics
	log      *zap.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. store may be nil to skip persistence.
func NewOrchestrator(cfg config.Config, runner *Runner, store *pathstore.Store, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		sessions: NewSessionStore(cfg.SessionTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		runner:   runner,
		store:    store,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.runner, o.store, parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.SetQueueDepth(len(o.queue))
					o.process(workerCtx, w, job)
				}
			}
		}()
	}

	// Start job and session cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				o.sessions.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) process(ctx context.Context, w *Worker, job *Job) {
	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}
	w.Process(ctx, job)
}

// Stop gracefully shuts down the pipeline. In-flight runs see their context
// cancelled and fail with a StageError.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.metrics.SetQueueDepth(len(o.queue))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Sessions returns the session registry.
func (o *Orchestrator) Sessions() *SessionStore {
	return o.sessions
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the pathstore hand-off, or nil when persistence is off.
func (o *Orchestrator) Store() *pathstore.Store {
	return o.store
}
