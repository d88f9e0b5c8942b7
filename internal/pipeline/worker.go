package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/parser"
	"github.com/dgallion1/lexgest/internal/pathstore"
)

// PastedTextName names the document created from pasted text.
const PastedTextName = "Pasted text"

// Worker processes a single summarization job.
type Worker struct {
	runner     *Runner
	store      *pathstore.Store
	parserOpts parser.Options
	log        *zap.Logger
}

func NewWorker(runner *Runner, store *pathstore.Store, parserOpts parser.Options, log *zap.Logger) *Worker {
	return &Worker{
		runner:     runner,
		store:      store,
		parserOpts: parserOpts,
		log:        log,
	}
}

// Process parses the job's inputs into its session, runs the pipeline over
// every document in the session and hands the result to pathstore.
func (w *Worker) Process(ctx context.Context, job *Job) {
	sess := job.Session()
	log := w.log.With(zap.String("job_id", job.ID), zap.String("session_id", sess.ID))

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	for _, up := range job.uploads {
		title, text, err := parser.ExtractText(up.Data, up.Name, w.parserOpts, func(done, total int) {
			log.Debug("parse progress", zap.String("filename", up.Name), zap.Int("done", done), zap.Int("total", total))
		})
		job.IncrFilesParsed()
		if err != nil {
			perr := stageErr(StageParse, fmt.Errorf("%s: %w", up.Name, err))
			log.Warn("parse failed, skipping file", zap.String("filename", up.Name), zap.Error(perr))
			job.AddWarning(perr.Error())
			continue
		}
		if title == "" {
			title = up.Name
		}
		// Phase 2: Segment, one document index per input.
		job.SetStatus(StatusSegmenting, "segmenting")
		doc := sess.AddDocument(title, text)
		log.Info("document added", zap.Int("doc", doc.Index), zap.String("name", doc.Name), zap.Int("paragraphs", len(doc.Paragraphs)))
		if len(doc.Paragraphs) == 0 {
			job.AddWarning(fmt.Sprintf("%s: no text found", up.Name))
		}
	}
	if strings.TrimSpace(job.text) != "" {
		job.SetStatus(StatusSegmenting, "segmenting")
		doc := sess.AddDocument(PastedTextName, job.text)
		job.IncrFilesParsed()
		log.Info("document added", zap.Int("doc", doc.Index), zap.String("name", doc.Name), zap.Int("paragraphs", len(doc.Paragraphs)))
	}

	// Phase 3: Extract and aggregate
	docs := sess.Documents()
	item, err := w.runner.Run(ctx, RunInput{
		ID:        job.ID,
		Documents: docs,
		Options:   job.options,
		Progress:  job.SetProgress,
	})
	if err != nil {
		log.Error("run failed", zap.String("stage", string(StageOf(err))), zap.Error(err))
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, string(StageOf(err)))
		return
	}
	job.SetResult(item, Paragraphs(docs))

	// Phase 4: Persist. Failure never fails the run.
	if w.store != nil {
		job.SetStatus(StatusPersisting, "persisting")
		writes, err := w.store.SaveRun(ctx, sess.ID, item, docs)
		if err != nil {
			perr := stageErr(StagePersist, err)
			log.Warn("persist failed", zap.Error(perr))
			job.AddWarning(perr.Error())
		} else {
			log.Debug("persisted", zap.Int("writes", writes))
		}
	}

	if item.Coverage.Complete() {
		job.SetStatus(StatusCompleted, "done")
	} else {
		job.AddWarning(fmt.Sprintf("%d of %d batches failed; %d paragraphs are not reflected in the summary",
			item.Coverage.DroppedBatches, item.Coverage.TotalBatches, len(item.Coverage.DroppedParagraphs)))
		job.SetStatus(StatusPartial, "done")
	}
	log.Info("job finished",
		zap.String("status", string(job.Snapshot().Status)),
		zap.Int("batches", item.Coverage.TotalBatches),
		zap.Int("dropped", item.Coverage.DroppedBatches))
}
