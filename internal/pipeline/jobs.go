package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/lexgest/internal/legal"
)

// JobStatus represents the state of a summarization job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusParsing     JobStatus = "parsing"
	StatusSegmenting  JobStatus = "segmenting"
	StatusExtracting  JobStatus = "extracting"
	StatusAggregating JobStatus = "aggregating"
	StatusPersisting  JobStatus = "persisting"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Upload is one file submitted with a job.
type Upload struct {
	Name string
	Data []byte
}

// Job tracks the state of a single summarization run.
type Job struct {
	mu sync.Mutex

	ID        string `json:"job_id"`
	SessionID string `json:"session_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress JobProgress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	session    *Session
	uploads    []Upload
	text       string
	options    legal.Options
	result     *legal.SummaryItem
	paragraphs []legal.Paragraph
	errors     []string
	warnings   []string
}

// JobProgress tracks processing progress.
type JobProgress struct {
	Percent        int      `json:"percent"`
	TotalBatches   int      `json:"total_batches"`
	BatchesDone    int      `json:"batches_done"`
	DroppedBatches int      `json:"dropped_batches"`
	WindowsDone    int      `json:"windows_done"`
	Windows        int      `json:"windows"`
	FilesParsed    int      `json:"files_parsed"`
	FilesTotal     int      `json:"files_total"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
}

// NewJob builds a queued job over a session. Uploads are parsed and text is
// added as a pasted document when the job runs.
func NewJob(id string, sess *Session, uploads []Upload, text string, opts legal.Options) *Job {
	now := time.Now()
	n := len(uploads)
	if text != "" {
		n++
	}
	return &Job{
		ID:        id,
		SessionID: sess.ID,
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  JobProgress{FilesTotal: n},
		CreatedAt: now,
		UpdatedAt: now,
		session:   sess,
		uploads:   uploads,
		text:      text,
		options:   opts,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updated()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updated() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddWarning records a non-fatal problem, e.g. a skipped file.
func (j *Job) AddWarning(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warnings = append(j.warnings, msg)
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// IncrFilesParsed counts one finished input.
func (j *Job) IncrFilesParsed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesParsed++
	j.UpdatedAt = time.Now()
}

// SetProgress applies a runner progress report and moves the job into the
// reported stage.
func (j *Job) SetProgress(p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Percent = p.Percent()
	j.Progress.TotalBatches = p.Total
	j.Progress.BatchesDone = p.Done
	j.Progress.DroppedBatches = p.Dropped
	j.Progress.WindowsDone = p.Window
	if p.Windows > 0 {
		j.Progress.Windows = p.Windows
	}
	switch p.Stage {
	case StageExtract:
		j.Status, j.Phase = StatusExtracting, "extracting"
	case StageAggregate:
		j.Status, j.Phase = StatusAggregating, "aggregating"
	}
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished summary with the paragraphs it cites.
func (j *Job) SetResult(item legal.SummaryItem, paras []legal.Paragraph) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &item
	j.paragraphs = paras
	j.UpdatedAt = time.Now()
}

// Result returns the summary and its paragraphs, or nil when not finished.
func (j *Job) Result() (*legal.SummaryItem, []legal.Paragraph) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.paragraphs
}

// Session returns the session the job runs against.
func (j *Job) Session() *Session { return j.session }

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string          `json:"job_id"`
	SessionID string          `json:"session_id"`
	Status    JobStatus       `json:"status"`
	Phase     string          `json:"phase"`
	Progress  JobProgress     `json:"progress"`
	Coverage  *legal.Coverage `json:"coverage,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = nonNil(slices.Clone(j.errors))
	p.Warnings = nonNil(slices.Clone(j.warnings))
	snap := JobSnapshot{
		ID:        j.ID,
		SessionID: j.SessionID,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.result != nil {
		cov := j.result.Coverage
		snap.Coverage = &cov
	}
	return snap
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
