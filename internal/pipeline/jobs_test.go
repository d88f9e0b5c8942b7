package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/lexgest/internal/legal"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", NewSession("s", nil), nil, "text", legal.Options{})
	if job.Status != StatusQueued {
		t.Fatalf("expected new job to be %q, got %q", StatusQueued, job.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusSegmenting, "segmenting"},
		{StatusExtracting, "extracting"},
		{StatusAggregating, "aggregating"},
		{StatusPersisting, "persisting"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Status.Terminal() {
		t.Error("expected completed to be terminal")
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusExtracting, StatusAggregating, StatusPersisting} {
		if s.Terminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusCompleted, StatusPartial, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("batch 3 failed")
	job.AddError("batch 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "batch 3 failed" {
		t.Errorf("expected first error %q, got %q", "batch 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_AddWarning(t *testing.T) {
	job := &Job{ID: "warn-test", UpdatedAt: time.Now()}
	job.AddWarning("scan.pdf: no text found")

	snap := job.Snapshot()
	if len(snap.Progress.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(snap.Progress.Warnings))
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected warnings to leave errors empty, got %v", snap.Progress.Errors)
	}
}

func TestJob_SetProgress(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetProgress(Progress{Stage: StageExtract, Done: 4, Total: 10, Dropped: 1, Window: 1, Windows: 3})

	snap := job.Snapshot()
	if snap.Status != StatusExtracting {
		t.Errorf("expected status %q, got %q", StatusExtracting, snap.Status)
	}
	if snap.Progress.Percent != 40 {
		t.Errorf("expected 40 percent, got %d", snap.Progress.Percent)
	}
	if snap.Progress.DroppedBatches != 1 || snap.Progress.WindowsDone != 1 || snap.Progress.Windows != 3 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}

	job.SetProgress(Progress{Stage: StageAggregate, Done: 10, Total: 10, Dropped: 1})
	snap = job.Snapshot()
	if snap.Status != StatusAggregating {
		t.Errorf("expected status %q, got %q", StatusAggregating, snap.Status)
	}
	if snap.Progress.Windows != 3 {
		t.Errorf("expected window count to be kept, got %d", snap.Progress.Windows)
	}
}

func TestJob_Result(t *testing.T) {
	job := &Job{ID: "result-test"}
	if item, _ := job.Result(); item != nil {
		t.Fatal("expected no result before SetResult")
	}
	paras := []legal.Paragraph{{ID: "d1.p1", Text: "x"}}
	job.SetResult(legal.SummaryItem{ID: "r1", Coverage: legal.Coverage{TotalBatches: 2, SucceededBatches: 1, DroppedBatches: 1}}, paras)

	item, got := job.Result()
	if item == nil || item.ID != "r1" {
		t.Fatalf("expected result r1, got %+v", item)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 paragraph, got %d", len(got))
	}
	snap := job.Snapshot()
	if snap.Coverage == nil || snap.Coverage.DroppedBatches != 1 {
		t.Errorf("expected coverage in snapshot, got %+v", snap.Coverage)
	}
}

func TestJob_FilesTotalCountsPastedText(t *testing.T) {
	job := NewJob("files", NewSession("", nil), []Upload{{Name: "a.txt"}, {Name: "b.pdf"}}, "pasted", legal.Options{})
	if job.Progress.FilesTotal != 3 {
		t.Errorf("expected 3 inputs, got %d", job.Progress.FilesTotal)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil errors and warnings in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
