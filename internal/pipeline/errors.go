package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a run-level error came from.
type Stage string

const (
	StageParse     Stage = "parse"
	StageSegment   Stage = "segment"
	StageBatch     Stage = "batch"
	StageExtract   Stage = "extract"
	StageAggregate Stage = "aggregate"
	StagePersist   Stage = "persist"
)

var (
	// ErrAllBatchesFailed means no batch produced a usable result.
	ErrAllBatchesFailed = errors.New("all batches failed")
	// ErrNoContent means the inputs held no segmentable text.
	ErrNoContent = errors.New("no extractable content")
)

// StageError is the single error type a run returns to its caller.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage of a run error, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
