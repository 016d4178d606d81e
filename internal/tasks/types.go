package tasks

import (
	"context"
	"time"
)

// Operation names accepted by the dispatcher.
const (
	OperationTest    = "test"
	OperationDocs    = "docs"
	OperationPublish = "publish"
	OperationClean   = "clean"
	OperationReset   = "reset"
)

// OperationSpec is the catalog entry for one operation.
type OperationSpec struct {
	Name        string
	Description string
	Idempotent  bool
	// Hidden operations run normally but are left out of usage output.
	Hidden bool
}

// Operation is the execution boundary for one named workflow.
type Operation interface {
	Spec() OperationSpec
	Run(ctx context.Context) (Result, error)
}

// StepOutcome records one executed step.
type StepOutcome struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result summarizes one operation run. FailedIndex is -1 when no step failed.
type Result struct {
	Operation   string
	Steps       []StepOutcome
	FailedIndex int
	// Partial is set when a failure left remote state ahead of local state.
	Partial  bool
	Duration time.Duration
}

// Completed lists the names of steps that finished successfully.
func (r Result) Completed() []string {
	out := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Err == nil {
			out = append(out, s.Name)
		}
	}
	return out
}

func (r Result) Failed() bool {
	return r.FailedIndex >= 0
}
