package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/redockctl/internal/observability"
	"github.com/danmuck/redockctl/internal/tools"
	"github.com/rs/zerolog/log"
)

// Exit codes for failures that carry no command exit status.
const (
	ExitUsage       = 64
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Step is one fallible unit of an ordered sequence.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sequence runs steps in order and stops at the first failure. Completed steps are never undone.
type Sequence struct {
	Operation string
	Steps     []Step
}

// StepError identifies the step that stopped a sequence.
type StepError struct {
	Operation string
	Index     int
	Step      string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d (%s) failed: %v", e.Operation, e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (s Sequence) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{
		Operation:   s.Operation,
		Steps:       make([]StepOutcome, 0, len(s.Steps)),
		FailedIndex: -1,
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			res.FailedIndex = i
			res.Duration = time.Since(start)
			log.Warn().Str("operation", s.Operation).Str("step", step.Name).Msg("tasks.Sequence.Run interrupted")
			return res, &StepError{Operation: s.Operation, Index: i, Step: step.Name, Err: err}
		}

		log.Info().Str("operation", s.Operation).Str("step", step.Name).Int("index", i+1).Int("total", len(s.Steps)).Msg("tasks.Sequence.Run step")
		stepStart := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(stepStart)
		observability.RecordStep(s.Operation, step.Name, elapsed, err == nil)
		res.Steps = append(res.Steps, StepOutcome{Name: step.Name, Duration: elapsed, Err: err})

		if err != nil {
			res.FailedIndex = i
			res.Duration = time.Since(start)
			log.Debug().Err(err).Str("operation", s.Operation).Str("step", step.Name).Msg("tasks.Sequence.Run step failed")
			return res, &StepError{Operation: s.Operation, Index: i, Step: step.Name, Err: err}
		}
	}

	res.Duration = time.Since(start)
	log.Debug().Str("operation", s.Operation).Dur("elapsed", res.Duration).Msg("tasks.Sequence.Run complete")
	return res, nil
}

// ExitCode maps an operation error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUnknownOperation) || errors.Is(err, ErrUsage) {
		return ExitUsage
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	var cmdErr *tools.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.ExitCode == 0 {
			return ExitFailure
		}
		return int(cmdErr.ExitCode)
	}
	return ExitFailure
}

// runCommand executes cmd and reports any non-zero exit as a *tools.CommandError.
func runCommand(ctx context.Context, runner tools.CommandRunner, cmd tools.Command) error {
	code, err := runner.Run(ctx, cmd)
	if err != nil {
		var cmdErr *tools.CommandError
		if errors.As(err, &cmdErr) {
			return err
		}
		if code == 0 {
			code = tools.ExitGeneric
		}
		return &tools.CommandError{Name: cmd.Name, Args: cmd.Args, ExitCode: code, Err: err}
	}
	if code != 0 {
		return &tools.CommandError{Name: cmd.Name, Args: cmd.Args, ExitCode: code, Err: fmt.Errorf("exit status %d", code)}
	}
	return nil
}

func argv(dir string, command []string, extra ...string) tools.Command {
	args := make([]string, 0, len(command)-1+len(extra))
	args = append(args, command[1:]...)
	args = append(args, extra...)
	return tools.Command{Name: command[0], Args: args, Dir: dir}
}
