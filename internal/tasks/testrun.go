package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/redockctl/internal/tools"
)

var ErrEmptyCommand = errors.New("tasks: empty command")

// TestRunner runs the project's packaging-integrated test command.
type TestRunner struct {
	projectDir string
	command    []string
	runner     tools.CommandRunner
}

func NewTestRunner(projectDir string, command []string, runner tools.CommandRunner) (*TestRunner, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("%w: test command", ErrEmptyCommand)
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &TestRunner{projectDir: projectDir, command: append([]string(nil), command...), runner: runner}, nil
}

func (t *TestRunner) Spec() OperationSpec {
	return OperationSpec{
		Name:        OperationTest,
		Description: "run the test suite",
		Idempotent:  true,
	}
}

func (t *TestRunner) Run(ctx context.Context) (Result, error) {
	return Sequence{
		Operation: OperationTest,
		Steps: []Step{{
			Name: "run-tests",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, t.runner, argv(t.projectDir, t.command))
			},
		}},
	}.Run(ctx)
}
