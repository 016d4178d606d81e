package tasks

import (
	"context"
	"fmt"

	"github.com/danmuck/redockctl/internal/tools"
)

// DocsBuilder runs the documentation generator's HTML target inside the docs dir.
// Output left behind by a failed build is not removed.
type DocsBuilder struct {
	docsDir string
	command []string
	runner  tools.CommandRunner
}

func NewDocsBuilder(docsDir string, command []string, runner tools.CommandRunner) (*DocsBuilder, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("%w: docs command", ErrEmptyCommand)
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &DocsBuilder{docsDir: docsDir, command: append([]string(nil), command...), runner: runner}, nil
}

func (d *DocsBuilder) Spec() OperationSpec {
	return OperationSpec{
		Name:        OperationDocs,
		Description: "build the HTML documentation",
		Idempotent:  true,
	}
}

func (d *DocsBuilder) Run(ctx context.Context) (Result, error) {
	return Sequence{
		Operation: OperationDocs,
		Steps: []Step{{
			Name: "build-html",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, d.runner, argv(d.docsDir, d.command))
			},
		}},
	}.Run(ctx)
}
