package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/redockctl/internal/tools"
	"github.com/rs/zerolog/log"
)

// Publisher step indexes; a failure at or after publishPushedIndex leaves
// the remote ahead of the package index.
const (
	publishPushCommits = iota
	publishPushTags
	publishClean
	publishUpload

	publishPushedIndex = publishClean
)

// Publisher pushes commits and tags, cleans, then builds and uploads a
// source distribution. It is not transactional.
type Publisher struct {
	projectDir  string
	remote      string
	distCommand []string
	cleaner     *Cleaner
	runner      tools.CommandRunner
}

func NewPublisher(projectDir, remote string, distCommand []string, cleaner *Cleaner, runner tools.CommandRunner) (*Publisher, error) {
	if len(distCommand) == 0 || distCommand[0] == "" {
		return nil, fmt.Errorf("%w: dist command", ErrEmptyCommand)
	}
	if cleaner == nil {
		return nil, fmt.Errorf("tasks: publisher requires a cleaner")
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Publisher{
		projectDir:  projectDir,
		remote:      strings.TrimSpace(remote),
		distCommand: append([]string(nil), distCommand...),
		cleaner:     cleaner,
		runner:      runner,
	}, nil
}

func (p *Publisher) Spec() OperationSpec {
	return OperationSpec{
		Name:        OperationPublish,
		Description: "push commits and tags, then upload a source distribution",
	}
}

func (p *Publisher) Steps() []Step {
	return []Step{
		publishPushCommits: {
			Name: "push-commits",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.runner, p.git("push"))
			},
		},
		publishPushTags: {
			Name: "push-tags",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.runner, p.git("push", "--tags"))
			},
		},
		publishClean: p.cleaner.Step(),
		publishUpload: {
			Name: "sdist-upload",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.runner, argv(p.projectDir, p.distCommand))
			},
		},
	}
}

func (p *Publisher) Run(ctx context.Context) (Result, error) {
	res, err := Sequence{Operation: OperationPublish, Steps: p.Steps()}.Run(ctx)
	if err != nil && res.FailedIndex >= publishPushedIndex {
		res.Partial = true
		log.Warn().
			Int("failed_step", res.FailedIndex+1).
			Strs("completed", res.Completed()).
			Msg("tasks.Publisher.Run commits and tags were pushed but the distribution was not uploaded")
	}
	return res, err
}

func (p *Publisher) git(args ...string) tools.Command {
	if p.remote != "" {
		args = append(args, p.remote)
	}
	return tools.Command{Name: "git", Args: args, Dir: p.projectDir}
}
