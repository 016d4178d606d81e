package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/danmuck/redockctl/internal/tools"
)

type fakeRunResult struct {
	exitCode int32
	err      error
}

// fakeRunner records commands and replays queued results; failOn matches a
// command prefix such as "git push --tags".
type fakeRunner struct {
	commands []tools.Command
	results  []fakeRunResult
	failOn   map[string]int32
}

func (r *fakeRunner) Run(_ context.Context, cmd tools.Command) (int32, error) {
	r.commands = append(r.commands, cmd)
	line := cmd.String()
	for prefix, code := range r.failOn {
		if strings.HasPrefix(line, prefix) {
			return code, &tools.CommandError{Name: cmd.Name, Args: cmd.Args, ExitCode: code, Err: errors.New("fake failure")}
		}
	}
	if len(r.results) > 0 {
		next := r.results[0]
		r.results = r.results[1:]
		return next.exitCode, next.err
	}
	return 0, nil
}

func (r *fakeRunner) lines() []string {
	out := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd.String())
	}
	return out
}

// recordingRemover removes through the real filesystem and records the order.
type recordingRemover struct {
	removed []string
	failOn  string
	inner   tools.Remover
}

func (r *recordingRemover) RemoveAll(path string) error {
	if r.failOn != "" && strings.HasSuffix(path, r.failOn) {
		return errors.New("permission denied")
	}
	r.removed = append(r.removed, path)
	if r.inner == nil {
		return tools.OSRemover{}.RemoveAll(path)
	}
	return r.inner.RemoveAll(path)
}
