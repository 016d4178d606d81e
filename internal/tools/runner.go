package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Exit codes reported when a command never produced one of its own.
const (
	ExitGeneric     int32 = 1
	ExitNotFound    int32 = 127
	ExitInterrupted int32 = 130
)

// Command describes one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandRunner abstracts external command execution for workflow steps.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (int32, error)
}

// CommandError reports a command that exited non-zero or could not start.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int32
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed cmd=%s args=%q exit=%d: %v", e.Name, strings.Join(e.Args, " "), e.ExitCode, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner executes commands on the local host, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// tools command-runner implementation backed by os/exec.
func (r ExecRunner) Run(ctx context.Context, c Command) (int32, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = nil
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	log.Debug().Str("cmd", c.Name).Strs("args", c.Args).Str("dir", c.Dir).Msg("tools.ExecRunner.Run exec")
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ExitInterrupted, &CommandError{Name: c.Name, Args: c.Args, ExitCode: ExitInterrupted, Err: fmt.Errorf("%w: %v", ctxErr, err)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := int32(exitErr.ExitCode())
		if code < 0 {
			// killed by a signal from outside
			code = ExitGeneric
		}
		return code, &CommandError{Name: c.Name, Args: c.Args, ExitCode: code, Err: err}
	}

	exitCode := ExitGeneric
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, os.ErrNotExist) {
		exitCode = ExitNotFound
	}
	return exitCode, &CommandError{Name: c.Name, Args: c.Args, ExitCode: exitCode, Err: err}
}

// DryRunner logs commands instead of executing them.
type DryRunner struct {
	Out io.Writer
}

func (r DryRunner) Run(_ context.Context, c Command) (int32, error) {
	log.Info().Str("cmd", c.Name).Strs("args", c.Args).Str("dir", c.Dir).Msg("tools.DryRunner.Run skipped")
	if r.Out != nil {
		prefix := ""
		if c.Dir != "" {
			prefix = "(cd " + c.Dir + ") "
		}
		fmt.Fprintf(r.Out, "would run: %s%s\n", prefix, c.String())
	}
	return 0, nil
}
