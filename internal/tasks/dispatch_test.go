package tasks

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/redockctl/internal/config"
	"github.com/danmuck/redockctl/internal/testutil/testlog"
)

func newTestDispatcher(t *testing.T, project string, runner *fakeRunner, remover *recordingRemover) *Dispatcher {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectDir = project
	cfg.WorkspaceRoot = filepath.Join(t.TempDir(), "ws")
	d, err := NewDispatcherFromConfig("redockctl", cfg, Deps{Runner: runner, Remover: remover})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func TestDispatchWithoutOperationPrintsUsage(t *testing.T) {
	testlog.Start(t)
	runner := &fakeRunner{}
	d := newTestDispatcher(t, seedProject(t), runner, &recordingRemover{})

	for _, args := range [][]string{nil, {""}, {"  "}} {
		var out bytes.Buffer
		if _, err := d.Dispatch(context.Background(), &out, args); err != nil {
			t.Fatalf("args=%q: expected success, got %v", args, err)
		}
		usage := out.String()
		for _, name := range []string{"test", "docs", "publish", "clean"} {
			if !strings.Contains(usage, "  "+name+" ") {
				t.Fatalf("usage missing %q:\n%s", name, usage)
			}
		}
		if strings.Contains(usage, "reset") {
			t.Fatalf("reset is not a documented operation:\n%s", usage)
		}
	}
	if len(runner.commands) != 0 {
		t.Fatalf("usage must not run commands: %v", runner.lines())
	}
}

func TestDispatchUnknownOperationHasNoSideEffects(t *testing.T) {
	testlog.Start(t)
	project := seedProject(t)
	runner := &fakeRunner{}
	remover := &recordingRemover{}
	d := newTestDispatcher(t, project, runner, remover)

	for _, token := range []string{"frobnicate", "Test", " clean", "clean ", "help"} {
		var out bytes.Buffer
		_, err := d.Dispatch(context.Background(), &out, []string{token})
		if !errors.Is(err, ErrUnknownOperation) {
			t.Fatalf("token=%q: expected ErrUnknownOperation, got %v", token, err)
		}
		if ExitCode(err) != ExitUsage {
			t.Fatalf("token=%q: unexpected exit code %d", token, ExitCode(err))
		}
		if out.Len() != 0 {
			t.Fatalf("token=%q: unknown operation should not print usage: %q", token, out.String())
		}
	}
	if len(runner.commands) != 0 || len(remover.removed) != 0 {
		t.Fatalf("unexpected side effects: commands=%v removed=%v", runner.lines(), remover.removed)
	}
	if !exists(t, filepath.Join(project, "build")) || !exists(t, filepath.Join(project, "dist")) {
		t.Fatalf("unknown operation must not delete files")
	}
}

func TestDispatchRejectsExtraTokens(t *testing.T) {
	testlog.Start(t)
	runner := &fakeRunner{}
	d := newTestDispatcher(t, seedProject(t), runner, &recordingRemover{})
	_, err := d.Dispatch(context.Background(), &bytes.Buffer{}, []string{"clean", "test"})
	if !errors.Is(err, ErrUsage) || ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestDispatchRunsEachOperation(t *testing.T) {
	cases := map[string]string{
		OperationTest:    "python setup.py test",
		OperationDocs:    "make html",
		OperationPublish: "git push",
		OperationReset:   "virtualenv",
	}
	for op, firstCommand := range cases {
		t.Run(op, func(t *testing.T) {
			testlog.Start(t)
			runner := &fakeRunner{}
			d := newTestDispatcher(t, seedProject(t), runner, &recordingRemover{})

			res, err := d.Dispatch(context.Background(), &bytes.Buffer{}, []string{op})
			if err != nil {
				t.Fatalf("%s: %v", op, err)
			}
			if res.Operation != op {
				t.Fatalf("unexpected result operation: %q", res.Operation)
			}
			if len(runner.commands) == 0 || !strings.HasPrefix(runner.commands[0].String(), firstCommand) {
				t.Fatalf("%s: unexpected commands %v", op, runner.lines())
			}
		})
	}
}

func TestDispatchCleanTwice(t *testing.T) {
	testlog.Start(t)
	project := seedProject(t)
	runner := &fakeRunner{}
	d := newTestDispatcher(t, project, runner, &recordingRemover{})

	for i := 0; i < 2; i++ {
		if _, err := d.Dispatch(context.Background(), &bytes.Buffer{}, []string{OperationClean}); err != nil {
			t.Fatalf("clean #%d: %v", i+1, err)
		}
	}
	if exists(t, filepath.Join(project, "build")) {
		t.Fatalf("build should be removed")
	}
	if len(runner.commands) != 0 {
		t.Fatalf("clean runs no external commands: %v", runner.lines())
	}
}

func TestDispatchDryRunTouchesNothing(t *testing.T) {
	testlog.Start(t)
	project := seedProject(t)
	cfg := config.Default()
	cfg.ProjectDir = project
	cfg.WorkspaceRoot = filepath.Join(t.TempDir(), "ws")

	var plan bytes.Buffer
	d, err := NewDispatcherFromConfig("redockctl", cfg, Deps{DryRun: true, Out: &plan})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if _, err := d.Dispatch(context.Background(), &bytes.Buffer{}, []string{OperationReset}); err != nil {
		t.Fatalf("dry reset: %v", err)
	}
	if !exists(t, filepath.Join(project, "build")) {
		t.Fatalf("dry run must not delete artifacts")
	}
	if exists(t, cfg.WorkspaceRoot) {
		t.Fatalf("dry run must not create the workspace root")
	}
	out := plan.String()
	if !strings.Contains(out, "would remove: "+filepath.Join(project, "build")) {
		t.Fatalf("plan should list removals:\n%s", out)
	}
	if !strings.Contains(out, "virtualenv "+filepath.Join(cfg.WorkspaceRoot, "redock")) {
		t.Fatalf("plan should list virtualenv creation:\n%s", out)
	}
}

func TestCatalogMatchesDispatcherOrder(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir(), &fakeRunner{}, &recordingRemover{})
	got := d.Operations()
	want := Catalog()
	if len(got) != len(want) {
		t.Fatalf("catalog size mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("catalog[%d]=%+v dispatcher=%+v", i, want[i], got[i])
		}
	}
}
