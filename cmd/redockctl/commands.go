package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/redockctl/internal/config"
	"github.com/danmuck/redockctl/internal/logging"
	"github.com/danmuck/redockctl/internal/observability"
	"github.com/danmuck/redockctl/internal/tasks"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const programName = "redockctl"

type app struct {
	configPath string
	projectDir string
	verbose    bool
	dryRun     bool

	stdout io.Writer
	stderr io.Writer
	deps   tasks.Deps

	cfg        config.Config
	dispatcher *tasks.Dispatcher
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return runWithDeps(ctx, args, stdout, stderr, tasks.Deps{})
}

func runWithDeps(ctx context.Context, args []string, stdout, stderr io.Writer, deps tasks.Deps) int {
	a := &app{stdout: stdout, stderr: stderr, deps: deps}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := tasks.ExitCode(err)
	if err == nil {
		return code
	}

	// a failing tool has already printed its own diagnostics
	var stepErr *tasks.StepError
	if errors.As(err, &stepErr) {
		log.Debug().Err(err).Int("exit_code", code).Msg("redockctl.run operation failed")
		return code
	}
	fmt.Fprintf(stderr, "%s: %v\n", programName, err)
	if code == tasks.ExitUsage {
		fmt.Fprintf(stderr, "Run '%s' with no arguments to list operations.\n", programName)
	}
	return code
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   programName + " [operation]",
		Short: "redock project automation: tests, docs, releases and dev environment",
		Long: `redockctl runs the redock release workflow.

Operations run external tools in a fixed order and stop at the first failure.
Nothing is rolled back: a publish can push tags and still fail to upload.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: got %d", tasks.ErrUsage, len(args))
			}
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				return fmt.Errorf("%w: %q", tasks.ErrUnknownOperation, args[0])
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				// usage needs neither config nor operations
				logging.SetVerbose(a.verbose)
				return nil
			}
			return a.prepare()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tasks.WriteUsage(a.stdout, programName, tasks.Catalog())
		},
	}
	root.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		Args: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("%w: %q", tasks.ErrUnknownOperation, cmd.Name())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("%w: %q", tasks.ErrUnknownOperation, cmd.Name())
		},
	})

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (redockctl.toml or redockctl.yaml)")
	root.PersistentFlags().StringVarP(&a.projectDir, "dir", "C", "", "project directory (defaults to the config file's project_dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "print commands and removals instead of running them")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", tasks.ErrUsage, err)
	})

	for _, spec := range tasks.Catalog() {
		root.AddCommand(newOperationCommand(a, spec))
	}
	return root
}

func newOperationCommand(a *app, spec tasks.OperationSpec) *cobra.Command {
	name := spec.Name
	return &cobra.Command{
		Use:    name,
		Short:  spec.Description,
		Hidden: spec.Hidden,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: %s takes no arguments", tasks.ErrUsage, name)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd.Context(), []string{name})
		},
	}
}

// prepare runs after argument validation, so usage errors never reach it.
func (a *app) prepare() error {
	logging.SetVerbose(a.verbose)
	log.Logger = log.With().Str("run_id", uuid.New().String()).Logger()

	cfg, path, err := loadConfig(a.configPath, a.projectDir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Debug().Str("config", path).Str("project", cfg.ProjectDir).Bool("dry_run", a.dryRun).Msg("redockctl.prepare")

	deps := a.deps
	deps.DryRun = deps.DryRun || a.dryRun
	if deps.Out == nil {
		deps.Out = a.stdout
	}
	d, err := tasks.NewDispatcherFromConfig(programName, cfg, deps)
	if err != nil {
		return err
	}
	a.dispatcher = d
	return nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	_, err := a.dispatcher.Dispatch(ctx, a.stdout, args)
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		a.writeMetrics()
	}
	return err
}

func (a *app) writeMetrics() {
	path := strings.TrimSpace(a.cfg.MetricsTextfile)
	if path == "" || a.dryRun {
		return
	}
	path = a.cfg.ResolvePath(path)
	if err := observability.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("redockctl.writeMetrics failed")
	}
}
