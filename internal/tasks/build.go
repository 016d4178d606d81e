package tasks

import (
	"io"
	"os"

	"github.com/danmuck/redockctl/internal/config"
	"github.com/danmuck/redockctl/internal/tools"
)

// Deps are the process capabilities operations run through.
type Deps struct {
	Runner    tools.CommandRunner
	Remover   tools.Remover
	LookupEnv func(string) (string, bool)
	HomeDir   func() (string, error)
	DryRun    bool
	// Out receives dry-run plans; defaults to stdout.
	Out io.Writer
}

func (d Deps) withDefaults() Deps {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.DryRun {
		d.Runner = tools.DryRunner{Out: d.Out}
		d.Remover = tools.DryRemover{Out: d.Out}
	}
	if d.Runner == nil {
		d.Runner = tools.ExecRunner{}
	}
	if d.Remover == nil {
		d.Remover = tools.OSRemover{}
	}
	if d.LookupEnv == nil {
		d.LookupEnv = os.LookupEnv
	}
	if d.HomeDir == nil {
		d.HomeDir = os.UserHomeDir
	}
	return d
}

// NewDispatcherFromConfig builds every operation from cfg. Usage order is
// test, docs, publish, clean; reset is registered last and hidden.
func NewDispatcherFromConfig(program string, cfg config.Config, deps Deps) (*Dispatcher, error) {
	deps = deps.withDefaults()

	cleaner, err := NewCleaner(cfg.ProjectDir, cfg.Artifacts, deps.Remover)
	if err != nil {
		return nil, err
	}
	testRunner, err := NewTestRunner(cfg.ProjectDir, cfg.TestCommand, deps.Runner)
	if err != nil {
		return nil, err
	}
	docs, err := NewDocsBuilder(cfg.ResolvePath(cfg.DocsDir), cfg.DocsCommand, deps.Runner)
	if err != nil {
		return nil, err
	}
	publisher, err := NewPublisher(cfg.ProjectDir, cfg.GitRemote, cfg.DistCommand, cleaner, deps.Runner)
	if err != nil {
		return nil, err
	}
	provisioner, err := NewProvisioner(ProvisionerConfig{
		ProjectDir: cfg.ProjectDir,
		ResolveRoot: func() (string, error) {
			return config.ResolveWorkspaceRoot(cfg, deps.LookupEnv, deps.HomeDir)
		},
		EnvName:           cfg.EnvName,
		Manifest:          cfg.Manifest,
		VirtualenvCommand: cfg.VirtualenvCommand,
		InstallerPackage:  cfg.InstallerPackage,
		InstallerCommand:  cfg.InstallerCommand,
		Cleaner:           cleaner,
		Runner:            deps.Runner,
		Remover:           deps.Remover,
		DryRun:            deps.DryRun,
	})
	if err != nil {
		return nil, err
	}

	return NewDispatcher(program, testRunner, docs, publisher, cleaner, provisioner)
}
