package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/danmuck/redockctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidProvisioner = errors.New("tasks: invalid provisioner config")
	ErrEnvInsideArtifacts = errors.New("tasks: environment dir is covered by the artifact set")
)

// ProvisionerConfig wires the reset operation. ResolveRoot runs before any
// step so a missing workspace root fails without side effects.
type ProvisionerConfig struct {
	ProjectDir        string
	ResolveRoot       func() (string, error)
	EnvName           string
	Manifest          string
	VirtualenvCommand []string
	InstallerPackage  string
	InstallerCommand  string
	// BinDir is the scripts dir inside an environment; defaults per GOOS.
	BinDir  string
	Cleaner *Cleaner
	Runner  tools.CommandRunner
	Remover tools.Remover
	// DryRun skips creating the workspace root.
	DryRun bool
}

// Provisioner recreates the isolated development environment from scratch.
type Provisioner struct {
	cfg ProvisionerConfig
}

func NewProvisioner(cfg ProvisionerConfig) (*Provisioner, error) {
	if cfg.ResolveRoot == nil {
		return nil, fmt.Errorf("%w: missing workspace root resolver", ErrInvalidProvisioner)
	}
	if cfg.Cleaner == nil {
		return nil, fmt.Errorf("%w: missing cleaner", ErrInvalidProvisioner)
	}
	name := strings.TrimSpace(cfg.EnvName)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: env name %q", ErrInvalidProvisioner, cfg.EnvName)
	}
	cfg.EnvName = name
	if len(cfg.VirtualenvCommand) == 0 || cfg.VirtualenvCommand[0] == "" {
		return nil, fmt.Errorf("%w: virtualenv command", ErrEmptyCommand)
	}
	if strings.TrimSpace(cfg.InstallerPackage) == "" || strings.TrimSpace(cfg.InstallerCommand) == "" {
		return nil, fmt.Errorf("%w: installer package and command are required", ErrInvalidProvisioner)
	}
	if strings.TrimSpace(cfg.Manifest) == "" {
		return nil, fmt.Errorf("%w: manifest is required", ErrInvalidProvisioner)
	}
	if cfg.BinDir == "" {
		cfg.BinDir = defaultBinDir()
	}
	if cfg.Runner == nil {
		cfg.Runner = tools.ExecRunner{}
	}
	if cfg.Remover == nil {
		cfg.Remover = tools.OSRemover{}
	}
	return &Provisioner{cfg: cfg}, nil
}

func (p *Provisioner) Spec() OperationSpec {
	return OperationSpec{
		Name:        OperationReset,
		Description: "recreate the development environment",
		Hidden:      true,
	}
}

// EnvDir resolves the environment path without touching the filesystem.
func (p *Provisioner) EnvDir() (string, error) {
	root, err := p.cfg.ResolveRoot()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("%w: empty workspace root", ErrInvalidProvisioner)
	}
	envDir := filepath.Join(root, p.cfg.EnvName)
	if p.cfg.Cleaner.Covers(envDir) {
		return "", fmt.Errorf("%w: %s", ErrEnvInsideArtifacts, envDir)
	}
	return envDir, nil
}

func (p *Provisioner) Run(ctx context.Context) (Result, error) {
	envDir, err := p.EnvDir()
	if err != nil {
		log.Debug().Err(err).Msg("tasks.Provisioner.Run preflight failed")
		return Result{Operation: OperationReset, FailedIndex: -1}, err
	}
	log.Info().Str("env", envDir).Msg("tasks.Provisioner.Run")
	return Sequence{Operation: OperationReset, Steps: p.Steps(envDir)}.Run(ctx)
}

// Steps is the fixed reset order: clean, remove env, create env, install
// installer, install manifest deps, install project.
func (p *Provisioner) Steps(envDir string) []Step {
	pip := filepath.Join(envDir, p.cfg.BinDir, "pip")
	installer := filepath.Join(envDir, p.cfg.BinDir, p.cfg.InstallerCommand)
	manifest := p.cfg.Manifest
	if !filepath.IsAbs(manifest) {
		manifest = filepath.Join(p.cfg.ProjectDir, manifest)
	}
	projectDir := p.cfg.ProjectDir
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}

	return []Step{
		p.cfg.Cleaner.Step(),
		{
			Name: "remove-env",
			Run: func(context.Context) error {
				if err := p.cfg.Remover.RemoveAll(envDir); err != nil {
					return fmt.Errorf("tasks: remove env %s: %w", envDir, err)
				}
				return nil
			},
		},
		{
			Name: "create-env",
			Run: func(ctx context.Context) error {
				if !p.cfg.DryRun {
					if err := os.MkdirAll(filepath.Dir(envDir), 0o755); err != nil {
						return fmt.Errorf("tasks: workspace root: %w", err)
					}
				}
				return runCommand(ctx, p.cfg.Runner, argv(p.cfg.ProjectDir, p.cfg.VirtualenvCommand, envDir))
			},
		},
		{
			Name: "install-installer",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.cfg.Runner, tools.Command{
					Name: pip,
					Args: []string{"install", p.cfg.InstallerPackage},
					Dir:  p.cfg.ProjectDir,
				})
			},
		},
		{
			Name: "install-deps",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.cfg.Runner, tools.Command{
					Name: installer,
					Args: []string{"install", "-r", manifest},
					Dir:  p.cfg.ProjectDir,
				})
			},
		},
		{
			Name: "install-project",
			Run: func(ctx context.Context) error {
				return runCommand(ctx, p.cfg.Runner, tools.Command{
					Name: pip,
					Args: []string{"install", projectDir},
					Dir:  p.cfg.ProjectDir,
				})
			},
		},
	}
}

func defaultBinDir() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}
