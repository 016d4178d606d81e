package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName     = "redockctl.toml"
	DefaultEnvName      = "redock"
	DefaultWorkspaceEnv = "WORKON_HOME"
	DefaultManifest     = "requirements.txt"
	DefaultDocsDir      = "docs"
	DefaultInstaller    = "pip-accel"
)

var (
	ErrInvalidConfig      = errors.New("config: invalid config")
	ErrUnsupportedFormat  = errors.New("config: unsupported file format")
	ErrWorkspaceRootUnset = errors.New("config: workspace root unset")
)

// Config is the redockctl file shape. Paths are relative to ProjectDir unless absolute.
type Config struct {
	ProjectDir        string   `toml:"project_dir" yaml:"project_dir" validate:"required"`
	WorkspaceRoot     string   `toml:"workspace_root" yaml:"workspace_root"`
	WorkspaceEnv      string   `toml:"workspace_env" yaml:"workspace_env" validate:"required"`
	EnvName           string   `toml:"env_name" yaml:"env_name" validate:"required,excludesall=/\\"`
	Manifest          string   `toml:"manifest" yaml:"manifest" validate:"required"`
	DocsDir           string   `toml:"docs_dir" yaml:"docs_dir" validate:"required"`
	DocsCommand       []string `toml:"docs_command" yaml:"docs_command" validate:"min=1,dive,required"`
	TestCommand       []string `toml:"test_command" yaml:"test_command" validate:"min=1,dive,required"`
	DistCommand       []string `toml:"dist_command" yaml:"dist_command" validate:"min=1,dive,required"`
	VirtualenvCommand []string `toml:"virtualenv_command" yaml:"virtualenv_command" validate:"min=1,dive,required"`
	InstallerPackage  string   `toml:"installer_package" yaml:"installer_package" validate:"required"`
	InstallerCommand  string   `toml:"installer_command" yaml:"installer_command" validate:"required"`
	GitRemote         string   `toml:"git_remote" yaml:"git_remote"`
	Artifacts         []string `toml:"artifacts" yaml:"artifacts" validate:"min=1,dive,required"`
	MetricsTextfile   string   `toml:"metrics_textfile" yaml:"metrics_textfile"`
}

// Default returns the stock redock layout.
func Default() Config {
	return Config{
		ProjectDir:        ".",
		WorkspaceEnv:      DefaultWorkspaceEnv,
		EnvName:           DefaultEnvName,
		Manifest:          DefaultManifest,
		DocsDir:           DefaultDocsDir,
		DocsCommand:       []string{"make", "html"},
		TestCommand:       []string{"python", "setup.py", "test"},
		DistCommand:       []string{"python", "setup.py", "sdist", "upload"},
		VirtualenvCommand: []string{"virtualenv"},
		InstallerPackage:  DefaultInstaller,
		InstallerCommand:  DefaultInstaller,
		Artifacts:         DefaultArtifacts(),
	}
}

// DefaultArtifacts is the generated-artifact set removed by clean.
func DefaultArtifacts() []string {
	return []string{".tox", "build", "dist", "docs/build", "*.egg-info", "*.egg"}
}

// Load reads a toml or yaml file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks required fields and path constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidConfig, first.Namespace(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(cfg.EnvName) == "." || strings.TrimSpace(cfg.EnvName) == ".." {
		return fmt.Errorf("%w: env_name must name a directory", ErrInvalidConfig)
	}
	for i, pattern := range cfg.Artifacts {
		if filepath.IsAbs(pattern) {
			return fmt.Errorf("%w: artifacts[%d]=%q must be relative", ErrInvalidConfig, i, pattern)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: artifacts[%d]=%q: %v", ErrInvalidConfig, i, pattern, err)
		}
	}
	return nil
}

// ResolveWorkspaceRoot picks the directory that holds isolated environments:
// the configured value, then the variable named by WorkspaceEnv, then ~/.virtualenvs.
// A relative workspace_root is anchored at the project dir like other config paths.
func ResolveWorkspaceRoot(cfg Config, lookupEnv func(string) (string, bool), homeDir func() (string, error)) (string, error) {
	if root := strings.TrimSpace(cfg.WorkspaceRoot); root != "" {
		return filepath.Abs(cfg.ResolvePath(root))
	}
	if lookupEnv != nil && strings.TrimSpace(cfg.WorkspaceEnv) != "" {
		if root, ok := lookupEnv(cfg.WorkspaceEnv); ok && strings.TrimSpace(root) != "" {
			return filepath.Abs(strings.TrimSpace(root))
		}
	}
	if homeDir != nil {
		home, err := homeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, ".virtualenvs"), nil
		}
	}
	return "", fmt.Errorf("%w: set workspace_root or $%s", ErrWorkspaceRootUnset, cfg.WorkspaceEnv)
}

// ResolvePath anchors a config path at the project dir.
func (c Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.ProjectDir, path)
}
