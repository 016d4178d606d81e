package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadTomlOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redockctl.toml")
	writeFile(t, path, `
env_name = "redock-dev"
git_remote = "upstream"
docs_command = ["sphinx-build", "-b", "html", ".", "build/html"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnvName != "redock-dev" {
		t.Fatalf("unexpected env name: %q", cfg.EnvName)
	}
	if cfg.GitRemote != "upstream" {
		t.Fatalf("unexpected remote: %q", cfg.GitRemote)
	}
	if len(cfg.DocsCommand) != 5 || cfg.DocsCommand[0] != "sphinx-build" {
		t.Fatalf("unexpected docs command: %v", cfg.DocsCommand)
	}
	if cfg.Manifest != DefaultManifest {
		t.Fatalf("unset keys should keep defaults, manifest=%q", cfg.Manifest)
	}
	if !reflect.DeepEqual(cfg.Artifacts, DefaultArtifacts()) {
		t.Fatalf("unexpected artifacts: %v", cfg.Artifacts)
	}
}

func TestLoadYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redockctl.yaml")
	writeFile(t, path, `
workspace_root: /srv/envs
artifacts: [build, dist]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkspaceRoot != "/srv/envs" {
		t.Fatalf("unexpected workspace root: %q", cfg.WorkspaceRoot)
	}
	if !reflect.DeepEqual(cfg.Artifacts, []string{"build", "dist"}) {
		t.Fatalf("unexpected artifacts: %v", cfg.Artifacts)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "a.toml")
	writeFile(t, tomlPath, `env_nmae = "typo"`)
	if _, err := Load(tomlPath); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown toml key, got %v", err)
	}

	yamlPath := filepath.Join(dir, "a.yaml")
	writeFile(t, yamlPath, "env_nmae: typo\n")
	if _, err := Load(yamlPath); err == nil {
		t.Fatalf("expected error for unknown yaml key")
	}
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redockctl.ini")
	writeFile(t, path, "")
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"empty env name":    func(c *Config) { c.EnvName = "" },
		"env name with sep": func(c *Config) { c.EnvName = "a/b" },
		"dot env name":      func(c *Config) { c.EnvName = ".." },
		"empty test cmd":    func(c *Config) { c.TestCommand = nil },
		"blank argv":        func(c *Config) { c.DistCommand = []string{"python", ""} },
		"absolute artifact": func(c *Config) { c.Artifacts = []string{"/tmp"} },
		"bad glob":          func(c *Config) { c.Artifacts = []string{"[build"} },
		"no artifacts":      func(c *Config) { c.Artifacts = []string{} },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestResolveWorkspaceRoot(t *testing.T) {
	noHome := func() (string, error) { return "", errors.New("no home") }
	env := func(values map[string]string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		}
	}

	cfg := Default()
	cfg.WorkspaceRoot = "/srv/envs"
	root, err := ResolveWorkspaceRoot(cfg, env(map[string]string{"WORKON_HOME": "/ignored"}), noHome)
	if err != nil || root != "/srv/envs" {
		t.Fatalf("explicit root should win: root=%q err=%v", root, err)
	}

	cfg = Default()
	root, err = ResolveWorkspaceRoot(cfg, env(map[string]string{"WORKON_HOME": "/tmp/ws"}), noHome)
	if err != nil || root != "/tmp/ws" {
		t.Fatalf("expected env root: root=%q err=%v", root, err)
	}

	root, err = ResolveWorkspaceRoot(cfg, env(nil), func() (string, error) { return "/home/dev", nil })
	if err != nil || root != filepath.Join("/home/dev", ".virtualenvs") {
		t.Fatalf("expected home fallback: root=%q err=%v", root, err)
	}

	if _, err := ResolveWorkspaceRoot(cfg, env(map[string]string{"WORKON_HOME": "  "}), noHome); !errors.Is(err, ErrWorkspaceRootUnset) {
		t.Fatalf("expected ErrWorkspaceRootUnset, got %v", err)
	}
}

func TestResolveWorkspaceRootAnchorsRelativeAtProject(t *testing.T) {
	project := t.TempDir()
	cfg := Default()
	cfg.ProjectDir = project
	cfg.WorkspaceRoot = ".envs"
	root, err := ResolveWorkspaceRoot(cfg, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := filepath.Join(project, ".envs"); root != want {
		t.Fatalf("unexpected root: %q want %q", root, want)
	}
}

func TestTemplatesLoadCleanly(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"toml", "yaml"} {
		path := filepath.Join(dir, "redockctl."+format)
		if err := WriteTemplate(path, format, false); err != nil {
			t.Fatalf("write %s template: %v", format, err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load %s template: %v", format, err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Fatalf("%s template should match defaults: %+v", format, cfg)
		}
		if err := WriteTemplate(path, format, false); err == nil {
			t.Fatalf("expected refusal to overwrite %s template", format)
		}
	}
	if _, err := Template("ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
