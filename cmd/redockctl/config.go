package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/redockctl/internal/config"
)

var configCandidates = []string{config.DefaultFileName, "redockctl.yaml", "redockctl.yml"}

// redockctl loader: explicit path, else the first config file found in the
// project dir, else defaults. A relative project_dir is anchored at the file.
func loadConfig(path string, projectDir string) (config.Config, string, error) {
	dir := strings.TrimSpace(projectDir)
	if dir == "" {
		dir = "."
	}

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		for _, name := range configCandidates {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				resolved = candidate
				break
			} else if !errors.Is(err, os.ErrNotExist) {
				return config.Config{}, "", fmt.Errorf("load redockctl config: %w", err)
			}
		}
	}

	cfg := config.Default()
	if resolved != "" {
		loaded, err := config.Load(resolved)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("load redockctl config: %w", err)
		}
		cfg = loaded
		if !filepath.IsAbs(cfg.ProjectDir) {
			cfg.ProjectDir = filepath.Join(filepath.Dir(resolved), cfg.ProjectDir)
		}
	}

	if strings.TrimSpace(projectDir) != "" {
		cfg.ProjectDir = projectDir
	}
	abs, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load redockctl config: %w", err)
	}
	cfg.ProjectDir = abs

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, "", fmt.Errorf("load redockctl config: %w", err)
	}
	return cfg, resolved, nil
}
