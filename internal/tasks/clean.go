package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danmuck/redockctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var ErrArtifactOutsideProject = errors.New("tasks: artifact path outside project")

// Cleaner removes the generated-artifact set below a project dir.
type Cleaner struct {
	projectDir string
	patterns   []string
	remover    tools.Remover
}

// NewCleaner validates that every pattern stays strictly inside projectDir.
func NewCleaner(projectDir string, patterns []string, remover tools.Remover) (*Cleaner, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	cleaned := make([]string, 0, len(patterns))
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if filepath.IsAbs(pattern) {
			return nil, fmt.Errorf("%w: %q is absolute", ErrArtifactOutsideProject, pattern)
		}
		full := filepath.Join(root, pattern)
		if full == root || !isWithin(full, root) {
			return nil, fmt.Errorf("%w: %q", ErrArtifactOutsideProject, pattern)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("tasks: artifact pattern %q: %w", pattern, err)
		}
		cleaned = append(cleaned, filepath.ToSlash(filepath.Clean(pattern)))
	}
	if remover == nil {
		remover = tools.OSRemover{}
	}
	return &Cleaner{projectDir: root, patterns: cleaned, remover: remover}, nil
}

func (c *Cleaner) Spec() OperationSpec {
	return OperationSpec{
		Name:        OperationClean,
		Description: "remove generated build artifacts",
		Idempotent:  true,
	}
}

func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	return Sequence{
		Operation: OperationClean,
		Steps:     []Step{c.Step()},
	}.Run(ctx)
}

// Step exposes the cleaner as a member of another operation's sequence.
func (c *Cleaner) Step() Step {
	return Step{Name: "clean", Run: c.Clean}
}

// Patterns returns the artifact patterns, relative to the project dir.
func (c *Cleaner) Patterns() []string {
	return append([]string(nil), c.patterns...)
}

// Targets expands the artifact patterns to the paths that currently exist.
func (c *Cleaner) Targets() ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, pattern := range c.patterns {
		matches, err := filepath.Glob(filepath.Join(c.projectDir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Clean removes every existing target. The first removal error aborts.
func (c *Cleaner) Clean(ctx context.Context) error {
	targets, err := c.Targets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Debug().Str("project", c.projectDir).Msg("tasks.Cleaner.Clean nothing to remove")
		return nil
	}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info().Str("path", target).Msg("tasks.Cleaner.Clean remove")
		if err := c.remover.RemoveAll(target); err != nil {
			return fmt.Errorf("tasks: remove %s: %w", target, err)
		}
	}
	return nil
}

// Covers reports whether path is, or lies below, something the cleaner would remove.
func (c *Cleaner) Covers(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil || !isWithin(abs, c.projectDir) {
		return false
	}
	rel, err := filepath.Rel(c.projectDir, abs)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		for _, pattern := range c.patterns {
			if ok, _ := filepath.Match(pattern, prefix); ok {
				return true
			}
		}
	}
	return false
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}
