package tools

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Remover deletes a path and everything below it. Absent paths are not errors.
type Remover interface {
	RemoveAll(path string) error
}

// OSRemover removes paths from the local filesystem.
type OSRemover struct{}

func (OSRemover) RemoveAll(path string) error {
	log.Debug().Str("path", path).Msg("tools.OSRemover.RemoveAll")
	return os.RemoveAll(path)
}

// DryRemover logs removals instead of performing them.
type DryRemover struct {
	Out io.Writer
}

func (r DryRemover) RemoveAll(path string) error {
	log.Info().Str("path", path).Msg("tools.DryRemover.RemoveAll skipped")
	if r.Out != nil {
		fmt.Fprintf(r.Out, "would remove: %s\n", path)
	}
	return nil
}
