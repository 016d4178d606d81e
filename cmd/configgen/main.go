package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/redockctl/internal/config"
	"github.com/danmuck/redockctl/internal/logging"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stderr); err != nil {
		log.Error().Err(err).Msg("configgen failed")
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.StringP("format", "f", "", "config format: toml|yaml (defaults to the output extension, then toml)")
	output := fs.StringP("output", "o", config.DefaultFileName, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.StringP("input", "i", config.DefaultFileName, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			return err
		}
		log.Info().Str("path", *input).Str("env_name", cfg.EnvName).Msg("validated config")
		return nil
	}

	kind := strings.TrimSpace(*format)
	if kind == "" {
		kind = strings.TrimPrefix(filepath.Ext(*output), ".")
	}
	if kind == "" {
		kind = "toml"
	}
	if err := config.WriteTemplate(*output, kind, *force); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	log.Info().Str("format", kind).Str("path", *output).Msg("wrote config template")
	return nil
}
