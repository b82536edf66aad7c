package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fluxpipe/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "fluxpipe",
		Short:         "Community FBA simulations, FVA and shadow price analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("FLUXPIPE_CONFIG"), "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: console|json (default console)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
		if err != nil {
			return err
		}
		g.logger = l
		return nil
	}

	root.AddCommand(
		newSimulateCmd(g),
		newShadowCmd(g),
		newFVACmd(g),
		newCheckpointCmd(g),
	)
	return root
}

// loadConfig reads the --config file when given. Defaults are not applied.
func (g *globalOptions) loadConfig() (config.Config, error) {
	if g.configPath == "" {
		return config.Config{}, nil
	}
	return config.Load(g.configPath)
}

// newLogger builds a zerolog logger writing to w. Empty level and format
// select info and console.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	if level == "" {
		level = config.DefaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", level, err)
	}
	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
