package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fluxpipe/internal/checkpoint"
	"fluxpipe/internal/config"
	"fluxpipe/internal/output"
	"fluxpipe/internal/pipeline"
)

func newCheckpointCmd(g *globalOptions) *cobra.Command {
	var (
		path   string
		driver string
		export string
	)
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Show the progress recorded in a checkpoint",
		Example: "  fluxpipe checkpoint --path results/checkpoint.json\n" +
			"  fluxpipe checkpoint --path run.db --export partial",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if path != "" {
				cfg.CheckpointPath = path
			}
			if driver != "" {
				cfg.CheckpointDriver = driver
			}
			cfg.ApplyDefaults()

			store, err := checkpoint.Open(cfg.CheckpointDriver, cfg.CheckpointPath)
			if err != nil {
				return err
			}
			defer store.Close()
			ctx := cmd.Context()
			cp, err := pipeline.ReadCheckpoint(ctx, store)
			if errors.Is(err, checkpoint.ErrNotFound) {
				return fmt.Errorf("no checkpoint at %s", cfg.CheckpointPath)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "checkpoint:  %s\n", cfg.CheckpointPath)
			fmt.Fprintf(w, "updated:     %s\n", cp.UpdatedAt.Format(time.RFC3339))
			fmt.Fprintf(w, "samples:     %d done\n", cp.Next())
			if n := len(cp.Done); n > 0 {
				fmt.Fprintf(w, "last sample: %s\n", cp.Done[n-1])
			}
			fmt.Fprintf(w, "infeasible:  %d\n", len(cp.Results.Infeasible))

			if export == "" {
				return nil
			}
			sink, err := output.NewDirSink(export)
			if err != nil {
				return err
			}
			if err := cp.Results.WriteBundle(ctx, sink); err != nil {
				return err
			}
			g.logger.Info().Str("dir", sink.Root()).Int("samples", cp.Next()).Msg("partial results exported")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&path, "path", "", "Checkpoint path (default <results_dir>/"+config.DefaultCheckpointFile+")")
	f.StringVar(&driver, "driver", "", "Checkpoint store: file|sqlite (default from extension)")
	f.StringVar(&export, "export", "", "Write the partial result tables to this directory")
	return cmd
}
