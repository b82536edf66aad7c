package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/output"
	"fluxpipe/internal/scan"
	"fluxpipe/internal/shadow"
)

// Files written by the shadow command.
const (
	ShadowPricesFile    = "shadow_prices.tsv"
	ObjectiveValuesFile = "objective_values.tsv"
)

func newShadowCmd(g *globalOptions) *cobra.Command {
	var (
		objectives string
		filter     string
		outDir     string
		workers    int
		minimize   bool
		progress   bool
	)
	cmd := &cobra.Command{
		Use:     "shadow MODEL...",
		Short:   "Optimize each objective on each model and tabulate metabolite shadow prices",
		Example: "  fluxpipe shadow --objectives EX_ac[fe],EX_but[fe] --filter negative --out shadow models/*.json",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objs := splitCSV(objectives)
			if len(objs) == 0 {
				return errors.New("--objectives requires at least one reaction id")
			}
			flt, err := shadow.ParseFilter(filter)
			if err != nil {
				return err
			}
			models := make([]*model.Model, 0, len(args))
			for _, p := range args {
				m, err := model.Load(p)
				if err != nil {
					return err
				}
				models = append(models, m)
			}

			opts := scan.Options{Workers: workers, WantDuals: true, Logger: g.logger}
			if minimize {
				opts.Sense = lp.Minimize
			}
			if progress {
				bar := pb.New(len(models) * len(objs))
				bar.Output = cmd.ErrOrStderr()
				bar.Start()
				defer bar.Finish()
				opts.Progress = func() { bar.Increment() }
			}
			ctx := cmd.Context()
			entries, err := scan.Run(ctx, lp.NewSimplexSession(lp.Options{}), models, objs, opts)
			if err != nil {
				return err
			}
			prices, values := scan.Analyze(entries, models, flt)
			g.logger.Info().Int("models", len(models)).Int("objectives", len(objs)).Int("solved", len(entries)).Int("metabolites", prices.Len()).Msg("shadow price scan complete")

			if outDir == "" {
				return writeShadowTables(cmd.OutOrStdout(), prices, values)
			}
			sink, err := output.NewDirSink(outDir)
			if err != nil {
				return err
			}
			return putShadowTables(ctx, sink, prices, values)
		},
	}
	f := cmd.Flags()
	f.StringVar(&objectives, "objectives", "", "Comma-separated objective reaction ids")
	f.StringVar(&filter, "filter", "nonzero", "Shadow prices to keep: nonzero|positive|negative")
	f.StringVar(&outDir, "out", "", "Write "+ShadowPricesFile+" and "+ObjectiveValuesFile+" here instead of stdout")
	f.IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent solves")
	f.BoolVar(&minimize, "minimize", false, "Minimize the objectives instead of maximizing")
	f.BoolVar(&progress, "progress", false, "Show a progress bar")
	return cmd
}

func writeShadowTables(w io.Writer, prices *shadow.Table, values *shadow.ObjectiveTable) error {
	if err := prices.WriteTSV(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return values.WriteTSV(w)
}

func putShadowTables(ctx context.Context, sink output.Sink, prices *shadow.Table, values *shadow.ObjectiveTable) error {
	var buf bytes.Buffer
	if err := prices.WriteTSV(&buf); err != nil {
		return err
	}
	if err := sink.Put(ctx, ShadowPricesFile, &buf, output.ContentTypeTSV); err != nil {
		return err
	}
	buf.Reset()
	if err := values.WriteTSV(&buf); err != nil {
		return err
	}
	return sink.Put(ctx, ObjectiveValuesFile, &buf, output.ContentTypeTSV)
}
