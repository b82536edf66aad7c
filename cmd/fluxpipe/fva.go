package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"fluxpipe/internal/fba"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/pipeline"
	"fluxpipe/internal/table"
)

func newFVACmd(g *globalOptions) *cobra.Command {
	var (
		reactions string
		prefix    string
		objective string
		fraction  float64
		workers   int
		prepare   bool
	)
	cmd := &cobra.Command{
		Use:   "fva MODEL",
		Short: "Print the feasible flux range of reactions in one model",
		Example: "  fluxpipe fva model.json --prefix EX_\n" +
			"  fluxpipe fva --prepare --reactions EX_ac[fe],EX_glc_D[fe] sample.json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.Load(args[0])
			if err != nil {
				return err
			}
			if prepare {
				if err := pipeline.PrepareModel(m, pipeline.DefaultBounds()); err != nil {
					return err
				}
			}
			if objective != "" {
				if err := m.SetObjective(objective); err != nil {
					return err
				}
			}
			ids := splitCSV(reactions)
			if len(ids) == 0 {
				var pred model.Predicate
				if prefix != "" {
					pred = model.HasPrefix(prefix)
				}
				ids = m.ReactionIDs(pred)
			}

			res, err := fba.FVA(cmd.Context(), lp.NewSimplexSession(lp.Options{}), m, ids, fba.FVAOptions{Fraction: fraction, Workers: workers})
			if err != nil {
				return err
			}
			if !res.Status.Feasible() {
				return fmt.Errorf("model %s: reference optimization %s", m.ID, res.Status)
			}
			g.logger.Debug().Str("model", m.ID).Float64("objective", res.Objective).Int("reactions", len(res.Ranges)).Msg("fva complete")

			t := table.New("reaction")
			for _, r := range res.Ranges {
				if !r.Feasible() {
					g.logger.Warn().Str("reaction", r.Reaction).Str("min", r.MinStatus.String()).Str("max", r.MaxStatus.String()).Msg("range not solved")
					continue
				}
				t.Set([]string{r.Reaction}, "min", r.Min)
				t.Set([]string{r.Reaction}, "max", r.Max)
			}
			return t.WriteTSV(cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&reactions, "reactions", "", "Comma-separated reaction ids (default every reaction)")
	f.StringVar(&prefix, "prefix", "", "Only reactions whose id starts with this prefix")
	f.StringVar(&objective, "objective", "", "Objective reaction id (default the model's own)")
	f.Float64Var(&fraction, "fraction", 1, "Fraction of the optimum to keep")
	f.IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent solves")
	f.BoolVar(&prepare, "prepare", false, "Apply the community bound adjustments first")
	return cmd
}
