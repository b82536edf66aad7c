// Package scan optimizes every (model, objective) pair of a batch and keeps
// the feasible solutions.
package scan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fluxpipe/internal/fba"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/shadow"
)

// Options tunes Run.
type Options struct {
	// Workers bounds concurrent solves. Zero means sequential.
	Workers   int
	Sense     lp.Sense
	WantDuals bool
	Logger    zerolog.Logger
	// Progress, when set, is called once per finished pair.
	Progress func()
}

// Entry is one feasible (model, objective) solve.
type Entry struct {
	ModelID   string
	Objective string
	Solution  *lp.Solution
}

// Run sets each objective on a private clone of each model and solves it.
// Pairs whose model lacks the objective reaction, and pairs that do not solve
// to optimality, produce no entry. Entries come back in model order, then
// objective order.
func Run(ctx context.Context, sess lp.Session, models []*model.Model, objectives []string, opts Options) ([]Entry, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	// Every task gets a clone made before it starts, so tasks share nothing
	// with each other or with the caller's models.
	type pair struct {
		m   *model.Model
		obj string
	}
	pairs := make([]pair, 0, len(models)*len(objectives))
	for _, m := range models {
		snap := m.Clone()
		for _, obj := range objectives {
			pairs = append(pairs, pair{m: snap, obj: obj})
		}
	}

	found := make([]*Entry, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pr := range pairs {
		if !pr.m.HasReaction(pr.obj) {
			opts.Logger.Debug().Str("model", pr.m.ID).Str("objective", pr.obj).Msg("objective not in model")
			if opts.Progress != nil {
				opts.Progress()
			}
			continue
		}
		mc := pr.m.Clone()
		if err := mc.SetObjective(pr.obj); err != nil {
			_ = g.Wait()
			return nil, err
		}
		g.Go(func() error {
			if opts.Progress != nil {
				defer opts.Progress()
			}
			sol, err := fba.Optimize(gctx, sess, mc, fba.Options{Sense: opts.Sense, WantDuals: opts.WantDuals})
			if err != nil {
				return fmt.Errorf("scan %s/%s: %w", mc.ID, pr.obj, err)
			}
			if !sol.Status.Feasible() {
				opts.Logger.Debug().Str("model", mc.ID).Str("objective", pr.obj).Str("status", sol.Status.String()).Msg("objective not solved")
				return nil
			}
			found[i] = &Entry{ModelID: mc.ID, Objective: pr.obj, Solution: sol}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(found))
	for _, e := range found {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

// Analyze tabulates the shadow prices passing filter and the objective values
// of entries. models supplies the metabolite order for each entry's ModelID.
func Analyze(entries []Entry, models []*model.Model, filter shadow.Filter) (*shadow.Table, *shadow.ObjectiveTable) {
	byID := make(map[string]*model.Model, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	prices := shadow.NewTable()
	objs := shadow.NewObjectiveTable()
	for _, e := range entries {
		objs.Add(e.ModelID, e.Objective, e.Solution.Objective)
		if m, ok := byID[e.ModelID]; ok {
			prices.Add(e.ModelID, e.Objective, shadow.Extract(m, e.Solution, filter))
		}
	}
	return prices, objs
}
