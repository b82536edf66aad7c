// Package fba runs flux balance and flux variability analysis over a
// metabolic model through an lp.Session.
package fba

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
)

// Problem translates m into an LP maximizing its objective.
func Problem(m *model.Model, wantDuals bool) *lp.Problem {
	n := len(m.Reactions)
	p := &lp.Problem{
		Sense:     lp.Maximize,
		C:         make([]float64, n),
		S:         m.Stoichiometry(),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		WantDuals: wantDuals,
	}
	for j, r := range m.Reactions {
		p.C[j] = r.Objective
		p.Lower[j] = r.Lower
		p.Upper[j] = r.Upper
	}
	return p
}

// Options tunes Optimize.
type Options struct {
	Sense     lp.Sense
	WantDuals bool
}

// Optimize solves m with its current objective.
func Optimize(ctx context.Context, sess lp.Session, m *model.Model, opts Options) (*lp.Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	p := Problem(m, opts.WantDuals)
	p.Sense = opts.Sense
	return sess.Solve(ctx, p)
}

// Defaults applied when corresponding FVAOptions fields are unset.
const (
	defaultFraction = 1.0
	defaultWorkers  = 1
	floorTol        = 1e-9
)

// FVAOptions tunes FVA.
type FVAOptions struct {
	// Fraction of the optimum the objective must keep while each reaction is
	// minimized and maximized. Zero means 1.
	Fraction float64
	// Workers bounds concurrent solves. Zero means sequential.
	Workers int
	Sense   lp.Sense
}

// FluxRange is the feasible flux interval of one reaction.
type FluxRange struct {
	Reaction  string
	Min, Max  float64
	MinStatus lp.Status
	MaxStatus lp.Status
}

// Feasible reports whether both ends were solved.
func (r FluxRange) Feasible() bool { return r.MinStatus.Feasible() && r.MaxStatus.Feasible() }

// FVAResult holds the reference optimum and one range per requested reaction
// present in the model, in request order.
type FVAResult struct {
	Status    lp.Status
	Objective float64
	Ranges    []FluxRange
}

// Range returns the range for id.
func (r *FVAResult) Range(id string) (FluxRange, bool) {
	for _, fr := range r.Ranges {
		if fr.Reaction == id {
			return fr, true
		}
	}
	return FluxRange{}, false
}

// FVA optimizes m once, pins the objective to Fraction of the optimum, then
// minimizes and maximizes every listed reaction. Ids missing from m are
// skipped. A non-optimal reference solve yields a result carrying that status
// and no ranges. Each task solves its own copy of the problem; ranges are
// merged by index once every task is done.
func FVA(ctx context.Context, sess lp.Session, m *model.Model, ids []string, opts FVAOptions) (*FVAResult, error) {
	if opts.Fraction <= 0 {
		opts.Fraction = defaultFraction
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	base := Problem(m, false)
	base.Sense = opts.Sense
	ref, err := sess.Solve(ctx, base)
	if err != nil {
		return nil, err
	}
	res := &FVAResult{Status: ref.Status, Objective: ref.Objective}
	if !ref.Status.Feasible() {
		return res, nil
	}

	pinned := base.Clone()
	pinned.Rows = append(pinned.Rows, objectiveFloor(base, ref.Objective, opts.Fraction))

	type task struct {
		id  string
		col int
	}
	var tasks []task
	for _, id := range ids {
		if j, ok := m.ReactionIndex(id); ok {
			tasks = append(tasks, task{id: id, col: j})
		}
	}
	ranges := make([]FluxRange, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, tk := range tasks {
		g.Go(func() error {
			fr := FluxRange{Reaction: tk.id}
			for _, sense := range []lp.Sense{lp.Minimize, lp.Maximize} {
				p := pinned.Clone()
				for j := range p.C {
					p.C[j] = 0
				}
				p.C[tk.col] = 1
				p.Sense = sense
				sol, err := sess.Solve(gctx, p)
				if err != nil {
					return fmt.Errorf("fva %s %s: %w", tk.id, sense, err)
				}
				val := math.NaN()
				if sol.Status.Feasible() {
					val = sol.Objective
				}
				if sense == lp.Minimize {
					fr.Min, fr.MinStatus = val, sol.Status
				} else {
					fr.Max, fr.MaxStatus = val, sol.Status
				}
			}
			ranges[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Ranges = ranges
	return res, nil
}

// objectiveFloor keeps C·v within (1-fraction)·|z| of the optimum z, never
// tighter than floorTol so that fraction 1 stays feasible.
func objectiveFloor(p *lp.Problem, z, fraction float64) lp.Row {
	slack := math.Max((1-fraction)*math.Abs(z), floorTol*(1+math.Abs(z)))
	row := lp.Row{Coef: append([]float64(nil), p.C...)}
	if p.Sense == lp.Minimize {
		row.Op, row.RHS = lp.LessEq, z+slack
	} else {
		row.Op, row.RHS = lp.GreaterEq, z-slack
	}
	return row
}
