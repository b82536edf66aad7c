package lp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	glp "gonum.org/v1/gonum/optimize/convex/lp"
)

// Session is a handle on a configured solver. Implementations must be safe
// for concurrent use; callers pass a Session explicitly to every component
// that solves LPs.
type Session interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// Defaults applied when corresponding Options fields are unset.
const (
	DefaultTolerance      = 1e-10
	DefaultFeasibilityTol = 1e-6
	defaultRankTol        = 1e-9
)

// Options tunes a SimplexSession.
type Options struct {
	// Tolerance is handed to the simplex method as its zero threshold.
	Tolerance float64
	// FeasibilityTol bounds the residual accepted on constraints that were
	// dropped as linearly dependent before solving.
	FeasibilityTol float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.FeasibilityTol <= 0 {
		o.FeasibilityTol = DefaultFeasibilityTol
	}
	return o
}

// SimplexSession solves problems with gonum's simplex method. It holds no
// per-solve state.
type SimplexSession struct {
	opts Options
}

// NewSimplexSession returns a session with defaults applied to opts.
func NewSimplexSession(opts Options) *SimplexSession {
	return &SimplexSession{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (s *SimplexSession) Options() Options { return s.opts }

// Solve implements Session.
func (s *SimplexSession) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sf, early := standardize(p, s.opts)
	if early != nil {
		return early, nil
	}
	x, status, detail := runSimplex(sf.c, sf.a, sf.b, s.opts.Tolerance)
	if status != StatusOptimal {
		return &Solution{Status: status, Detail: detail}, nil
	}
	v := sf.recover(x)
	if res, where := residual(p, v, s.opts.FeasibilityTol); where != "" {
		return &Solution{Status: StatusInfeasible, Detail: fmt.Sprintf("%s violated by %g", where, res)}, nil
	}
	sol := &Solution{Status: StatusOptimal, X: v, Objective: floats.Dot(p.C, v)}
	if p.WantDuals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		duals, err := sf.duals(s.opts.Tolerance)
		if err != nil {
			sol.Detail = "duals unavailable: " + err.Error()
		} else {
			sol.Duals = duals
		}
	}
	return sol, nil
}

// runSimplex maps gonum's sentinel errors onto Status. gonum panics on some
// degenerate inputs; those become StatusFailed.
func runSimplex(c []float64, a *mat.Dense, b []float64, tol float64) (x []float64, status Status, detail string) {
	if len(b) == 0 {
		return make([]float64, len(c)), StatusOptimal, ""
	}
	defer func() {
		if r := recover(); r != nil {
			x, status, detail = nil, StatusFailed, fmt.Sprint(r)
		}
	}()
	_, x, err := glp.Simplex(c, a, b, tol, nil)
	switch {
	case err == nil:
		return x, StatusOptimal, ""
	case errors.Is(err, glp.ErrInfeasible):
		return nil, StatusInfeasible, err.Error()
	case errors.Is(err, glp.ErrUnbounded):
		return nil, StatusUnbounded, err.Error()
	default:
		return nil, StatusFailed, err.Error()
	}
}

// residual checks every original equality and extra row against v.
func residual(p *Problem, v []float64, tol float64) (float64, string) {
	m, n := p.Dims()
	for i := 0; i < m; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if a := p.S.At(i, j); a != 0 {
				sum += a * v[j]
			}
		}
		b := p.rhs(i)
		if d := math.Abs(sum - b); d > tol*(1+math.Abs(b)) {
			return d, fmt.Sprintf("equality row %d", i)
		}
	}
	for k, r := range p.Rows {
		lhs := floats.Dot(r.Coef, v)
		slackTol := tol * (1 + math.Abs(r.RHS))
		if r.Op == LessEq && lhs > r.RHS+slackTol {
			return lhs - r.RHS, fmt.Sprintf("row %d", k)
		}
		if r.Op == GreaterEq && lhs < r.RHS-slackTol {
			return r.RHS - lhs, fmt.Sprintf("row %d", k)
		}
	}
	return 0, ""
}
