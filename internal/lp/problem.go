// Package lp defines the request/response contract for linear-program solves
// and a session backed by gonum's simplex implementation.
//
// A Problem is a flux-balance style LP:
//
//	optimize  C·v
//	s.t.      S v = B
//	          Lower <= v <= Upper
//	          Rows[k].Coef·v (<= | >=) Rows[k].RHS
//
// Solver outcomes (infeasible, unbounded, numerical failure) are reported in
// Solution.Status, never as errors. Errors are reserved for malformed problems
// and cancelled contexts.
package lp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sense is the optimization direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Minimize {
		return "min"
	}
	return "max"
}

// Op is the relation of an extra constraint row.
type Op int

const (
	LessEq Op = iota
	GreaterEq
)

// Row is an extra linear constraint on the flux vector.
type Row struct {
	Coef []float64
	Op   Op
	RHS  float64
}

// Problem is one LP request. S is treated as read-only and may be shared
// between problems; every other field is owned by the Problem.
type Problem struct {
	Sense Sense
	C     []float64
	S     mat.Matrix
	// B defaults to zero when nil.
	B     []float64
	Lower []float64
	Upper []float64
	Rows  []Row
	// WantDuals requests equality-row duals in Solution.Duals.
	WantDuals bool
}

// Dims returns the number of equality rows and flux variables.
func (p *Problem) Dims() (m, n int) {
	if p.S == nil {
		return 0, len(p.C)
	}
	return p.S.Dims()
}

// Validate reports shape mismatches.
func (p *Problem) Validate() error {
	m, n := p.Dims()
	if n == 0 {
		return fmt.Errorf("lp: problem has no variables")
	}
	if len(p.C) != n {
		return fmt.Errorf("lp: objective has %d entries, want %d", len(p.C), n)
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("lp: bounds have %d/%d entries, want %d", len(p.Lower), len(p.Upper), n)
	}
	if p.B != nil && len(p.B) != m {
		return fmt.Errorf("lp: rhs has %d entries, want %d", len(p.B), m)
	}
	for k, r := range p.Rows {
		if len(r.Coef) != n {
			return fmt.Errorf("lp: row %d has %d coefficients, want %d", k, len(r.Coef), n)
		}
	}
	for j := 0; j < n; j++ {
		if math.IsNaN(p.Lower[j]) || math.IsNaN(p.Upper[j]) || math.IsNaN(p.C[j]) {
			return fmt.Errorf("lp: NaN in variable %d", j)
		}
	}
	return nil
}

// Clone copies every owned slice; S stays shared.
func (p *Problem) Clone() *Problem {
	out := &Problem{
		Sense:     p.Sense,
		C:         append([]float64(nil), p.C...),
		S:         p.S,
		Lower:     append([]float64(nil), p.Lower...),
		Upper:     append([]float64(nil), p.Upper...),
		WantDuals: p.WantDuals,
	}
	if p.B != nil {
		out.B = append([]float64(nil), p.B...)
	}
	if len(p.Rows) > 0 {
		out.Rows = make([]Row, len(p.Rows))
		for i, r := range p.Rows {
			out.Rows[i] = Row{Coef: append([]float64(nil), r.Coef...), Op: r.Op, RHS: r.RHS}
		}
	}
	return out
}

func (p *Problem) rhs(i int) float64 {
	if p.B == nil {
		return 0
	}
	return p.B[i]
}
