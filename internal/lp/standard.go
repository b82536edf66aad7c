package lp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// column is one non-negative variable of the standard form. Structural
// columns map to a flux variable v with v = shift + sign*x; slack columns
// have v == -1.
type column struct {
	v    int
	sign float64
}

// standardForm is minimize cᵀx s.t. a x = b, x >= 0, derived from a Problem
// by shifting every flux onto a finite bound (or splitting free fluxes),
// turning upper bounds and extra rows into slack rows, and dropping equality
// rows that are zero or linearly dependent.
type standardForm struct {
	sense Sense
	shift []float64
	cols  []column // structural columns kept in a, in column order
	a     *mat.Dense
	b     []float64
	c     []float64
	// keptS[r] is the original equality row behind standard row r, for the
	// first len(keptS) rows.
	keptS []int
	m     int
}

// standardize builds the standard form. A non-nil Solution means the outcome
// was decided without solving (inverted bounds, unbounded empty column).
func standardize(p *Problem, opts Options) (*standardForm, *Solution) {
	m, n := p.Dims()
	sf := &standardForm{sense: p.Sense, shift: make([]float64, n), m: m}

	cmin := make([]float64, n)
	for j := 0; j < n; j++ {
		cmin[j] = p.C[j]
		if p.Sense == Maximize {
			cmin[j] = -p.C[j]
		}
	}

	// Structural columns and box widths.
	var structural []column
	var width []float64 // per structural column; +Inf when unboxed
	for j := 0; j < n; j++ {
		lb, ub := p.Lower[j], p.Upper[j]
		if lb > ub+opts.FeasibilityTol {
			return nil, &Solution{Status: StatusInfeasible, Detail: fmt.Sprintf("variable %d has lower bound %g above upper bound %g", j, lb, ub)}
		}
		switch {
		case !math.IsInf(lb, 0) && !math.IsInf(ub, 0) && ub-lb <= opts.Tolerance:
			sf.shift[j] = lb
		case !math.IsInf(lb, 0):
			sf.shift[j] = lb
			structural = append(structural, column{v: j, sign: 1})
			width = append(width, ub-lb)
		case !math.IsInf(ub, 0):
			sf.shift[j] = ub
			structural = append(structural, column{v: j, sign: -1})
			width = append(width, math.Inf(1))
		default:
			structural = append(structural, column{v: j, sign: 1}, column{v: j, sign: -1})
			width = append(width, math.Inf(1), math.Inf(1))
		}
	}
	k := len(structural)

	// Equality rows over structural columns.
	sRows := make([][]float64, m)
	sRHS := make([]float64, m)
	for i := 0; i < m; i++ {
		row := make([]float64, k)
		rhs := p.rhs(i)
		for j := 0; j < n; j++ {
			if a := p.S.At(i, j); a != 0 {
				rhs -= a * sf.shift[j]
			}
		}
		for c, col := range structural {
			row[c] = p.S.At(i, col.v) * col.sign
		}
		sRows[i] = row
		sRHS[i] = rhs
	}
	sf.keptS = independentRows(sRows, defaultRankTol)

	// Extra rows as <= rows over structural columns.
	xRows := make([][]float64, len(p.Rows))
	xRHS := make([]float64, len(p.Rows))
	for r, row := range p.Rows {
		sign := 1.0
		if row.Op == GreaterEq {
			sign = -1
		}
		rhs := sign * row.RHS
		for j := 0; j < n; j++ {
			rhs -= sign * row.Coef[j] * sf.shift[j]
		}
		coef := make([]float64, k)
		for c, col := range structural {
			coef[c] = sign * row.Coef[col.v] * col.sign
		}
		xRows[r] = coef
		xRHS[r] = rhs
	}

	// Drop structural columns that appear in no row.
	var keepCols []int
	for c := range structural {
		used := !math.IsInf(width[c], 1)
		for _, i := range sf.keptS {
			if sRows[i][c] != 0 {
				used = true
				break
			}
		}
		for r := 0; !used && r < len(xRows); r++ {
			if xRows[r][c] != 0 {
				used = true
			}
		}
		if used {
			keepCols = append(keepCols, c)
			continue
		}
		if cmin[structural[c].v]*structural[c].sign < -opts.Tolerance {
			return nil, &Solution{Status: StatusUnbounded, Detail: fmt.Sprintf("variable %d is unconstrained in an improving direction", structural[c].v)}
		}
	}

	var boxed []int // positions in keepCols
	for pos, c := range keepCols {
		if !math.IsInf(width[c], 1) {
			boxed = append(boxed, pos)
		}
	}

	rows := len(sf.keptS) + len(xRows) + len(boxed)
	cols := len(keepCols) + len(xRows) + len(boxed)
	sf.cols = make([]column, len(keepCols))
	sf.c = make([]float64, cols)
	for pos, c := range keepCols {
		sf.cols[pos] = structural[c]
		sf.c[pos] = cmin[structural[c].v] * structural[c].sign
	}
	sf.b = make([]float64, rows)
	if rows == 0 {
		return sf, nil
	}
	sf.a = mat.NewDense(rows, cols, nil)
	r := 0
	for _, i := range sf.keptS {
		for pos, c := range keepCols {
			sf.a.Set(r, pos, sRows[i][c])
		}
		sf.b[r] = sRHS[i]
		r++
	}
	slack := len(keepCols)
	for x := range xRows {
		for pos, c := range keepCols {
			sf.a.Set(r, pos, xRows[x][c])
		}
		sf.a.Set(r, slack, 1)
		sf.b[r] = xRHS[x]
		r++
		slack++
	}
	for _, pos := range boxed {
		sf.a.Set(r, pos, 1)
		sf.a.Set(r, slack, 1)
		sf.b[r] = width[keepCols[pos]]
		r++
		slack++
	}
	return sf, nil
}

// recover maps a standard-form solution back to fluxes.
func (sf *standardForm) recover(x []float64) []float64 {
	v := append([]float64(nil), sf.shift...)
	for pos, col := range sf.cols {
		v[col.v] += col.sign * x[pos]
	}
	return v
}

// duals solves the dual of the standard form,
//
//	maximize bᵀy s.t. aᵀy <= c,
//
// written as minimize -bᵀ(y⁺-y⁻) s.t. aᵀ(y⁺-y⁻) + t = c with y⁺, y⁻, t >= 0,
// and returns d(objective)/d(B_i) for every original equality row in the
// problem's sense. Dropped rows get zero.
func (sf *standardForm) duals(tol float64) ([]float64, error) {
	out := make([]float64, sf.m)
	rows := len(sf.b)
	if rows == 0 {
		return out, nil
	}
	_, cols := sf.a.Dims()
	d := mat.NewDense(cols, 2*rows+cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if a := sf.a.At(r, c); a != 0 {
				d.Set(c, r, a)
				d.Set(c, rows+r, -a)
			}
		}
	}
	for c := 0; c < cols; c++ {
		d.Set(c, 2*rows+c, 1)
	}
	cost := make([]float64, 2*rows+cols)
	for r := 0; r < rows; r++ {
		cost[r] = -sf.b[r]
		cost[rows+r] = sf.b[r]
	}
	z, status, detail := runSimplex(cost, d, append([]float64(nil), sf.c...), tol)
	if status != StatusOptimal {
		return nil, fmt.Errorf("dual %s: %s", status, detail)
	}
	for pos, i := range sf.keptS {
		y := z[pos] - z[rows+pos]
		if sf.sense == Maximize {
			y = -y
		}
		out[i] = y
	}
	return out, nil
}

// independentRows returns the indices of a maximal linearly independent
// subset of rows, scanning in order, by modified Gram-Schmidt with one
// reorthogonalization pass. Zero rows are never kept.
func independentRows(rows [][]float64, tol float64) []int {
	var basis [][]float64
	var keep []int
	for i, row := range rows {
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		v := append([]float64(nil), row...)
		for pass := 0; pass < 2; pass++ {
			for _, q := range basis {
				floats.AddScaled(v, -floats.Dot(q, v), q)
			}
		}
		rn := floats.Norm(v, 2)
		if rn <= tol*norm {
			continue
		}
		floats.Scale(1/rn, v)
		basis = append(basis, v)
		keep = append(keep, i)
	}
	return keep
}
