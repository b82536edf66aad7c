package fba_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fluxpipe/internal/fba"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/model/modeltest"
)

func TestOptimizeLinear(t *testing.T) {
	sess := lp.NewSimplexSession(lp.Options{})
	sol, err := fba.Optimize(context.Background(), sess, modeltest.Linear(), fba.Options{WantDuals: true})
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	require.InDelta(t, 10, sol.Objective, 1e-7)
	require.Len(t, sol.Duals, 3)
}

func TestFVAFullAndHalfOptimum(t *testing.T) {
	sess := lp.NewSimplexSession(lp.Options{})
	ids := []string{"EX_A", "R1", "missing"}

	full, err := fba.FVA(context.Background(), sess, modeltest.Linear(), ids, fba.FVAOptions{Workers: 2})
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, full.Status)
	require.Len(t, full.Ranges, 2, "missing reaction is skipped")
	ex, ok := full.Range("EX_A")
	require.True(t, ok)
	require.True(t, ex.Feasible())
	require.InDelta(t, -10, ex.Min, 1e-6)
	require.InDelta(t, -10, ex.Max, 1e-6)

	half, err := fba.FVA(context.Background(), sess, modeltest.Linear(), ids, fba.FVAOptions{Fraction: 0.5, Workers: 4})
	require.NoError(t, err)
	r1, _ := half.Range("R1")
	require.InDelta(t, 5, r1.Min, 1e-6)
	require.InDelta(t, 10, r1.Max, 1e-6)
	ex, _ = half.Range("EX_A")
	require.InDelta(t, -10, ex.Min, 1e-6)
	require.InDelta(t, -5, ex.Max, 1e-6)
}

func TestFVAInfeasibleReference(t *testing.T) {
	m := modeltest.Linear()
	r, _ := m.Reaction("BIOMASS")
	r.Lower = 50
	res, err := fba.FVA(context.Background(), lp.NewSimplexSession(lp.Options{}), m, []string{"R1"}, fba.FVAOptions{})
	require.NoError(t, err)
	require.Equal(t, lp.StatusInfeasible, res.Status)
	require.Empty(t, res.Ranges)
}

func TestFVAOrderMatchesRequest(t *testing.T) {
	ids := []string{"R1", "BIOMASS", "T_A", "EX_A"}
	res, err := fba.FVA(context.Background(), lp.NewSimplexSession(lp.Options{}), modeltest.Linear(), ids, fba.FVAOptions{Workers: 3})
	require.NoError(t, err)
	got := make([]string, 0, len(res.Ranges))
	for _, r := range res.Ranges {
		got = append(got, r.Reaction)
	}
	require.Equal(t, ids, got)
}

func TestFVACancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fba.FVA(ctx, lp.NewSimplexSession(lp.Options{}), modeltest.Linear(), []string{"R1"}, fba.FVAOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
