package shadow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fluxpipe/internal/fba"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/model/modeltest"
)

func withSlack(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.New("s",
		[]model.Metabolite{{ID: "a"}, {ID: "slack_a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		[]model.Reaction{{ID: "R", Metabolites: map[string]float64{"a": -1}, Upper: 1}})
	require.NoError(t, err)
	return m
}

func ids(ps []Price) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Metabolite)
	}
	return out
}

func TestExtractFilters(t *testing.T) {
	m := withSlack(t)
	sol := &lp.Solution{Status: lp.StatusOptimal, Duals: []float64{2, 5, -3, 1e-9, -1e-9}}

	cases := []struct {
		filter Filter
		want   []string
	}{
		{Positive, []string{"a"}},
		{Negative, []string{"b"}},
		{Nonzero, []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.filter.String(), func(t *testing.T) {
			require.Equal(t, tc.want, ids(Extract(m, sol, tc.filter)))
		})
	}
}

func TestExtractEveryQualifyingDualExactlyOnce(t *testing.T) {
	m := withSlack(t)
	duals := []float64{-4, -7, 0.5, -2e-8, 3}
	sol := &lp.Solution{Status: lp.StatusOptimal, Duals: duals}
	got := Extract(m, sol, Nonzero)

	count := map[string]int{}
	for _, p := range got {
		count[p.Metabolite]++
	}
	for i, met := range m.Metabolites {
		d := duals[i]
		qualifies := (d > Tolerance || d < -Tolerance) && met.ID != "slack_a"
		if qualifies {
			require.Equal(t, 1, count[met.ID], met.ID)
		} else {
			require.Zero(t, count[met.ID], met.ID)
		}
	}
}

func TestExtractNotFeasibleOrNoDuals(t *testing.T) {
	m := withSlack(t)
	require.Nil(t, Extract(m, &lp.Solution{Status: lp.StatusInfeasible, Duals: []float64{1, 1, 1, 1, 1}}, Nonzero))
	require.Nil(t, Extract(m, &lp.Solution{Status: lp.StatusOptimal}, Nonzero))
	require.Nil(t, Extract(m, nil, Nonzero))
}

func TestExtractFromSolve(t *testing.T) {
	m := modeltest.Linear()
	sol, err := lp.NewSimplexSession(lp.Options{}).Solve(context.Background(), fba.Problem(m, true))
	require.NoError(t, err)
	got := Extract(m, sol, Negative)
	require.Equal(t, []string{"A_e", "A_c", "B_c"}, ids(got))
	for _, pr := range got {
		require.InDelta(t, -1, pr.Value, 1e-7)
	}
	require.Empty(t, Extract(m, sol, Positive))
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": Nonzero, "Positive": Positive, "neg": Negative, "nonzero": Nonzero} {
		got, err := ParseFilter(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFilter("sideways")
	require.Error(t, err)
}

func TestTableRowsFirstOccurrence(t *testing.T) {
	tb := NewTable()
	tb.Add("m1", "BIOMASS", []Price{{"x", -1}, {"y", 2}})
	tb.Add("m2", "BIOMASS", []Price{{"y", 3}, {"z", -4}})
	tb.Add("m2", "ATPM", []Price{{"x", 5}})

	require.Equal(t, [][]string{{"x", "BIOMASS"}, {"y", "BIOMASS"}, {"z", "BIOMASS"}, {"x", "ATPM"}}, tb.Rows())
	require.Equal(t, []string{"m1", "m2"}, tb.Columns())
	v, ok := tb.Value("y", "BIOMASS", "m2")
	require.True(t, ok)
	require.Equal(t, 3.0, v)

	var buf bytes.Buffer
	require.NoError(t, tb.WriteTSV(&buf))
	require.Contains(t, buf.String(), "metabolite\tobjective\tm1\tm2\n")
	require.Contains(t, buf.String(), "z\tBIOMASS\t\t-4\n")
}
