package scan

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/model/modeltest"
	"fluxpipe/internal/shadow"
)

func batch(t *testing.T) []*model.Model {
	t.Helper()
	a := modeltest.Linear()
	a.ID = "a"
	b := modeltest.Linear()
	b.ID = "b"
	require.NoError(t, b.ChangeBounds([]string{"EX_A"}, -4, model.BoundLower))
	stuck := modeltest.Linear()
	stuck.ID = "stuck"
	require.NoError(t, stuck.ChangeBounds([]string{"BIOMASS"}, 50, model.BoundLower))
	return []*model.Model{a, b, stuck}
}

func TestRunSkipsMissingObjectiveAndInfeasible(t *testing.T) {
	models := batch(t)
	var done atomic.Int32
	entries, err := Run(context.Background(), lp.NewSimplexSession(lp.Options{}), models,
		[]string{"BIOMASS", "no_such_reaction", "R1"},
		Options{Workers: 3, WantDuals: true, Progress: func() { done.Add(1) }})
	require.NoError(t, err)
	require.EqualValues(t, 9, done.Load())

	var got [][2]string
	for _, e := range entries {
		got = append(got, [2]string{e.ModelID, e.Objective})
	}
	require.Equal(t, [][2]string{{"a", "BIOMASS"}, {"a", "R1"}, {"b", "BIOMASS"}, {"b", "R1"}}, got)
	require.InDelta(t, 10, entries[0].Solution.Objective, 1e-7)
	require.InDelta(t, 4, entries[2].Solution.Objective, 1e-7)
}

func TestRunLeavesInputModelsAlone(t *testing.T) {
	models := batch(t)
	_, err := Run(context.Background(), lp.NewSimplexSession(lp.Options{}), models[:1], []string{"R1"}, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"BIOMASS"}, models[0].ObjectiveReactions())
}

func TestModelWithoutObjectiveYieldsNoEntry(t *testing.T) {
	entries, err := Run(context.Background(), lp.NewSimplexSession(lp.Options{}),
		[]*model.Model{modeltest.Linear()}, []string{"ATPM"}, Options{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAnalyze(t *testing.T) {
	models := batch(t)
	entries, err := Run(context.Background(), lp.NewSimplexSession(lp.Options{}), models, []string{"BIOMASS"}, Options{WantDuals: true})
	require.NoError(t, err)

	prices, objs := Analyze(entries, models, shadow.Negative)
	require.Equal(t, []string{"a", "b"}, prices.Columns())
	require.Equal(t, [][]string{{"A_e", "BIOMASS"}, {"A_c", "BIOMASS"}, {"B_c", "BIOMASS"}}, prices.Rows())
	v, ok := prices.Value("A_c", "BIOMASS", "b")
	require.True(t, ok)
	require.InDelta(t, -1, v, 1e-7)

	z, ok := objs.Value("BIOMASS", "b")
	require.True(t, ok)
	require.InDelta(t, 4, z, 1e-7)
	_, ok = objs.Value("BIOMASS", "stuck")
	require.False(t, ok)
}

func TestRunWithUnindexedModelAndManyWorkers(t *testing.T) {
	src := modeltest.Linear()
	lit := &model.Model{ID: "lit", Metabolites: src.Metabolites, Reactions: src.Reactions}
	objectives := []string{"BIOMASS", "R1", "T_A", "BIOMASS", "R1", "T_A", "missing", "BIOMASS"}

	entries, err := Run(context.Background(), lp.NewSimplexSession(lp.Options{}), []*model.Model{lit}, objectives, Options{Workers: 8})
	require.NoError(t, err)
	require.Len(t, entries, 7)
	for _, e := range entries {
		require.Equal(t, "lit", e.ModelID)
		require.InDelta(t, 10, e.Solution.Objective, 1e-7)
	}
	require.Equal(t, []string{"BIOMASS"}, lit.ObjectiveReactions())
}
