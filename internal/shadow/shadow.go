// Package shadow pulls metabolite shadow prices out of solved models.
package shadow

import (
	"fmt"
	"io"
	"strings"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/table"
)

// Tolerance below which a dual counts as zero.
const Tolerance = 1e-8

// SlackPrefix marks metabolites that only exist to carry coupling slack.
const SlackPrefix = "slack_"

// Filter selects duals by sign.
type Filter int

const (
	Nonzero Filter = iota
	Positive
	Negative
)

func (f Filter) String() string {
	switch f {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "nonzero"
	}
}

// ParseFilter accepts positive, negative or nonzero (case-insensitive).
// The empty string means nonzero.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nonzero", "all":
		return Nonzero, nil
	case "positive", "pos", "+":
		return Positive, nil
	case "negative", "neg", "-":
		return Negative, nil
	}
	return Nonzero, fmt.Errorf("unknown shadow price filter %q", s)
}

func (f Filter) keep(d float64) bool {
	switch f {
	case Positive:
		return d > Tolerance
	case Negative:
		return d < -Tolerance
	default:
		return d > Tolerance || d < -Tolerance
	}
}

// Price is one metabolite's dual value.
type Price struct {
	Metabolite string
	Value      float64
}

// Extract returns the metabolites of m whose dual in sol passes filter, in
// model order. Solutions that are not feasible or carry no duals yield nil.
func Extract(m *model.Model, sol *lp.Solution, filter Filter) []Price {
	if sol == nil || !sol.Status.Feasible() || len(sol.Duals) == 0 {
		return nil
	}
	var out []Price
	seen := make(map[string]struct{}, len(m.Metabolites))
	for i, met := range m.Metabolites {
		if i >= len(sol.Duals) {
			break
		}
		if strings.HasPrefix(met.ID, SlackPrefix) {
			continue
		}
		if _, dup := seen[met.ID]; dup {
			continue
		}
		seen[met.ID] = struct{}{}
		if d := sol.Duals[i]; filter.keep(d) {
			out = append(out, Price{Metabolite: met.ID, Value: d})
		}
	}
	return out
}

// Table collects prices with rows (metabolite, objective) and one column per
// model.
type Table struct {
	t *table.Table
}

func NewTable() *Table { return &Table{t: table.New("metabolite", "objective")} }

// Add records prices found for modelID while optimizing objective.
func (t *Table) Add(modelID, objective string, prices []Price) {
	for _, p := range prices {
		t.t.Set([]string{p.Metabolite, objective}, modelID, p.Value)
	}
}

func (t *Table) Rows() [][]string { return t.t.Rows() }
func (t *Table) Columns() []string { return t.t.Columns() }
func (t *Table) Len() int { return t.t.Len() }
func (t *Table) WriteTSV(w io.Writer) error { return t.t.WriteTSV(w) }

// Value returns the price of metabolite under objective in modelID.
func (t *Table) Value(metabolite, objective, modelID string) (float64, bool) {
	return t.t.Get([]string{metabolite, objective}, modelID)
}

// ObjectiveTable holds the optimal objective value per (objective, model).
type ObjectiveTable struct {
	t *table.Table
}

func NewObjectiveTable() *ObjectiveTable { return &ObjectiveTable{t: table.New("objective")} }

func (o *ObjectiveTable) Add(modelID, objective string, value float64) {
	o.t.Set([]string{objective}, modelID, value)
}

func (o *ObjectiveTable) Value(objective, modelID string) (float64, bool) {
	return o.t.Get([]string{objective}, modelID)
}

func (o *ObjectiveTable) Rows() [][]string { return o.t.Rows() }
func (o *ObjectiveTable) Columns() []string { return o.t.Columns() }
func (o *ObjectiveTable) WriteTSV(w io.Writer) error { return o.t.WriteTSV(w) }
