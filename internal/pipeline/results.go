package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"fluxpipe/internal/output"
	"fluxpipe/internal/table"
)

// InfeasibleRecord notes a (sample, stage) that produced no usable solution.
type InfeasibleRecord struct {
	Sample string `json:"sample"`
	Stage  Stage  `json:"stage"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Status values recorded for failures that are not LP outcomes.
const (
	statusLoadError = "load_error"
	statusDietError = "diet_error"
)

// Results accumulates every persisted sample. Table rows appear in the order
// metabolites and reactions were first seen; columns are samples in run order.
type Results struct {
	Samples []string `json:"samples"`
	// Growth has one row per stage and one column per sample.
	Growth *table.Table `json:"growth"`
	// NetProduction and NetUptake have one row per metabolite.
	NetProduction map[Stage]*table.Table `json:"net_production"`
	NetUptake     map[Stage]*table.Table `json:"net_uptake"`
	// FluxRanges has rows (reaction, min|max).
	FluxRanges map[Stage]*table.Table `json:"flux_ranges"`
	Infeasible []InfeasibleRecord     `json:"infeasible"`
}

func NewResults() *Results {
	r := &Results{}
	r.init()
	return r
}

func (r *Results) init() {
	if r.Growth == nil {
		r.Growth = table.New("stage")
	}
	if r.NetProduction == nil {
		r.NetProduction = map[Stage]*table.Table{}
	}
	if r.NetUptake == nil {
		r.NetUptake = map[Stage]*table.Table{}
	}
	if r.FluxRanges == nil {
		r.FluxRanges = map[Stage]*table.Table{}
	}
}

func stageTable(m map[Stage]*table.Table, stage Stage, keys ...string) *table.Table {
	t, ok := m[stage]
	if !ok {
		t = table.New(keys...)
		m[stage] = t
	}
	return t
}

// merge folds one finished sample into r.
func (r *Results) merge(s *sampleResult) {
	r.Samples = append(r.Samples, s.id)
	for _, st := range s.stages {
		r.Growth.Set([]string{string(st.stage)}, s.id, st.growth)
		prod := stageTable(r.NetProduction, st.stage, "metabolite")
		upt := stageTable(r.NetUptake, st.stage, "metabolite")
		for _, n := range st.net {
			prod.Set([]string{n.metabolite}, s.id, n.production)
			upt.Set([]string{n.metabolite}, s.id, n.uptake)
		}
		fr := stageTable(r.FluxRanges, st.stage, "reaction", "bound")
		for _, rg := range st.ranges {
			fr.Set([]string{rg.Reaction, "min"}, s.id, rg.Min)
			fr.Set([]string{rg.Reaction, "max"}, s.id, rg.Max)
		}
	}
	r.Infeasible = append(r.Infeasible, s.infeasible...)
}

// Bundle file names.
const (
	GrowthFile     = "growth_rates.tsv"
	InfeasibleFile = "infeasible.tsv"
)

func NetProductionFile(s Stage) string { return "net_production_" + string(s) + ".tsv" }
func NetUptakeFile(s Stage) string { return "net_uptake_" + string(s) + ".tsv" }
func FluxRangesFile(s Stage) string { return "flux_ranges_" + string(s) + ".tsv" }

// WriteBundle writes every table of r to sink as TSV.
func (r *Results) WriteBundle(ctx context.Context, sink output.Sink) error {
	r.init()
	put := func(key string, t *table.Table) error {
		var buf bytes.Buffer
		if err := t.WriteTSV(&buf); err != nil {
			return err
		}
		if err := sink.Put(ctx, key, &buf, output.ContentTypeTSV); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	}
	if err := put(GrowthFile, r.Growth); err != nil {
		return err
	}
	for _, st := range DietStages {
		if t, ok := r.NetProduction[st]; ok {
			if err := put(NetProductionFile(st), t); err != nil {
				return err
			}
		}
		if t, ok := r.NetUptake[st]; ok {
			if err := put(NetUptakeFile(st), t); err != nil {
				return err
			}
		}
		if t, ok := r.FluxRanges[st]; ok {
			if err := put(FluxRangesFile(st), t); err != nil {
				return err
			}
		}
	}
	var buf bytes.Buffer
	if err := r.WriteInfeasibleTSV(&buf); err != nil {
		return err
	}
	if err := sink.Put(ctx, InfeasibleFile, &buf, output.ContentTypeTSV); err != nil {
		return fmt.Errorf("write %s: %w", InfeasibleFile, err)
	}
	return nil
}

// WriteInfeasibleTSV writes the infeasible records with a header line.
func (r *Results) WriteInfeasibleTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"sample", "stage", "status", "detail"}); err != nil {
		return err
	}
	for _, rec := range r.Infeasible {
		if err := cw.Write([]string{rec.Sample, string(rec.Stage), rec.Status, rec.Detail}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
