// Package modeltest builds small reconstructions with known optima for tests.
package modeltest

import (
	"path/filepath"
	"testing"

	"fluxpipe/internal/model"
)

// Linear returns A_e -> A_c -> B_c -> biomass with uptake capped at 10.
// Maximum biomass flux is 10 and every metabolite has shadow price -1.
func Linear() *model.Model {
	m, err := model.New("linear",
		[]model.Metabolite{
			{ID: "A_e", Compartment: "e"},
			{ID: "A_c", Compartment: "c"},
			{ID: "B_c", Compartment: "c"},
		},
		[]model.Reaction{
			{ID: "EX_A", Metabolites: map[string]float64{"A_e": -1}, Lower: -10, Upper: 1000},
			{ID: "T_A", Metabolites: map[string]float64{"A_e": -1, "A_c": 1}, Lower: 0, Upper: 1000},
			{ID: "R1", Metabolites: map[string]float64{"A_c": -1, "B_c": 1}, Lower: 0, Upper: 1000},
			{ID: "BIOMASS", Metabolites: map[string]float64{"B_c": -1}, Lower: 0, Upper: 1000, Objective: 1},
		})
	if err != nil {
		panic(err)
	}
	return m
}

// Community returns a one-organism community reconstruction laid out the way
// community models name things: a lumen [u] diet exchange, fecal [fe]
// exchanges, a per-organism biomass reaction, sink and demand reactions that
// must be relaxed before the model can grow, and communityBiomass drained by
// EX_microbeBiomass[fe].
//
// Each unit of community biomass consumes 10 glucose and secretes 5 acetate.
func Community(id string) *model.Model {
	m, err := model.New(id,
		[]model.Metabolite{
			{ID: "glc_D[u]", Compartment: "u"},
			{ID: "glc_D[fe]", Compartment: "fe"},
			{ID: "ac[u]", Compartment: "u"},
			{ID: "ac[fe]", Compartment: "fe"},
			{ID: "org1_cofactor[c]", Compartment: "c"},
			{ID: "org1_byprod[c]", Compartment: "c"},
			{ID: "org1_Biomass[c]", Compartment: "c"},
			{ID: "microbeBiomass[u]", Compartment: "u"},
		},
		[]model.Reaction{
			{ID: "EX_glc_D[u]", Metabolites: map[string]float64{"glc_D[u]": -1}, Lower: -1000, Upper: 0},
			{ID: "UFEt_glc_D", Metabolites: map[string]float64{"glc_D[u]": -1, "glc_D[fe]": 1}, Lower: 0, Upper: 1000},
			{ID: "EX_glc_D[fe]", Metabolites: map[string]float64{"glc_D[fe]": -1}, Lower: -1000, Upper: 1000},
			{ID: "UFEt_ac", Metabolites: map[string]float64{"ac[u]": -1, "ac[fe]": 1}, Lower: 0, Upper: 1000},
			{ID: "EX_ac[fe]", Metabolites: map[string]float64{"ac[fe]": -1}, Lower: -1000, Upper: 1000},
			{ID: "org1_biomass", Metabolites: map[string]float64{
				"glc_D[u]": -10, "ac[u]": 5, "org1_cofactor[c]": -1, "org1_byprod[c]": 1, "org1_Biomass[c]": 1,
			}, Lower: 0.1, Upper: 1000},
			{ID: "sink_org1_cofactor[c]", Metabolites: map[string]float64{"org1_cofactor[c]": -1}, Lower: 0, Upper: 1000},
			{ID: "DM_org1_byprod[c]", Metabolites: map[string]float64{"org1_byprod[c]": -1}, Lower: 0, Upper: 0},
			{ID: "communityBiomass", Metabolites: map[string]float64{"org1_Biomass[c]": -1, "microbeBiomass[u]": 1}, Lower: 0, Upper: 1000},
			{ID: "EX_microbeBiomass[fe]", Metabolites: map[string]float64{"microbeBiomass[u]": -1}, Lower: 0, Upper: 1000, Objective: 1},
		})
	if err != nil {
		panic(err)
	}
	return m
}

// WriteJSON saves m as <dir>/<name>.json and returns the path.
func WriteJSON(t testing.TB, dir, name string, m *model.Model) string {
	t.Helper()
	p := filepath.Join(dir, name+".json")
	if err := model.Save(p, m); err != nil {
		t.Fatalf("save model %s: %v", name, err)
	}
	return p
}
