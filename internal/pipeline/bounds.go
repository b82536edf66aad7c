package pipeline

import (
	"fmt"
	"strings"

	"fluxpipe/internal/diet"
	"fluxpipe/internal/model"
)

// Reaction ids community models use for the pooled biomass.
const (
	CommunityBiomass = "communityBiomass"
	BiomassExchange  = "EX_microbeBiomass[fe]"
)

const (
	lumenSuffix    = "[u]"
	fecalSuffix    = "[fe]"
	exchangePrefix = "EX_"
	sinkPrefix     = "sink_"
	demandPrefix   = "DM_"
)

// PrepareModel applies the bound edits every sample gets before solving:
// diet exchanges move to the diet compartment, organism biomass reactions may
// run at zero, sinks and demands are opened, and community biomass is boxed.
// The objective becomes the biomass exchange when present, else community
// biomass, else it is left as loaded.
func PrepareModel(m *model.Model, b BoundConfig) error {
	if _, err := m.RenameReactions(func(id string) string {
		if strings.HasPrefix(id, exchangePrefix) && strings.HasSuffix(id, lumenSuffix) {
			return diet.ExchangePrefix + strings.TrimSuffix(strings.TrimPrefix(id, exchangePrefix), lumenSuffix) + diet.Compartment
		}
		return id
	}); err != nil {
		return err
	}

	for i := range m.Reactions {
		r := &m.Reactions[i]
		switch {
		case isOrganismBiomass(r.ID):
			r.Lower = 0
		case strings.HasPrefix(r.ID, sinkPrefix):
			r.Lower = b.SinkLower
		case strings.HasPrefix(r.ID, demandPrefix) && !containsBiomass(r.ID):
			r.Upper = b.DemandUpper
		}
	}

	if m.HasReaction(CommunityBiomass) {
		if err := m.SetBounds(CommunityBiomass, b.CommunityBiomassLower, b.CommunityBiomassUpper); err != nil {
			return err
		}
	}
	switch {
	case m.HasReaction(BiomassExchange):
		return m.SetObjective(BiomassExchange)
	case m.HasReaction(CommunityBiomass):
		return m.SetObjective(CommunityBiomass)
	}
	if len(m.ObjectiveReactions()) == 0 {
		return fmt.Errorf("model %s: no community biomass and no objective", m.ID)
	}
	return nil
}

func containsBiomass(id string) bool {
	return strings.Contains(strings.ToLower(id), "biomass")
}

// isOrganismBiomass matches per-organism biomass reactions, leaving out the
// community pool and its exchange, sink and demand reactions.
func isOrganismBiomass(id string) bool {
	if !containsBiomass(id) || id == CommunityBiomass {
		return false
	}
	for _, p := range []string{exchangePrefix, diet.ExchangePrefix, sinkPrefix, demandPrefix} {
		if strings.HasPrefix(id, p) {
			return false
		}
	}
	return true
}

// fecalExchanges returns the EX_<met>[fe] reaction ids of m in model order.
func fecalExchanges(m *model.Model) []string {
	return m.ReactionIDs(model.And(model.HasPrefix(exchangePrefix), model.HasSuffix(fecalSuffix)))
}

// dietExchanges returns the Diet_EX_<met>[d] reaction ids of m in model order.
func dietExchanges(m *model.Model) []string {
	return m.ReactionIDs(func(r model.Reaction) bool { return diet.IsExchange(r.ID) })
}

func fecalMetabolite(id string) string {
	return strings.TrimSuffix(strings.TrimPrefix(id, exchangePrefix), fecalSuffix)
}
