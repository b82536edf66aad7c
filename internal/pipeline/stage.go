package pipeline

import (
	"context"
	"math"

	"fluxpipe/internal/diet"
	"fluxpipe/internal/fba"
	"fluxpipe/internal/model"
)

// sampleResult is everything one sample contributes to Results.
type sampleResult struct {
	id         string
	state      SampleState
	stages     []stageResult
	infeasible []InfeasibleRecord
}

func (s *sampleResult) recordInfeasible(stage Stage, status, detail string) {
	s.infeasible = append(s.infeasible, InfeasibleRecord{Sample: s.id, Stage: stage, Status: status, Detail: detail})
	s.state = SampleRecordedInfeasible
}

type stageResult struct {
	stage  Stage
	growth float64
	net    []netFlux
	ranges []fba.FluxRange
}

type netFlux struct {
	metabolite string
	production float64
	uptake     float64
}

// solveStage optimizes m under its current diet bounds, then runs FVA over
// the fecal and diet exchanges. A stage that does not solve is recorded on sr
// and reported as false; the error return is for cancellation and malformed
// models only.
func (d *Driver) solveStage(ctx context.Context, sr *sampleResult, m *model.Model, stage Stage) (bool, error) {
	log := d.log.With().Str("sample", sr.id).Str("stage", string(stage)).Logger()
	sol, err := fba.Optimize(ctx, d.sess, m, fba.Options{})
	if err != nil {
		return false, err
	}
	if !sol.Status.Feasible() {
		log.Warn().Str("status", sol.Status.String()).Str("detail", sol.Detail).Msg("stage not solved")
		sr.recordInfeasible(stage, sol.Status.String(), sol.Detail)
		d.pub.Publish(Event{Name: EventStageInfeasible, SampleID: sr.id, Fields: map[string]any{"stage": string(stage), "status": sol.Status.String()}})
		return false, nil
	}

	fecal := fecalExchanges(m)
	dietIDs := dietExchanges(m)
	ids := append(append([]string(nil), fecal...), dietIDs...)
	res, err := fba.FVA(ctx, d.sess, m, ids, fba.FVAOptions{Fraction: d.fraction, Workers: d.workers})
	if err != nil {
		return false, err
	}
	if !res.Status.Feasible() {
		log.Warn().Str("status", res.Status.String()).Msg("flux variability reference not solved")
		sr.recordInfeasible(stage, res.Status.String(), "flux variability")
		d.pub.Publish(Event{Name: EventStageInfeasible, SampleID: sr.id, Fields: map[string]any{"stage": string(stage), "status": res.Status.String()}})
		return false, nil
	}

	st := stageResult{stage: stage, growth: sol.Objective}
	for _, fr := range res.Ranges {
		if fr.Feasible() {
			st.ranges = append(st.ranges, fr)
		} else {
			log.Debug().Str("reaction", fr.Reaction).Msg("flux range not solved")
		}
	}
	st.net = netFluxes(res, fecal)
	sr.stages = append(sr.stages, st)
	sr.state = stage.solvedState()
	log.Info().Float64("growth", sol.Objective).Int("ranges", len(st.ranges)).Msg("stage solved")
	d.pub.Publish(Event{Name: EventStageSolved, SampleID: sr.id, Fields: map[string]any{"stage": string(stage), "growth": sol.Objective}})
	return true, nil
}

// netFluxes pairs each fecal exchange EX_<met>[fe] with Diet_EX_<met>[d].
// Net production is max fecal + min diet; net uptake is |min fecal + max diet|.
// A metabolite without a diet exchange contributes zero on the diet side.
// Metabolites whose ranges did not solve are left out.
func netFluxes(res *fba.FVAResult, fecal []string) []netFlux {
	byID := make(map[string]fba.FluxRange, len(res.Ranges))
	for _, fr := range res.Ranges {
		byID[fr.Reaction] = fr
	}
	var out []netFlux
	for _, id := range fecal {
		fe, ok := byID[id]
		if !ok || !fe.Feasible() {
			continue
		}
		met := fecalMetabolite(id)
		var dMin, dMax float64
		if dr, ok := byID[diet.ExchangePrefix+met+diet.Compartment]; ok {
			if !dr.Feasible() {
				continue
			}
			dMin, dMax = dr.Min, dr.Max
		}
		out = append(out, netFlux{
			metabolite: met,
			production: fe.Max + dMin,
			uptake:     math.Abs(fe.Min + dMax),
		})
	}
	return out
}
