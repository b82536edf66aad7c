package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fluxpipe/internal/checkpoint"
	"fluxpipe/internal/common/fsutil"
	"fluxpipe/internal/diet"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/model"
	"fluxpipe/internal/output"
	"fluxpipe/pkg/types"
)

// Driver simulates every sample under each diet stage and checkpoints after
// each one.
type Driver struct {
	mu sync.RWMutex

	samples         []types.Sample
	diet            []diet.Entry
	personalizedDir string
	sess            lp.Session
	store           checkpoint.Store
	sink            output.Sink
	pub             EventPublisher
	log             zerolog.Logger
	fraction        float64
	workers         int
	richUptake      float64
	bounds          BoundConfig
	progress        func(done, total int)

	// status
	state      RunState
	current    string
	done       int
	resumed    int
	infeasible int
	recent     []types.SampleStatus
	err        string
	startTime  time.Time
}

// personalizedExts are tried in order for <dir>/<sample><ext>.
var personalizedExts = []string{".tsv", ".txt", ".csv"}

// Run processes every sample not covered by the checkpoint and returns the
// accumulated results. Cancellation is honored between samples and inside
// solves; the checkpoint then still describes the last finished sample.
func (d *Driver) Run(ctx context.Context) (*Results, error) {
	d.setState(RunRunning, "")
	res, next, err := d.restore(ctx)
	if err != nil {
		d.setState(RunFailed, err.Error())
		return nil, err
	}
	total := len(d.samples)
	if next > 0 {
		d.mu.Lock()
		d.done, d.resumed = next, next
		d.infeasible = len(res.Infeasible)
		d.mu.Unlock()
		d.log.Info().Int("resumed", next).Int("total", total).Msg("resuming from checkpoint")
		d.pub.Publish(Event{Name: EventRunResumed, Fields: map[string]any{"done": next, "total": total}})
	}

	for i := next; i < total; i++ {
		if err := ctx.Err(); err != nil {
			d.setState(RunCancelled, err.Error())
			return res, err
		}
		s := d.samples[i]
		start := time.Now()
		sr, err := d.processSample(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				d.setState(RunCancelled, err.Error())
			} else {
				d.setState(RunFailed, err.Error())
			}
			return res, err
		}
		res.merge(sr)
		// The sample is finished; save it even if ctx was cancelled meanwhile.
		if err := d.persist(context.WithoutCancel(ctx), res, i+1); err != nil {
			d.setState(RunFailed, err.Error())
			return res, fmt.Errorf("persist after %s: %w", s.ID, err)
		}
		sr.state = SamplePersisted
		d.finishSample(sr, time.Since(start))
		d.log.Info().Str("sample", s.ID).Int("done", i+1).Int("total", total).Dur("elapsed", time.Since(start)).Msg("sample persisted")
		d.pub.Publish(Event{Name: EventSamplePersisted, SampleID: s.ID, Fields: map[string]any{"done": i + 1, "total": total, "infeasible": len(sr.infeasible)}})
		if d.progress != nil {
			d.progress(i+1, total)
		}
	}

	if d.sink != nil {
		if err := res.WriteBundle(ctx, d.sink); err != nil {
			d.setState(RunFailed, err.Error())
			return res, err
		}
	}
	d.setState(RunComplete, "")
	d.log.Info().Int("samples", total).Int("infeasible", len(res.Infeasible)).Msg("run complete")
	d.pub.Publish(Event{Name: EventRunComplete, Fields: map[string]any{"total": total, "infeasible": len(res.Infeasible)}})
	return res, nil
}

// processSample walks one sample through Loaded, BoundsAdjusted and the diet
// stages. Models that cannot be loaded and stages that do not solve are
// recorded on the result; only cancellation and malformed problems return an
// error.
func (d *Driver) processSample(ctx context.Context, s types.Sample) (*sampleResult, error) {
	sr := &sampleResult{id: s.ID}
	d.mu.Lock()
	d.current = s.ID
	d.mu.Unlock()
	d.pub.Publish(Event{Name: EventSampleStart, SampleID: s.ID})
	log := d.log.With().Str("sample", s.ID).Logger()

	m, err := d.loadSample(s)
	if err != nil {
		log.Warn().Err(err).Msg("sample not loaded")
		sr.recordInfeasible(StageLoad, statusLoadError, err.Error())
		d.pub.Publish(Event{Name: EventStageInfeasible, SampleID: s.ID, Fields: map[string]any{"stage": string(StageLoad), "status": statusLoadError}})
		return sr, nil
	}
	sr.state = SampleBoundsAdjusted

	diet.Rich(m, d.richUptake)
	if _, err := d.solveStage(ctx, sr, m, StageRich); err != nil {
		return nil, err
	}

	if len(d.diet) > 0 {
		if missing := diet.Apply(m, d.diet); len(missing) > 0 {
			log.Warn().Strs("reactions", missing).Msg("diet reactions not in model")
		}
		if _, err := d.solveStage(ctx, sr, m, StageStandard); err != nil {
			return nil, err
		}
	}

	entries, found, err := d.personalizedDiet(s.ID)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("personalized diet not read")
		sr.recordInfeasible(StagePersonalized, statusDietError, err.Error())
	case found:
		if missing := diet.Apply(m, entries); len(missing) > 0 {
			log.Warn().Strs("reactions", missing).Msg("personalized diet reactions not in model")
		}
		if _, err := d.solveStage(ctx, sr, m, StagePersonalized); err != nil {
			return nil, err
		}
	}
	return sr, nil
}

// loadSample reads the model and applies PrepareModel.
func (d *Driver) loadSample(s types.Sample) (*model.Model, error) {
	m, err := model.Load(s.Path)
	if err != nil {
		return nil, sampleLoadError{sample: s.ID, path: s.Path, err: err}
	}
	m.ID = s.ID
	if err := PrepareModel(m, d.bounds); err != nil {
		return nil, sampleLoadError{sample: s.ID, path: s.Path, err: err}
	}
	return m, nil
}

// personalizedDiet looks for the sample's own diet table.
func (d *Driver) personalizedDiet(sample string) ([]diet.Entry, bool, error) {
	if d.personalizedDir == "" {
		return nil, false, nil
	}
	for _, ext := range personalizedExts {
		p := filepath.Join(d.personalizedDir, sample+ext)
		if !fsutil.PathExists(p) {
			continue
		}
		entries, err := diet.Load(p)
		if err != nil {
			return nil, false, err
		}
		return entries, true, nil
	}
	return nil, false, nil
}
