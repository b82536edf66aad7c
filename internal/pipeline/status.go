package pipeline

import (
	"sort"
	"time"

	"fluxpipe/pkg/types"
)

func (d *Driver) setState(s RunState, errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
	if errMsg != "" {
		d.err = errMsg
	}
	if s != RunRunning {
		d.current = ""
	}
}

func (d *Driver) finishSample(sr *sampleResult, elapsed time.Duration) {
	st := types.SampleStatus{ID: sr.id, State: string(sr.state), DurationMS: elapsed.Milliseconds()}
	if len(sr.stages) > 0 {
		st.Growth = make(map[string]float64, len(sr.stages))
		for _, s := range sr.stages {
			st.Growth[string(s.stage)] = s.growth
		}
	}
	for _, rec := range sr.infeasible {
		st.Infeasible = append(st.Infeasible, string(rec.Stage))
	}
	sort.Strings(st.Infeasible)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.done++
	d.infeasible += len(sr.infeasible)
	d.current = ""
	d.recent = append(d.recent, st)
	if len(d.recent) > recentSamples {
		d.recent = append([]types.SampleStatus(nil), d.recent[len(d.recent)-recentSamples:]...)
	}
}

// Snapshot returns a read-only view of the driver state.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		State:   d.state,
		Total:   len(d.samples),
		Done:    d.done,
		Resumed: d.resumed,
		Current: d.current,
		Err:     d.err,
		Started: d.startTime,
	}
}

// Ready reports whether the driver is healthy enough to serve status: any
// state but failed.
func (d *Driver) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state != RunFailed
}

// Status builds a detailed status response for /status.
func (d *Driver) Status() types.StatusResponse {
	d.mu.RLock()
	defer d.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		State:           string(d.state),
		Total:           len(d.samples),
		Done:            d.done,
		Resumed:         d.resumed,
		Current:         d.current,
		InfeasibleCount: d.infeasible,
		Recent:          append([]types.SampleStatus(nil), d.recent...),
		LastError:       d.err,
		UptimeSeconds:   int64(now.Sub(d.startTime).Seconds()),
		ServerTimeUnix:  now.Unix(),
	}
}
