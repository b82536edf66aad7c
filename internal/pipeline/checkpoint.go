package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fluxpipe/internal/checkpoint"
)

// checkpointVersion is bumped whenever the payload layout changes.
const checkpointVersion = 1

// Checkpoint is the persisted progress of a run: the samples done so far, a
// prefix of the sample list, and their accumulated results.
type Checkpoint struct {
	Version   int       `json:"version"`
	Done      []string  `json:"done"`
	Results   *Results  `json:"results"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Next returns the index of the first sample not yet processed.
func (c *Checkpoint) Next() int { return len(c.Done) }

// ReadCheckpoint loads and decodes the checkpoint in store. It returns
// checkpoint.ErrNotFound when nothing was saved.
func ReadCheckpoint(ctx context.Context, store checkpoint.Store) (*Checkpoint, error) {
	b, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return nil, ErrCheckpointMismatch("payload version %d, want %d", cp.Version, checkpointVersion)
	}
	if cp.Results == nil {
		cp.Results = NewResults()
	}
	cp.Results.init()
	return &cp, nil
}

// restore returns the results to continue from and the index of the first
// sample to process. The checkpoint must cover a prefix of d.samples.
func (d *Driver) restore(ctx context.Context) (*Results, int, error) {
	if d.store == nil {
		return NewResults(), 0, nil
	}
	cp, err := ReadCheckpoint(ctx, d.store)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return NewResults(), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if len(cp.Done) > len(d.samples) {
		return nil, 0, ErrCheckpointMismatch("checkpoint covers %d samples, run has %d", len(cp.Done), len(d.samples))
	}
	for i, id := range cp.Done {
		if d.samples[i].ID != id {
			return nil, 0, ErrCheckpointMismatch("sample %d is %q in checkpoint, %q in run", i, id, d.samples[i].ID)
		}
	}
	return cp.Results, cp.Next(), nil
}

// persist saves results covering the first done samples.
func (d *Driver) persist(ctx context.Context, res *Results, done int) error {
	if d.store == nil {
		return nil
	}
	cp := Checkpoint{Version: checkpointVersion, Done: make([]string, done), Results: res, UpdatedAt: time.Now().UTC()}
	for i := range cp.Done {
		cp.Done[i] = d.samples[i].ID
	}
	b, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return d.store.Save(ctx, b)
}
