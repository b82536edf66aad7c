// Package pipeline runs the per-sample community simulation and keeps its
// progress durable. It is structured into small files by concern:
//
//   - driver.go: Driver type, Run loop and the per-sample state machine.
//   - config.go: DriverConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: sample states, diet stages and the Snapshot projection.
//   - bounds.go: PrepareModel, the bound edits applied to every loaded model.
//   - stage.go: one diet stage (optimize, FVA, net production/uptake).
//   - results.go: keyed result tables and the output bundle.
//   - checkpoint.go: checkpoint payload, resume and persist.
//   - errors.go: error types and helpers (IsCheckpointMismatch, IsSampleLoad).
//   - events.go: lifecycle events and publishers.
//   - status.go: Status reporting for the HTTP layer.
//
// Samples are processed strictly in order so that the checkpoint always
// describes a prefix of the sample list. Work inside a sample (the FVA solves)
// fans out over the configured number of workers.
package pipeline
