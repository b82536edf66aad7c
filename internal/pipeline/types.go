package pipeline

import "time"

// SampleState is the last step a sample reached.
type SampleState string

const (
	SampleLoaded                 SampleState = "loaded"
	SampleBoundsAdjusted         SampleState = "bounds_adjusted"
	SampleRichDietSolved         SampleState = "rich_diet_solved"
	SampleStandardDietSolved     SampleState = "standard_diet_solved"
	SamplePersonalizedDietSolved SampleState = "personalized_diet_solved"
	SampleRecordedInfeasible     SampleState = "recorded_infeasible"
	SamplePersisted              SampleState = "persisted"
)

// Stage names a diet condition a sample is solved under. StageLoad is only
// used to record samples whose model could not be loaded.
type Stage string

const (
	StageLoad         Stage = "load"
	StageRich         Stage = "rich"
	StageStandard     Stage = "standard"
	StagePersonalized Stage = "personalized"
)

// DietStages lists the solve stages in run order.
var DietStages = []Stage{StageRich, StageStandard, StagePersonalized}

func (s Stage) solvedState() SampleState {
	switch s {
	case StageRich:
		return SampleRichDietSolved
	case StageStandard:
		return SampleStandardDietSolved
	case StagePersonalized:
		return SamplePersonalizedDietSolved
	}
	return SampleLoaded
}

// RunState is the lifecycle state of a Driver.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunComplete  RunState = "complete"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Snapshot is a read-only projection of the driver state.
type Snapshot struct {
	State   RunState
	Total   int
	Done    int
	Resumed int
	Current string
	Err     string
	Started time.Time
}
