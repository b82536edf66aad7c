package pipeline

// Event names published by the Driver.
const (
	EventSampleStart     = "sample_start"
	EventStageSolved     = "stage_solved"
	EventStageInfeasible = "stage_infeasible"
	EventSamplePersisted = "sample_persisted"
	EventRunResumed      = "run_resumed"
	EventRunComplete     = "run_complete"
)

// Event represents a driver lifecycle event.
// Minimal and stable: name + sample ID and optional fields via key/values.
type Event struct {
	Name     string
	SampleID string
	Fields   map[string]any
}

// EventPublisher receives events from the driver. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans each event out to every publisher in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
