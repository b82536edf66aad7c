package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: not found
	Error string `json:"error" example:"not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// SampleStatus summarizes one processed sample for /status.
type SampleStatus struct {
	// example: SRR1234
	ID string `json:"id" example:"SRR1234"`
	// Last state the sample reached (e.g., loaded, rich_diet_solved, persisted).
	// example: persisted
	State string `json:"state" example:"persisted"`
	// Community growth per diet stage; stages that did not solve are absent.
	Growth map[string]float64 `json:"growth,omitempty"`
	// Stages that were not solved to optimality.
	// example: ["standard"]
	Infeasible []string `json:"infeasible,omitempty"`
	// Wall time spent on the sample in milliseconds.
	// example: 5300
	DurationMS int64 `json:"duration_ms" example:"5300"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall run state (idle, running, complete, failed, cancelled).
	// example: running
	State string `json:"state" example:"running"`
	// Number of samples in the run.
	// example: 120
	Total int `json:"total" example:"120"`
	// Number of samples persisted, including those restored from a checkpoint.
	// example: 42
	Done int `json:"done" example:"42"`
	// Samples restored from the checkpoint at start.
	// example: 40
	Resumed int `json:"resumed" example:"40"`
	// Sample currently being simulated.
	// example: SRR1235
	Current string `json:"current,omitempty" example:"SRR1235"`
	// Number of (sample, stage) pairs that did not solve.
	// example: 3
	InfeasibleCount int `json:"infeasible_count" example:"3"`
	// Samples processed by this process, most recent last.
	Recent []SampleStatus `json:"recent,omitempty"`
	// Last error observed by the driver (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the process in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
