package model

import "time"

// RunStatus tracks a ledger run or stage through its lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded pipeline invocation. A run owns an ordered set of
// stage rows; the run itself only carries overall status and timing.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageResult records one pipeline stage within a run: which stage ran,
// how many output rows it wrote, and how long it took.
type StageResult struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Stage       string    `json:"stage"`
	Status      RunStatus `json:"status"`
	RowsWritten int       `json:"rows_written"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}
