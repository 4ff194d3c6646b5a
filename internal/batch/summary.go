package batch

import "time"

// Status classifies what happened to one input file.
type Status string

const (
	StatusFiltered  Status = "filtered"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusExtracted Status = "extracted"
)

// RunStatus classifies a whole run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Outcome records the result for one input file.
type Outcome struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Places  int    `json:"places"`
	Vectors int    `json:"vectors"`
}

// Summary describes a finished run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	InputDir   string    `json:"input_dir"`
	OutputDir  string    `json:"output_dir"`
	Merge      bool      `json:"merge"`
	Format     string    `json:"format"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	Outcomes   []Outcome `json:"outcomes"`
	Written    []string  `json:"written"`
}

// Count returns the number of outcomes with the given status.
func (s *Summary) Count(status Status) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s == nil || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
