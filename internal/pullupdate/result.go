package pullupdate

import "time"

// Result summarises a run. On failure it holds whatever the completed steps
// produced.
type Result struct {
	Command    string    `json:"command"`
	TraceID    string    `json:"trace_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	RowsWritten    int      `json:"rows_written"`
	CleanedColumns []string `json:"cleaned_columns"`
	SkippedColumns []string `json:"skipped_columns"`
	ChangedCells   int      `json:"changed_cells"`
	CSVPath        string   `json:"csv_path"`

	ItemID       string `json:"item_id,omitempty"`
	SurveyTitle  string `json:"survey_title,omitempty"`
	ArchiveName  string `json:"archive_name,omitempty"`
	ArchiveBytes int64  `json:"archive_bytes,omitempty"`
	EmailsSent   int    `json:"emails_sent"`

	Steps []*StepState `json:"steps"`
}

// Duration returns the wall time of the run
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Step returns the state of the step with the given id, or nil
func (r *Result) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}
