package types

import "time"

// JobState is the lifecycle state of a conversion job tracked by
// internal/book's repository, as distinct from RunStatus (which reports
// only how a finished run ended).
type JobState string

const (
	JobUploaded   JobState = "uploaded"
	JobRunning    JobState = "running"
	JobComplete   JobState = "complete"
	JobCancelled  JobState = "cancelled"
	JobError      JobState = "error"
)

// Job is the persisted record of one audiobook conversion request: the
// input that started it, its current lifecycle state, and, once finished,
// its RunResult. internal/api creates one per upload; the CLI
// (cmd/audiobound) runs the orchestrator directly and creates no Job.
type Job struct {
	ID         string             `json:"id"`
	BookName   string             `json:"book_name"`
	State      JobState           `json:"state"`
	Input      OrchestratorInput  `json:"input"`
	Result     *RunResult         `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	RawFormat  string             `json:"raw_format,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
