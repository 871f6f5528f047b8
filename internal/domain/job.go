package domain

import "time"

// JobType enumerates the orchestrated pipeline stages.
type JobType string

const (
	JobScrape       JobType = "scrape"
	JobAssess       JobType = "assess"
	JobScore        JobType = "score"
	JobEnrich       JobType = "enrich"
	JobCleanup      JobType = "cleanup"
	JobFullPipeline JobType = "full-pipeline"
)

// JobStatus is the tracker state machine. Completed and failed are final.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ActivityEntry is one timestamped line of a job's activity log.
type ActivityEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// ActivityLogCap bounds the retained activity log to the most recent entries.
const ActivityLogCap = 20

// PipelineJob is the durable record coordinating one batched, resumable
// unit of work across time-boxed invocations. It is mutated only by the
// owning job's execution.
type PipelineJob struct {
	ID             string
	Type           JobType
	Status         JobStatus
	Progress       float64
	ItemsProcessed int
	ItemsTotal     int
	CurrentStep    string
	CurrentItem    string
	Errors         int
	ActivityLog    []ActivityEntry
	Metadata       map[string]any
	ErrorMessage   string
	CreatedAt      time.Time
	StartedAt      time.Time
	CompletedAt    time.Time
}

// JobFilter narrows job listing queries.
type JobFilter struct {
	Type   JobType
	Status JobStatus
	Limit  int
}
