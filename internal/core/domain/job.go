package domain

import "time"

// JobStatus is the state of one ingestion attempt.
type JobStatus string

// Job states. Queued is a declared state the pipeline never produces
// today: jobs are created directly in processing because work starts
// immediately. It stays a valid value for future deferred scheduling.
const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// StatusUploaded is the synthetic status reported for a document that
// exists but has no job rows yet. It is not a Job state: it means
// ingestion has not started, which callers must distinguish from failed.
const StatusUploaded = "uploaded"

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobProcessing, JobDone, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// CanTransition reports whether moving from s to next is a legal
// forward transition. Terminal states permit nothing.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobQueued:
		return next == JobProcessing
	case JobProcessing:
		return next == JobDone || next == JobFailed
	}
	return false
}

// Job records the progress and outcome of one ingestion attempt for a
// document. A document may accumulate several jobs over time (retries);
// the latest by CreatedAt is authoritative for its displayed status.
type Job struct {
	// ID is the unique job identifier.
	ID string

	// DocumentID links to the document being ingested.
	DocumentID string

	// Status is the current state.
	Status JobStatus

	// Progress is a monotonically non-decreasing integer in [0,100].
	// It is forced to 100 exactly when the job transitions to done.
	Progress int

	// Error holds a human-readable cause when Status is failed.
	Error *string

	// CreatedAt orders jobs for latest-wins status resolution.
	CreatedAt time.Time
}
