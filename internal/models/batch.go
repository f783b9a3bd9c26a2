package models

import "time"

// JobState is the lifecycle state of the process-wide batch job.
type JobState string

const (
	StateIdle       JobState = "idle"
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// JobStatus is the pollable progress record of the current (or last) run.
type JobStatus struct {
	State          JobState  `json:"status"`
	RunID          string    `json:"run_id,omitempty"`
	TotalUsers     int       `json:"total_users"`
	ProcessedUsers int       `json:"processed_users"`
	CurrentUser    *string   `json:"current_user"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	Errors         []string  `json:"errors"`
}

// Clone returns a copy that shares no memory with s.
func (s JobStatus) Clone() JobStatus {
	out := s
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	out.Errors = append(make([]string, 0, len(s.Errors)), s.Errors...)
	return out
}

// UserResult is the outcome of processing every item of one user.
type UserResult struct {
	UserEmail            string   `json:"user_email"`
	ImagesCount          int      `json:"images_count"`
	VoicesCount          int      `json:"voices_count"`
	TotalFilesDownloaded int      `json:"total_files_downloaded"`
	TotalSizeBytes       int64    `json:"total_size_bytes"`
	VariationsGenerated  int      `json:"variations_generated"`
	SignaturesGenerated  int      `json:"signatures_generated"`
	Errors               []string `json:"errors"`
}

// Failed reports whether the user is tallied as failed. Any error counts,
// including partial success.
func (r UserResult) Failed() bool {
	return len(r.Errors) > 0
}

// BatchResult is the terminal summary of a completed run.
type BatchResult struct {
	RunID                 string       `json:"run_id"`
	Status                JobState     `json:"status"`
	TotalUsersProcessed   int          `json:"total_users_processed"`
	SuccessfulUsers       int          `json:"successful_users"`
	FailedUsers           int          `json:"failed_users"`
	TotalFilesDownloaded  int          `json:"total_files_downloaded"`
	TotalSizeBytes        int64        `json:"total_size_bytes"`
	ProcessingTimeSeconds float64      `json:"processing_time_seconds"`
	StartedAt             time.Time    `json:"started_at"`
	CompletedAt           time.Time    `json:"completed_at"`
	UserResults           []UserResult `json:"user_results"`
	GlobalErrors          []string     `json:"global_errors"`
}
