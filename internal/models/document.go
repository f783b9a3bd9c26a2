package models

import "time"

// RunDocument is the Firestore record of one batch run. It is written when a run
// starts and updated once the run reaches a terminal state.
type RunDocument struct {
	RunID                 string    `firestore:"runId,omitempty"`
	Status                string    `firestore:"status,omitempty"`
	ErrorDetails          string    `firestore:"errorDetails,omitempty"`
	TotalUsers            int       `firestore:"totalUsers"`
	SuccessfulUsers       int       `firestore:"successfulUsers"`
	FailedUsers           int       `firestore:"failedUsers"`
	TotalFilesDownloaded  int       `firestore:"totalFilesDownloaded"`
	TotalSizeBytes        int64     `firestore:"totalSizeBytes"`
	ProcessingTimeSeconds float64   `firestore:"processingTimeSeconds"`
	GlobalErrors          []string  `firestore:"globalErrors,omitempty"`
	StartedAt             time.Time `firestore:"startedAt,omitempty"`
	CompletedAt           time.Time `firestore:"completedAt,omitempty"`
}

// NewRunDocument summarizes a finished BatchResult for archiving.
func NewRunDocument(r *BatchResult) RunDocument {
	return RunDocument{
		RunID:                 r.RunID,
		Status:                string(r.Status),
		TotalUsers:            r.TotalUsersProcessed,
		SuccessfulUsers:       r.SuccessfulUsers,
		FailedUsers:           r.FailedUsers,
		TotalFilesDownloaded:  r.TotalFilesDownloaded,
		TotalSizeBytes:        r.TotalSizeBytes,
		ProcessingTimeSeconds: r.ProcessingTimeSeconds,
		GlobalErrors:          r.GlobalErrors,
		StartedAt:             r.StartedAt,
		CompletedAt:           r.CompletedAt,
	}
}
