package services

import (
	"time"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// aggregate folds per-user results into the terminal BatchResult. A user with
// any recorded error is tallied as failed even when some of its items were
// downloaded; those downloads still count towards the totals.
func aggregate(status models.JobStatus, results []models.UserResult, completedAt time.Time) *models.BatchResult {
	out := &models.BatchResult{
		RunID:                 status.RunID,
		Status:                models.StateCompleted,
		TotalUsersProcessed:   len(results),
		StartedAt:             status.StartedAt,
		CompletedAt:           completedAt,
		ProcessingTimeSeconds: completedAt.Sub(status.StartedAt).Seconds(),
		UserResults:           make([]models.UserResult, 0, len(results)),
		GlobalErrors:          append([]string{}, status.Errors...),
	}
	for _, r := range results {
		if r.Failed() {
			out.FailedUsers++
		} else {
			out.SuccessfulUsers++
		}
		out.TotalFilesDownloaded += r.TotalFilesDownloaded
		out.TotalSizeBytes += r.TotalSizeBytes
		out.UserResults = append(out.UserResults, r)
	}
	return out
}
