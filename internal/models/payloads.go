package models

// These structs define the JSON payloads exchanged with status-polling callers.

// StartBatchResponse is returned by the start-batch endpoint.
type StartBatchResponse struct {
	Message          string    `json:"message"`
	Status           JobStatus `json:"status"`
	ProgressEndpoint string    `json:"progress_endpoint"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of any non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WorkflowArgument is the execution argument handed to the completion workflow.
type WorkflowArgument struct {
	RunID                string `json:"runId"`
	Status               string `json:"status"`
	SuccessfulUsers      int    `json:"successfulUsers"`
	FailedUsers          int    `json:"failedUsers"`
	TotalFilesDownloaded int    `json:"totalFilesDownloaded"`
	TotalSizeBytes       int64  `json:"totalSizeBytes"`
}
