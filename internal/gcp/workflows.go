package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// WorkflowNotifier starts a Cloud Workflows execution for every completed run.
type WorkflowNotifier struct {
	executionsClient *executions.Client
	parent           string
}

// NewWorkflowNotifier creates a WorkflowNotifier for the given workflow.
func NewWorkflowNotifier(ctx context.Context, projectID, location, workflowID, credentialsFile string) (*WorkflowNotifier, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowNotifier: projectID, location and workflowID cannot be empty")
	}
	executionsClient, err := executions.NewClient(ctx, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowNotifier{
		executionsClient: executionsClient,
		parent:           WorkflowParent(projectID, location, workflowID),
	}, nil
}

// WorkflowParent is the resource name executions are created under.
func WorkflowParent(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

// NotifyCompleted hands the run summary to the workflow.
func (n *WorkflowNotifier) NotifyCompleted(ctx context.Context, result *models.BatchResult) error {
	payloadBytes, err := json.Marshal(NewWorkflowArgument(result))
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := n.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	slog.Info("Triggered completion workflow.", "runId", result.RunID, "execution", exec.GetName())
	return nil
}

// NewWorkflowArgument builds the execution argument for a run.
func NewWorkflowArgument(result *models.BatchResult) models.WorkflowArgument {
	return models.WorkflowArgument{
		RunID:                result.RunID,
		Status:               string(result.Status),
		SuccessfulUsers:      result.SuccessfulUsers,
		FailedUsers:          result.FailedUsers,
		TotalFilesDownloaded: result.TotalFilesDownloaded,
		TotalSizeBytes:       result.TotalSizeBytes,
	}
}

func (n *WorkflowNotifier) Close() error {
	return n.executionsClient.Close()
}
