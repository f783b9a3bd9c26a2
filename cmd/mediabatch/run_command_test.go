package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	out := renderSummary(&models.BatchResult{
		RunID:                "run-1",
		Status:               models.StateCompleted,
		SuccessfulUsers:      1,
		FailedUsers:          1,
		TotalFilesDownloaded: 3,
		TotalSizeBytes:       2048,
		UserResults: []models.UserResult{
			{UserEmail: "a@example.com", ImagesCount: 2, VoicesCount: 1, TotalSizeBytes: 2048},
			{UserEmail: "b@example.com", Errors: []string{"image processing error for x: metadata not found"}},
		},
		GlobalErrors: []string{"Error processing user c@example.com: boom"},
	})

	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "b@example.com")
	assert.Contains(t, out, "Run run-1 completed: 1 succeeded, 1 failed, 3 files, 2.0 kB")
	assert.Contains(t, out, "Error processing user c@example.com: boom")
}

func TestRenderTable_PadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "only")
	assert.Contains(t, out, "A")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["run"])
}

type stubRunner struct {
	result *models.BatchResult
	err    error
}

func (r stubRunner) Run(context.Context) (*models.BatchResult, error) {
	return r.result, r.err
}

func TestRunBatch_PartialSuccessExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	err := runBatch(context.Background(), stubRunner{result: &models.BatchResult{
		RunID:               "run-1",
		Status:              models.StateCompleted,
		TotalUsersProcessed: 2,
		SuccessfulUsers:     1,
		FailedUsers:         1,
	}}, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "1 succeeded, 1 failed")
}

func TestRunBatch_FailedRunReturnsError(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("failed to list users: boom")

	err := runBatch(context.Background(), stubRunner{err: boom}, &out)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}
