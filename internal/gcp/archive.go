package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// FirestoreRunArchive keeps one document per batch run, keyed by run ID.
type FirestoreRunArchive struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRunArchive creates a FirestoreRunArchive.
func NewFirestoreRunArchive(client *firestore.Client, collection string) *FirestoreRunArchive {
	return &FirestoreRunArchive{client: client, collection: collection}
}

// RecordStart creates the run document in the PROCESSING state.
func (a *FirestoreRunArchive) RecordStart(ctx context.Context, status models.JobStatus) error {
	doc := models.RunDocument{
		RunID:     status.RunID,
		Status:    runStatus(models.StateProcessing),
		StartedAt: status.StartedAt,
	}
	if _, err := a.client.Collection(a.collection).Doc(status.RunID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to create run document %s: %w", status.RunID, err)
	}
	return nil
}

// RecordCompletion overwrites the run document with the final summary.
func (a *FirestoreRunArchive) RecordCompletion(ctx context.Context, result *models.BatchResult) error {
	doc := models.NewRunDocument(result)
	doc.Status = runStatus(result.Status)
	if _, err := a.client.Collection(a.collection).Doc(result.RunID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to record completion of run %s: %w", result.RunID, err)
	}
	return nil
}

// RecordFailure marks the run FAILED with the accumulated errors.
func (a *FirestoreRunArchive) RecordFailure(ctx context.Context, status models.JobStatus) error {
	updates := []firestore.Update{
		{Path: "status", Value: runStatus(models.StateFailed)},
		{Path: "totalUsers", Value: status.TotalUsers},
		{Path: "globalErrors", Value: status.Errors},
		{Path: "completedAt", Value: time.Now()},
	}
	if len(status.Errors) > 0 {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: status.Errors[len(status.Errors)-1]})
	}
	if _, err := a.client.Collection(a.collection).Doc(status.RunID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to record failure of run %s: %w", status.RunID, err)
	}
	return nil
}

// runStatus stores states in the upper-case form used by the other documents.
func runStatus(state models.JobState) string {
	return strings.ToUpper(string(state))
}
