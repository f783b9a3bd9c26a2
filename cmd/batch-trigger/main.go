package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/mediabatchflow/internal/bootstrap"
	"github.com/Lllllllleong/mediabatchflow/internal/config"
	"github.com/Lllllllleong/mediabatchflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	batchRuntime *bootstrap.Runtime
	once         sync.Once
	initErr      error
)

// MessagePublishedData is the Pub/Sub CloudEvent envelope.
type MessagePublishedData struct {
	Message struct {
		Data []byte `json:"data"`
	} `json:"message"`
}

// TriggerMessage is the optional JSON payload published by the scheduler.
type TriggerMessage struct {
	Reason string `json:"reason,omitempty"`
}

func init() {
	// Register the CloudEvent function. Cloud Scheduler publishes to the Pub/Sub
	// topic this function is subscribed to.
	functions.CloudEvent("RunMediaBatch", runMediaBatch)
}

// main is required by the Go Functions Framework.
func main() {}

// runMediaBatch runs one batch to completion within the invocation.
func runMediaBatch(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		slog.SetDefault(cfg.NewLogger())
		batchRuntime, initErr = bootstrap.New(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	msg, err := decodeTrigger(e.Data())
	if err != nil {
		// Scheduler payloads are informational only.
		slog.Warn("Ignoring undecodable event data", "error", err, "eventId", e.ID())
	}
	slog.Info("Batch run triggered.", "eventId", e.ID(), "source", e.Source(), "reason", msg.Reason)

	result, err := batchRuntime.Orchestrator.Run(ctx)
	if errors.Is(err, services.ErrBatchInProgress) {
		// Redelivery of an event that is still being handled. Acknowledge it.
		slog.Info("Batch run already in progress. Event acknowledged.", "eventId", e.ID())
		return nil
	}
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}
	slog.Info("Batch run finished.", "runId", result.RunID, "failedUsers", result.FailedUsers)
	return nil
}

func decodeTrigger(data []byte) (TriggerMessage, error) {
	var msg TriggerMessage
	if len(data) == 0 {
		return msg, nil
	}
	var envelope MessagePublishedData
	if err := json.Unmarshal(data, &envelope); err != nil {
		return msg, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if len(envelope.Message.Data) == 0 {
		return msg, nil
	}
	if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
		return msg, fmt.Errorf("json.Unmarshal message data: %w", err)
	}
	return msg, nil
}
