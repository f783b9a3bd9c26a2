// Package bootstrap builds the batch runtime from a Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/mediabatchflow/internal/config"
	"github.com/Lllllllleong/mediabatchflow/internal/fetcher"
	"github.com/Lllllllleong/mediabatchflow/internal/gcp"
	"github.com/Lllllllleong/mediabatchflow/internal/services"
	"github.com/Lllllllleong/mediabatchflow/internal/sink"
	"github.com/Lllllllleong/mediabatchflow/internal/voice"
)

// Runtime owns the orchestrator and every client it depends on.
type Runtime struct {
	Orchestrator *services.Orchestrator
	closers      []io.Closer
}

// New creates all GCP clients named by cfg and wires them into an Orchestrator.
// On error every client created so far is closed.
func New(ctx context.Context, cfg *config.Config) (_ *Runtime, err error) {
	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, fsClient)

	records := gcp.NewFirestoreRecordStore(fsClient, gcp.Collections{
		Users:  cfg.UsersCollection,
		Images: cfg.ImagesCollection,
		Voices: cfg.VoicesCollection,
	})

	// gs:// references need no default bucket, so the GCS fetcher is always
	// available. Bare paths are rejected when FIREBASE_STORAGE_BUCKET is empty.
	gcsClient, err := gcp.NewStorageClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, gcsClient)

	router := newRouter(cfg, fetcher.NewGCSFetcher(gcsClient, cfg.StorageBucket, cfg.Fetch.MaxBytes, cfg.Fetch.Timeout))

	var userOpts []services.UserProcessorOption
	if s := buildSink(cfg, gcsClient); s != nil {
		userOpts = append(userOpts, services.WithSink(s))
	}

	if cfg.Variations.Enabled {
		vertex, verr := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.Variations.Region, cfg.Variations.Model, cfg.CredentialsFile)
		if verr != nil {
			return nil, verr
		}
		rt.closers = append(rt.closers, vertex)
		userOpts = append(userOpts, services.WithVariations(vertex, cfg.Variations.Count))
	}

	if cfg.Voice.Enabled {
		voices, verr := voice.NewElevenLabsClient(voice.Options{
			APIKey:  cfg.Voice.APIKey,
			Text:    cfg.Voice.Text,
			ModelID: cfg.Voice.ModelID,
			VoiceID: cfg.Voice.VoiceID,
			Timeout: cfg.Voice.Timeout,
		})
		if verr != nil {
			return nil, verr
		}
		userOpts = append(userOpts, services.WithVoiceSignatures(voices))
	}

	orchOpts := []services.OrchestratorOption{services.WithConcurrency(cfg.Batch.UserConcurrency)}
	if cfg.RunsCollection != "" {
		orchOpts = append(orchOpts, services.WithArchive(gcp.NewFirestoreRunArchive(fsClient, cfg.RunsCollection)))
	}
	if cfg.Workflow.ID != "" {
		notifier, nerr := gcp.NewWorkflowNotifier(ctx, cfg.ProjectID, cfg.Workflow.Location, cfg.Workflow.ID, cfg.CredentialsFile)
		if nerr != nil {
			return nil, nerr
		}
		rt.closers = append(rt.closers, notifier)
		orchOpts = append(orchOpts, services.WithNotifier(notifier))
	}

	items := services.NewItemProcessor(records, router)
	users := services.NewUserProcessor(items, userOpts...)
	rt.Orchestrator = services.NewOrchestrator(records, users, orchOpts...)

	slog.Info("Runtime initialized.",
		"projectId", cfg.ProjectID,
		"concurrency", cfg.Batch.UserConcurrency,
		"downloadDir", cfg.DownloadDir,
		"mirrorBucket", cfg.MirrorBucket,
		"variations", cfg.Variations.Enabled,
		"voiceSignatures", cfg.Voice.Enabled,
		"archive", cfg.RunsCollection != "",
		"workflow", cfg.Workflow.ID != "",
	)
	return rt, nil
}

// newRouter sends http(s) references to a bounded HTTP fetcher and the rest
// to gcs.
func newRouter(cfg *config.Config, gcs fetcher.Downloader) *fetcher.Router {
	return &fetcher.Router{
		HTTP: fetcher.NewHTTPFetcher(
			fetcher.WithTimeout(cfg.Fetch.Timeout),
			fetcher.WithMaxAttempts(cfg.Fetch.MaxAttempts),
			fetcher.WithMaxBytes(cfg.Fetch.MaxBytes),
		),
		GCS: gcs,
	}
}

// buildSink returns nil when neither a download directory nor a mirror bucket
// is configured.
func buildSink(cfg *config.Config, gcsClient *storage.Client) services.Sink {
	var sinks sink.Multi
	if cfg.DownloadDir != "" {
		sinks = append(sinks, sink.NewLocalSink(cfg.DownloadDir))
	}
	if cfg.MirrorBucket != "" && gcsClient != nil {
		sinks = append(sinks, sink.NewGCSSink(gcsClient, cfg.MirrorBucket, "downloads"))
	}
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}

// Close releases every client in reverse creation order.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close runtime: %w", errors.Join(errs...))
	}
	return nil
}
