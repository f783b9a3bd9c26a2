package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const sideEffectTimeout = 30 * time.Second

// Orchestrator drives batch runs over every user in the record store. At most
// one run is active per Orchestrator; the shared StatusStore is the lock.
type Orchestrator struct {
	records     RecordStore
	users       *UserProcessor
	status      *StatusStore
	archive     RunArchive
	notifier    CompletionNotifier
	concurrency int
	now         func() time.Time
	newRunID    func() string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency sets how many users are processed at once.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.concurrency = max(n, 1) }
}

// WithStatusStore shares an existing StatusStore.
func WithStatusStore(s *StatusStore) OrchestratorOption {
	return func(o *Orchestrator) { o.status = s }
}

// WithArchive records run lifecycle events.
func WithArchive(a RunArchive) OrchestratorOption {
	return func(o *Orchestrator) { o.archive = a }
}

// WithNotifier hands completed runs to downstream processing.
func WithNotifier(n CompletionNotifier) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an Orchestrator with an idle status.
func NewOrchestrator(records RecordStore, users *UserProcessor, opts ...OrchestratorOption) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		records:     records,
		users:       users,
		concurrency: 1,
		now:         time.Now,
		newRunID:    uuid.NewString,
		baseCtx:     ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.status == nil {
		o.status = NewStatusStore()
	}
	return o
}

// Start launches a run in the background unless one is already processing, in
// which case it reports the in-flight progress and does nothing else.
func (o *Orchestrator) Start() (bool, models.JobStatus) {
	status, ok := o.status.TryBegin(o.newRunID(), o.now())
	if !ok {
		slog.Info("Batch run already in progress. Start ignored.", "runId", status.RunID, "processedUsers", status.ProcessedUsers, "totalUsers", status.TotalUsers)
		return false, status
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// Errors are recorded on the status store and logged inside execute.
		_, _ = o.execute(o.baseCtx, status)
	}()
	return true, status
}

// Run executes a batch synchronously. It returns ErrBatchInProgress when
// another run holds the status store.
func (o *Orchestrator) Run(ctx context.Context) (*models.BatchResult, error) {
	status, ok := o.status.TryBegin(o.newRunID(), o.now())
	if !ok {
		return nil, ErrBatchInProgress
	}
	o.wg.Add(1)
	defer o.wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(o.baseCtx, cancel)
	defer stop()

	return o.execute(runCtx, status)
}

// Status returns a copy of the current JobStatus.
func (o *Orchestrator) Status() models.JobStatus {
	return o.status.Get()
}

// Result returns the last BatchResult when the job is completed, and the
// current status either way.
func (o *Orchestrator) Result() (*models.BatchResult, models.JobStatus) {
	result, _ := o.status.Result()
	return result, o.status.Get()
}

// Wait blocks until no run is executing.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels any in-flight run and waits for it to record its terminal
// state, or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) execute(ctx context.Context, status models.JobStatus) (*models.BatchResult, error) {
	logCtx := slog.With("runId", status.RunID)
	logCtx.Info("Starting batch run.", "concurrency", o.concurrency)
	o.recordStart(ctx, logCtx, status)

	users, err := o.records.ListUsers(ctx)
	if err != nil {
		return nil, o.handleFailure(ctx, logCtx, fmt.Errorf("%w: %w", ErrBatchListing, err))
	}
	o.status.Update(func(s *models.JobStatus) { s.TotalUsers = len(users) })
	logCtx.Info("Users listed.", "totalUsers", len(users))

	results := make([]models.UserResult, len(users))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, user := range users {
		if ctx.Err() != nil {
			break
		}
		// Go blocks at the limit, so a queued user may start after cancellation.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = o.processUser(ctx, logCtx, user)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, o.handleFailure(ctx, logCtx, fmt.Errorf("%w: %w", ErrBatchCancelled, err))
	}

	result := aggregate(o.status.Get(), results, o.now())
	o.status.Complete(result)
	logCtx.Info("Batch run completed.",
		"successfulUsers", result.SuccessfulUsers,
		"failedUsers", result.FailedUsers,
		"filesDownloaded", result.TotalFilesDownloaded,
		"totalSizeBytes", result.TotalSizeBytes,
		"seconds", result.ProcessingTimeSeconds,
	)
	o.recordCompletion(ctx, logCtx, result)
	return result, nil
}

// processUser isolates one user: a failure here becomes a synthetic result and a
// JobStatus error, and the batch moves on.
func (o *Orchestrator) processUser(ctx context.Context, logCtx *slog.Logger, user models.UserRecord) models.UserResult {
	label := userLabel(user)
	o.status.Update(func(s *models.JobStatus) { s.CurrentUser = &label })

	result, err := o.safeProcess(ctx, user)
	if err != nil {
		msg := fmt.Sprintf("Error processing user %s: %v", label, err)
		logCtx.Error("User processing failed.", "user", label, "error", err)
		result = models.UserResult{UserEmail: user.Email, Errors: []string{err.Error()}}
		o.status.Update(func(s *models.JobStatus) {
			s.Errors = append(s.Errors, msg)
			s.ProcessedUsers++
		})
		return result
	}

	o.status.Update(func(s *models.JobStatus) { s.ProcessedUsers++ })
	return result
}

func (o *Orchestrator) safeProcess(ctx context.Context, user models.UserRecord) (result models.UserResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrUserProcessing, r)
		}
	}()
	return o.users.Process(ctx, user)
}

func (o *Orchestrator) handleFailure(ctx context.Context, logCtx *slog.Logger, err error) error {
	logCtx.Error("Batch run failed.", "error", err)
	o.status.Fail(fmt.Sprintf("Batch processing failed: %v", err))
	if o.archive != nil {
		actx, cancel := sideEffectContext(ctx)
		defer cancel()
		if aerr := o.archive.RecordFailure(actx, o.status.Get()); aerr != nil {
			logCtx.Error("Failed to archive run failure.", "error", aerr)
		}
	}
	return err
}

func (o *Orchestrator) recordStart(ctx context.Context, logCtx *slog.Logger, status models.JobStatus) {
	if o.archive == nil {
		return
	}
	actx, cancel := sideEffectContext(ctx)
	defer cancel()
	if err := o.archive.RecordStart(actx, status); err != nil {
		logCtx.Warn("Failed to archive run start.", "error", err)
	}
}

func (o *Orchestrator) recordCompletion(ctx context.Context, logCtx *slog.Logger, result *models.BatchResult) {
	actx, cancel := sideEffectContext(ctx)
	defer cancel()
	if o.archive != nil {
		if err := o.archive.RecordCompletion(actx, result); err != nil {
			logCtx.Error("Failed to archive run completion.", "error", err)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.NotifyCompleted(actx, result); err != nil {
			logCtx.Error("Failed to notify run completion.", "error", err)
		}
	}
}

// sideEffectContext outlives cancellation of the run so terminal states are
// still recorded.
func sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func userLabel(user models.UserRecord) string {
	if user.Email != "" {
		return user.Email
	}
	return user.ID
}
