package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
	"github.com/Lllllllleong/mediabatchflow/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingStore holds ListUsers until release is closed.
type blockingStore struct {
	release chan struct{}
	users   []models.UserRecord
}

func (s *blockingStore) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	select {
	case <-s.release:
		return s.users, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingStore) GetMetadata(context.Context, models.MediaKind, string) (*models.MediaMetadata, error) {
	return nil, nil
}

type nopFetcher struct{}

func (nopFetcher) Download(context.Context, string) ([]byte, error) { return nil, nil }

func newTestServer(t *testing.T) (*httptest.Server, *services.Orchestrator, *blockingStore) {
	t.Helper()
	store := &blockingStore{release: make(chan struct{}), users: []models.UserRecord{{ID: "u1", Email: "a@example.com"}}}
	users := services.NewUserProcessor(services.NewItemProcessor(store, nopFetcher{}))
	orch := services.NewOrchestrator(store, users)
	srv := httptest.NewServer(NewHandler(orch))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})
	return srv, orch, store
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + HealthPath)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[models.HealthResponse](t, resp).Status)
}

func TestStatus_Idle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + StatusPath)
	require.NoError(t, err)
	status := decode[models.JobStatus](t, resp)
	assert.Equal(t, models.StateIdle, status.State)
	assert.Empty(t, status.Errors)
}

func TestStart_AcceptsThenReportsInProgress(t *testing.T) {
	srv, orch, store := newTestServer(t)

	resp, err := http.Post(srv.URL+StartPath, "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	first := decode[models.StartBatchResponse](t, resp)
	assert.Equal(t, models.StateProcessing, first.Status.State)
	assert.Equal(t, StatusPath, first.ProgressEndpoint)
	require.NotEmpty(t, first.Status.RunID)

	resp, err = http.Post(srv.URL+StartPath, "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[models.StartBatchResponse](t, resp)
	assert.Equal(t, "Batch processing already in progress", second.Message)
	assert.Equal(t, first.Status.RunID, second.Status.RunID)

	close(store.release)
	orch.Wait()

	resp, err = http.Get(srv.URL + ResultsPath)
	require.NoError(t, err)
	result := decode[models.BatchResult](t, resp)
	assert.Equal(t, first.Status.RunID, result.RunID)
	assert.Equal(t, models.StateCompleted, result.Status)
	assert.Equal(t, 1, result.TotalUsersProcessed)
	assert.Equal(t, 1, result.SuccessfulUsers)
}

func TestStart_ConcurrentRequestsStartOneRun(t *testing.T) {
	srv, orch, store := newTestServer(t)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+StartPath, "application/json", nil)
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}()
	}
	wg.Wait()
	close(store.release)
	orch.Wait()

	accepted := 0
	for _, c := range codes {
		if c == http.StatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestResults_BeforeCompletionReturnsStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+StartPath, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + ResultsPath)
	require.NoError(t, err)
	status := decode[models.JobStatus](t, resp)
	assert.Equal(t, models.StateProcessing, status.State)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + StartPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusInternalServerError, "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}
