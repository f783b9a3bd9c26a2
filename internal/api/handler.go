// Package api exposes the batch orchestrator over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

const (
	StartPath   = "/batch-process-users"
	StatusPath  = "/batch-process-status"
	ResultsPath = "/batch-process-results"
	HealthPath  = "/health"
)

// Runner is the part of services.Orchestrator the HTTP surface needs.
type Runner interface {
	Start() (bool, models.JobStatus)
	Status() models.JobStatus
	Result() (*models.BatchResult, models.JobStatus)
}

// NewHandler returns the routes of the batch API.
func NewHandler(runner Runner) http.Handler {
	h := &handler{runner: runner}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+StartPath, h.start)
	mux.HandleFunc("GET "+StatusPath, h.status)
	mux.HandleFunc("GET "+ResultsPath, h.results)
	mux.HandleFunc("GET "+HealthPath, h.health)
	return mux
}

type handler struct {
	runner Runner
}

// start never waits for the run: it only performs the in-progress check.
func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	started, status := h.runner.Start()
	if !started {
		writeJSON(w, http.StatusOK, models.StartBatchResponse{
			Message:          "Batch processing already in progress",
			Status:           status,
			ProgressEndpoint: StatusPath,
		})
		return
	}
	slog.Info("Batch run accepted.", "runId", status.RunID, "remoteAddr", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, models.StartBatchResponse{
		Message:          "Batch processing started",
		Status:           status,
		ProgressEndpoint: StatusPath,
	})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Status())
}

func (h *handler) results(w http.ResponseWriter, _ *http.Request) {
	result, status := h.runner.Result()
	if result != nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// WriteError writes an ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, models.ErrorResponse{Error: msg})
}
