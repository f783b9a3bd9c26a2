package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/mediabatchflow/internal/api"
	"github.com/Lllllllleong/mediabatchflow/internal/bootstrap"
	"github.com/Lllllllleong/mediabatchflow/internal/config"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	// Register the HTTP function with the framework.
	// "MediaBatchAPI" is the entry point name configured in GCP.
	functions.HTTP("MediaBatchAPI", mediaBatchAPI)
}

// main is required by the Go Functions Framework.
func main() {}

// mediaBatchAPI serves the batch routes. The runtime is built on first use and
// lives as long as the function instance, so a started run keeps reporting
// progress to later status requests on the same instance.
func mediaBatchAPI(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		slog.SetDefault(cfg.NewLogger())

		var rt *bootstrap.Runtime
		rt, initErr = bootstrap.New(context.Background(), cfg)
		if initErr != nil {
			return
		}
		handler = api.NewHandler(rt.Orchestrator)
	})
	if initErr != nil {
		slog.Error("Critical: batch runtime initialization failed", "error", initErr)
		api.WriteError(w, http.StatusInternalServerError, "failed to initialize service")
		return
	}

	handler.ServeHTTP(w, r)
}
