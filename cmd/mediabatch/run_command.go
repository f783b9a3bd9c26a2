package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/mediabatchflow/internal/bootstrap"
	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one batch in the foreground and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil {
					slog.Error("Failed to close runtime", "error", cerr)
				}
			}()

			return runBatch(cmd.Context(), rt.Orchestrator, cmd.OutOrStdout())
		},
	}
}

type batchRunner interface {
	Run(ctx context.Context) (*models.BatchResult, error)
}

// runBatch fails only when the run itself failed. A completed run with failed
// users is partial success and exits zero.
func runBatch(ctx context.Context, runner batchRunner, out io.Writer) error {
	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderSummary(result))
	return nil
}

func renderSummary(result *models.BatchResult) string {
	rows := make([][]string, 0, len(result.UserResults))
	for _, u := range result.UserResults {
		rows = append(rows, []string{
			u.UserEmail,
			strconv.Itoa(u.ImagesCount),
			strconv.Itoa(u.VoicesCount),
			strconv.Itoa(u.VariationsGenerated),
			strconv.Itoa(u.SignaturesGenerated),
			humanize.Bytes(uint64(u.TotalSizeBytes)),
			strconv.Itoa(len(u.Errors)),
		})
	}

	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"User", "Images", "Voices", "Variations", "Signatures", "Size", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintf(&b, "\nRun %s %s: %d succeeded, %d failed, %d files, %s in %.1fs\n",
		result.RunID,
		result.Status,
		result.SuccessfulUsers,
		result.FailedUsers,
		result.TotalFilesDownloaded,
		humanize.Bytes(uint64(result.TotalSizeBytes)),
		result.ProcessingTimeSeconds,
	)
	for _, e := range result.GlobalErrors {
		fmt.Fprintf(&b, "  ! %s\n", e)
	}
	return b.String()
}
