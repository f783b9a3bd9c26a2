package main

import (
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/mediabatchflow/internal/config"
)

type commandContext struct {
	concurrency *int
	logLevel    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// ensureConfig loads the environment once and applies flag overrides.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Batch.UserConcurrency = *c.concurrency
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = *c.logLevel
		}
		cfg.Sanitize()
		slog.SetDefault(cfg.NewLogger())
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var concurrency int
	var logLevel string
	ctx := &commandContext{concurrency: &concurrency, logLevel: &logLevel}

	rootCmd := &cobra.Command{
		Use:           "mediabatch",
		Short:         "Download user media from Firestore and Cloud Storage in batches",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 1, "Number of users processed at once")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	return rootCmd
}
