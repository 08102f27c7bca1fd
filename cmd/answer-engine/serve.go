// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/api"
	"github.com/pdiddy/answer-engine/internal/checkpoint"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve starts the answer-engine HTTP API. Sessions are checkpointed to
the configured backend so follow-up questions keep their conversation
history. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg := loadPipelineConfig()
		eng := newEngine(cfg, logger)

		// A broken checkpoint backend degrades to stateless answering
		// instead of refusing to start.
		var store checkpoint.Store
		store, err = checkpoint.New(cfg.Checkpoint, logger)
		if err != nil {
			logger.Warn("checkpoint store unavailable, sessions disabled", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := api.NewServer(eng, eng, store, cfg.Server, logger)
		return server.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
