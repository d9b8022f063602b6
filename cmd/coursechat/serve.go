package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chasingkarma/coursechat/internal/observability"
	"github.com/chasingkarma/coursechat/internal/rag"
	"github.com/chasingkarma/coursechat/internal/server"
	"github.com/chasingkarma/coursechat/pkg/config"
)

func serveCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			observability.InitMetrics()
			if err := observability.InitTracingFromEnv(); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				if err := observability.ShutdownTracing(context.Background()); err != nil {
					log.Printf("Tracing shutdown failed: %v", err)
				}
			}()

			system, err := rag.New(cfg)
			if err != nil {
				return err
			}
			defer system.Shutdown()

			if docsDir != "" {
				if _, err := system.IngestDirectory(ctx, docsDir); err != nil {
					log.Printf("Document ingestion failed: %v", err)
				}
			}

			return server.New(cfg, system).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "directory of course documents to load on startup")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
