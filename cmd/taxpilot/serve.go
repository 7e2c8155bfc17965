package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/config"
	"github.com/taxpilot-ai/taxpilot/internal/knowledge"
	"github.com/taxpilot-ai/taxpilot/internal/llm"
	"github.com/taxpilot-ai/taxpilot/internal/pipeline"
	"github.com/taxpilot-ai/taxpilot/internal/server"
	"github.com/taxpilot-ai/taxpilot/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP tax interview service",
		Long: `Start the TaxPilot HTTP service.

The service exposes POST /chat for conversation turns and GET /health for
liveness checks. Session state persists across restarts in SQLite.

Without an inference API key the service still runs: every stage answers
with its built-in scripted text instead of model-phrased replies.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "0.0.0.0", "listen address")
	cmd.Flags().Int("port", 8000, "listen port")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := slog.Default()

	conversation, err := buildConversation(cfg, logger)
	if err != nil {
		return err
	}

	kb := knowledge.NewClient(knowledge.Config{
		BaseURL: cfg.Knowledge.BaseURL,
		APIKey:  cfg.Knowledge.APIKey,
		Timeout: cfg.Knowledge.Timeout,
	})

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("failed to close session store", "error", closeErr)
		}
	}()

	p := pipeline.New(conversation, kb, logger)
	srv := server.New(p, store, logger)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("taxpilot service listening", "addr", addr)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("failed to shut down cleanly: %w", shutdownErr)
		}
		return nil
	case serveErr := <-errChan:
		return fmt.Errorf("service failed: %w", serveErr)
	}
}

func buildConversation(cfg config.Config, logger *slog.Logger) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		logger.Warn("no inference API key configured, using scripted responses")
		return llm.NewUnconfiguredClient(), nil
	}

	client, err := llm.NewGradientClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, common.NewUserError("failed to create conversation client", err)
	}
	return client, nil
}

func buildStore(cfg config.Config) (storage.SessionStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite", "":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, common.NewUserError("failed to open session store", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidConfig, cfg.Storage.Driver)
	}
}
