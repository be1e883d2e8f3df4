// Package main provides the docqa CLI: a per-user document question
// answering service and direct store management commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/registry"
	"github.com/bull/docqa/internal/retrieval"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Per-user document question answering",
	Long: `docqa indexes uploaded documents into per-user vector stores and answers
questions against them using embedding similarity search.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings and answers (required)`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, ingestCmd, searchCmd, askCmd, deleteCmd, listCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the components shared by every command.
type app struct {
	cfg      *config.Config
	manager  *retrieval.Manager
	registry *registry.Registry
	logger   *slog.Logger
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	provider, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}

	logger := slog.Default()
	manager := retrieval.NewManager(cfg.DataDir, provider, cfg.Chunker.ChunkSize, cfg.Chunker.Overlap, logger)

	if err := os.MkdirAll(filepath.Dir(cfg.RegistryPath), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, manager: manager, registry: reg, logger: logger}, nil
}

func (a *app) close() {
	if err := a.registry.Close(); err != nil {
		a.logger.Warn("close registry", "error", err)
	}
}
