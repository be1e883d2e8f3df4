package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document QA HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Answer generation is optional at startup: without it /ask returns 503
	// while upload, delete and search keep working.
	generator, err := answer.New(app.cfg.Answer)
	if err != nil {
		app.logger.Warn("answer generation disabled", "error", err)
		generator = nil
	}

	srv := server.New(server.Config{
		Manager:   app.manager,
		Registry:  app.registry,
		Generator: generator,
		UploadDir: app.cfg.UploadDir,
		TopK:      app.cfg.Search.TopK,
		Logger:    app.logger,
	})

	httpServer := &http.Server{
		Addr:    app.cfg.ListenAddr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("listening", "addr", app.cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	app.logger.Info("server stopped")
	return nil
}
