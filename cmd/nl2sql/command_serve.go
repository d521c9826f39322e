package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/internal/handler"
	"github.com/caresuite/nl2sql/sqlgen"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd represents the serve command
type ServeCmd struct {
	Listen string `help:"HTTP listen address (overrides configuration)"`
}

// Run loads the schema, prepares the vector index and serves the API until
// SIGINT or SIGTERM.
func (cmd *ServeCmd) Run(ctx *Context) error {
	config, err := nl2sql.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.CheckRequired(); err != nil {
		return err
	}

	chunks, err := loadChunks(config)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.Blue("Loaded %d schema chunks from %s", len(chunks), config.Schema.Path)
	}

	client := newLLMClient(config)

	indexer, err := newIndexer(config, client)
	if err != nil {
		return err
	}

	if !ctx.Quiet {
		indexer.Logf = color.Blue
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := indexer.EnsureIndexed(runCtx, chunks); err != nil {
		return fmt.Errorf("failed to prepare vector index: %w", err)
	}

	generator, err := sqlgen.NewGenerator(client, config.Generation.Rules)
	if err != nil {
		return err
	}

	guard, err := newGuard(config)
	if err != nil {
		return err
	}
	defer guard.Close()

	api := handler.New(indexer, generator, guard, chunks, config.Generation.TopK)
	mux := http.NewServeMux()
	api.Register(mux)

	listen := config.Server.Listen
	if cmd.Listen != "" {
		listen = cmd.Listen
	}

	server := &http.Server{
		Addr:    listen,
		Handler: handler.CORSMiddleware(handler.AccessLogMiddleware(handler.RecoverMiddleware(mux))),
	}

	errCh := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if !ctx.Quiet {
		color.Green("nl2sql API listening on %s (validation: %s)", listen, guard.Mode())
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("listen and serve: %w", err)
	case <-runCtx.Done():
	}

	if !ctx.Quiet {
		color.Yellow("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
