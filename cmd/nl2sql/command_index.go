package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql"
)

// IndexCmd represents the index command
type IndexCmd struct {
	Recreate bool `help:"Delete and rebuild the vector index"`
}

// Run ensures the vector index exists and holds one vector per schema chunk.
func (cmd *IndexCmd) Run(ctx *Context) error {
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

	if cmd.Recreate {
		err = indexer.Reindex(runCtx, chunks)
	} else {
		err = indexer.EnsureIndexed(runCtx, chunks)
	}

	if err != nil {
		return fmt.Errorf("failed to populate index: %w", err)
	}

	if !ctx.Quiet {
		color.Green("✓ Vector index ready (%d schema chunks)", len(chunks))
	}

	return nil
}
