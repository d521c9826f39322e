package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql"
)

// SearchCmd represents the search command
type SearchCmd struct {
	Question string `arg:"" help:"Natural language question"`
	TopK     int    `help:"Number of chunks to retrieve (overrides configuration)"`
	JSON     bool   `help:"Print results as JSON"`
}

// Run retrieves the schema chunks most similar to the question, without
// generating SQL.
func (cmd *SearchCmd) Run(ctx *Context) error {
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

	if ctx.Verbose {
		indexer.Logf = color.Blue
	}

	runCtx := context.Background()

	if err := indexer.EnsureIndexed(runCtx, chunks); err != nil {
		return fmt.Errorf("failed to prepare vector index: %w", err)
	}

	topK := config.Generation.TopK
	if cmd.TopK > 0 {
		topK = cmd.TopK
	}

	results, err := indexer.Search(runCtx, cmd.Question, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	}

	for i, chunk := range results {
		color.Cyan("%d. %s (score %.4f)", i+1, chunk.Table, chunk.Score)

		if ctx.Verbose {
			fmt.Println(chunk.Text)
			fmt.Println()
		}
	}

	return nil
}
