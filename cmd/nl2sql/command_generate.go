package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/sqlgen"
)

// GenerateCmd represents the generate command
type GenerateCmd struct {
	Question       string `arg:"" help:"Natural language question"`
	RosterID       *int   `help:"Roster scope for the generated query"`
	ClientID       *int   `help:"Client scope for the generated query"`
	SkipValidation bool   `help:"Skip the configured SQL validation"`
}

// Run executes the full question-to-SQL pipeline once and prints the result.
// The SQL goes to stdout bare so it can be piped into other tools.
func (cmd *GenerateCmd) Run(ctx *Context) error {
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

	scored, err := indexer.Search(runCtx, cmd.Question, config.Generation.TopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if ctx.Verbose {
		for i, chunk := range scored {
			color.Cyan("%d. %s (score %.4f)", i+1, chunk.Table, chunk.Score)
		}
	}

	generator, err := sqlgen.NewGenerator(client, config.Generation.Rules)
	if err != nil {
		return err
	}

	sqlText, err := generator.Generate(runCtx, sqlgen.Request{
		Question: cmd.Question,
		RosterID: cmd.RosterID,
		ClientID: cmd.ClientID,
		Chunks:   scored,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if !cmd.SkipValidation {
		guard, err := newGuard(config)
		if err != nil {
			return err
		}
		defer guard.Close()

		if err := guard.Check(runCtx, sqlText); err != nil {
			return err
		}
	}

	fmt.Println(sqlText)

	return nil
}
