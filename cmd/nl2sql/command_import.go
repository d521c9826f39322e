package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql/pull"
	"github.com/caresuite/nl2sql/schemaimport"
)

// ImportCmd represents the import command
type ImportCmd struct {
	SchemaJSON string `help:"Path to a tbls schema.json file" type:"path"`
	TblsConfig string `help:"Path to a .tbls.yml configuration file" type:"path"`

	Output string `short:"o" help:"Output file path" default:"maindata.sql" type:"path"`

	Include []string `help:"Table patterns to include (can be specified multiple times)"`
	Exclude []string `help:"Table patterns to exclude (can be specified multiple times)"`
}

// Run converts a tbls schema document into the schema file format the
// service loads at startup.
func (cmd *ImportCmd) Run(ctx *Context) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	opts := schemaimport.Options{
		WorkingDir:     workingDir,
		TblsConfigPath: cmd.TblsConfig,
		SchemaJSONPath: cmd.SchemaJSON,
		Include:        cmd.Include,
		Exclude:        cmd.Exclude,
		Verbose:        ctx.Verbose,
	}
	if ctx.Verbose {
		opts.Logger = color.Blue
	}

	schema, err := schemaimport.Import(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("failed to import schema: %w", err)
	}

	ddl := pull.Render(schema.Tables)

	if err := os.WriteFile(cmd.Output, []byte(ddl), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.Output, err)
	}

	if !ctx.Quiet {
		color.Green("✓ Schema import completed successfully")
		color.Green("  Tables: %d", len(schema.Tables))
		color.Green("  Output: %s", cmd.Output)
	}

	return nil
}
