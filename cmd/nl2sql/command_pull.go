package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/pull"
)

// PullCmd represents the pull command
type PullCmd struct {
	// Database connection options
	DB     string `help:"Database connection URL (mysql://, postgres://, sqlite://)"`
	Name   string `help:"Database name from the databases section of the configuration"`
	Schema string `help:"Schema to extract (PostgreSQL only)"`

	// Output options
	Output string `short:"o" help:"Output file path" default:"maindata.sql" type:"path"`
	Format string `help:"Output format" default:"sql" enum:"sql,yaml"`

	// Filtering options
	IncludeTables []string `help:"Table patterns to include (can be specified multiple times)"`
	ExcludeTables []string `help:"Table patterns to exclude (can be specified multiple times)"`
}

// Run extracts table metadata from a live database and writes it in the
// schema file format the service loads at startup.
func (p *PullCmd) Run(ctx *Context) error {
	config, err := nl2sql.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	databaseURL, err := p.resolveDatabaseURL(config)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		if info, err := pull.ParseConnectionInfo(databaseURL); err == nil {
			color.Blue("Pulling schema from %s", info.Redacted())
		}

		color.Blue("Output file: %s", p.Output)
	}

	result, err := pull.Pull(context.Background(), pull.PullConfig{
		URL:           databaseURL,
		Schema:        p.Schema,
		IncludeTables: p.IncludeTables,
		ExcludeTables: p.ExcludeTables,
	})
	if err != nil {
		return fmt.Errorf("failed to pull schema: %w", err)
	}

	var output []byte

	switch p.Format {
	case "yaml":
		output, err = pull.MarshalSchemaYAML(result.Schema())
		if err != nil {
			return fmt.Errorf("failed to render schema: %w", err)
		}
	default:
		output = []byte(pull.Render(result.Tables))
	}

	if err := os.WriteFile(p.Output, output, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.Output, err)
	}

	if !ctx.Quiet {
		p.displayResults(result)
	}

	return nil
}

// resolveDatabaseURL picks the connection from --db or a named entry in the
// databases section.
func (p *PullCmd) resolveDatabaseURL(config *nl2sql.Config) (string, error) {
	if p.DB != "" {
		return p.DB, nil
	}

	if p.Name != "" {
		if len(config.Databases) == 0 {
			return "", ErrNoDatabasesConfigured
		}

		db, ok := config.Databases[p.Name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrDatabaseNotFound, p.Name)
		}

		return db.Connection, nil
	}

	return "", ErrMissingDBOrName
}

// displayResults shows the results of the pull operation
func (p *PullCmd) displayResults(result *pull.PullResult) {
	color.Green("✓ Schema extraction completed successfully")
	color.Green("  Database: %s (%s)", result.DatabaseInfo.Name, result.DatabaseInfo.Type)
	color.Green("  Tables: %d", len(result.Tables))
	color.Green("  Output: %s", p.Output)
}
