package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// CLI represents the command-line interface
var CLI struct {
	Config   string      `help:"Configuration file path" default:"nl2sql.yaml"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP API server"`
	Index    IndexCmd    `cmd:"" help:"Populate the schema vector index"`
	Search   SearchCmd   `cmd:"" help:"Retrieve the schema chunks most relevant to a question"`
	Generate GenerateCmd `cmd:"" help:"Generate SQL for a question without starting the server"`
	Pull     PullCmd     `cmd:"" help:"Pull schema DDL from a live database"`
	Import   ImportCmd   `cmd:"" help:"Import a tbls schema.json file and render schema DDL"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Println("nl2sql v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	// Create context with config path
	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
