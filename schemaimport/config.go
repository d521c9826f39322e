package schemaimport

import (
	tblsconfig "github.com/k1LoW/tbls/config"
)

// Config contains the fully resolved settings for running the schema import pipeline.
type Config struct {
	WorkingDir     string
	TblsConfigPath string
	DocPath        string
	SchemaJSONPath string
	Include        []string
	Exclude        []string
	Verbose        bool

	logger func(format string, args ...any)

	// TblsConfig is nil when the schema JSON path was given explicitly and
	// no tbls config file exists in the working directory.
	TblsConfig *tblsconfig.Config
}

// NewConfig creates a Config from Options, copying the filter slices.
func NewConfig(opts Options) Config {
	return Config{
		WorkingDir:     opts.WorkingDir,
		TblsConfigPath: opts.TblsConfigPath,
		SchemaJSONPath: opts.SchemaJSONPath,
		Include:        append([]string(nil), opts.Include...),
		Exclude:        append([]string(nil), opts.Exclude...),
		Verbose:        opts.Verbose,
		logger:         opts.Logger,
	}
}

// DSN returns the database connection string from the tbls configuration.
func (c Config) DSN() string {
	if c.TblsConfig == nil {
		return ""
	}

	return c.TblsConfig.DSN.URL
}

func (c Config) logf(format string, args ...any) {
	if !c.Verbose || c.logger == nil {
		return
	}

	c.logger(format, args...)
}
