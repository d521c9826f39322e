package nl2sql

import "errors"

// Common errors used throughout the nl2sql package
var (
	// Dialect errors

	// ErrUnsupportedDialect indicates a database dialect this service cannot talk to.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")

	// Configuration errors

	// ErrMissingRequired is returned when required credentials are absent from
	// both the configuration file and the environment.
	ErrMissingRequired = errors.New("missing required environment variables")
	// ErrConfigValidation indicates the configuration file is structurally valid
	// YAML but fails a semantic check.
	ErrConfigValidation = errors.New("configuration validation failed")

	// Schema errors

	// ErrEmptySchema indicates that a schema source yielded no tables at all.
	ErrEmptySchema = errors.New("no tables found in schema source")
)
