package main

import "errors"

// Sentinel errors for command operations
var (
	ErrNoDatabasesConfigured = errors.New("no databases configured")
	ErrDatabaseNotFound      = errors.New("database entry not found")
	ErrMissingDBOrName       = errors.New("either --db or --name must be specified")
	ErrUnknownStoreBackend   = errors.New("unknown store backend")
)
