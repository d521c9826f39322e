package pull

import "errors"

// Connection errors
var (
	ErrEmptyDatabaseURL   = errors.New("database URL cannot be empty")
	ErrInvalidDatabaseURL = errors.New("invalid database URL")
	ErrConnectionFailed   = errors.New("failed to connect to database")
)

// Extraction errors
var (
	ErrNoTables                = errors.New("no tables found in database")
	ErrConflictingTableFilters = errors.New("conflicting table filters: same pattern in both include and exclude lists")
)
