package pull

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caresuite/nl2sql"
)

// Extractor is the database-agnostic schema extraction interface. Extractors
// return columns in ordinal order so rendered DDL is stable across runs.
type Extractor interface {
	ExtractTables(ctx context.Context, db *sql.DB, config ExtractConfig) ([]*nl2sql.TableInfo, error)
	GetDatabaseInfo(ctx context.Context, db *sql.DB) (nl2sql.DatabaseInfo, error)
}

// ExtractConfig contains configuration for schema extraction
type ExtractConfig struct {
	Schema        string   // Schema to extract (PostgreSQL only, defaults to public)
	IncludeTables []string // Table name patterns to include, * wildcards allowed
	ExcludeTables []string // Table name patterns to exclude, * wildcards allowed
}

// NewExtractor creates an extractor for the given dialect
func NewExtractor(dialect nl2sql.Dialect) (Extractor, error) {
	switch dialect {
	case nl2sql.DialectMySQL:
		return &MySQLExtractor{}, nil
	case nl2sql.DialectPostgres:
		return &PostgreSQLExtractor{}, nil
	case nl2sql.DialectSQLite:
		return &SQLiteExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", nl2sql.ErrUnsupportedDialect, string(dialect))
	}
}

// ValidateExtractConfig rejects filter lists that both include and exclude
// the same pattern.
func ValidateExtractConfig(config ExtractConfig) error {
	for _, include := range config.IncludeTables {
		for _, exclude := range config.ExcludeTables {
			if include == exclude {
				return fmt.Errorf("%w: %s", ErrConflictingTableFilters, include)
			}
		}
	}

	return nil
}

// ShouldIncludeTable determines if a table passes the include and exclude filters
func ShouldIncludeTable(tableName string, includeTables, excludeTables []string) bool {
	// If explicitly excluded, don't include
	for _, exclude := range excludeTables {
		if MatchWildcard(exclude, tableName) {
			return false
		}
	}

	// If include list is specified, only include if in the list
	if len(includeTables) > 0 {
		for _, include := range includeTables {
			if MatchWildcard(include, tableName) {
				return true
			}
		}

		return false
	}

	// If no include list and not excluded, include
	return true
}

// MatchWildcard performs simple wildcard matching with the * character
func MatchWildcard(pattern, text string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == text
	}

	matched, err := filepath.Match(pattern, text)
	if err != nil {
		// If pattern is invalid, fall back to exact match
		return pattern == text
	}

	return matched
}
