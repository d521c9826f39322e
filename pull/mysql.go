package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/caresuite/nl2sql"
)

// MySQLExtractor reads table metadata from information_schema.
type MySQLExtractor struct{}

const mysqlTablesQuery = `
	SELECT TABLE_NAME, TABLE_COMMENT
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`

const mysqlColumnsQuery = `
	SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT, EXTRA,
	       CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE, COLUMN_COMMENT
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION`

const mysqlConstraintsQuery = `
	SELECT tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE, kcu.COLUMN_NAME,
	       kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME
	FROM information_schema.TABLE_CONSTRAINTS tc
	LEFT JOIN information_schema.KEY_COLUMN_USAGE kcu
		ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		AND tc.TABLE_NAME = kcu.TABLE_NAME
	WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
	  AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
	ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

const mysqlIndexesQuery = `
	SELECT INDEX_NAME, NON_UNIQUE, SEQ_IN_INDEX, COLUMN_NAME, INDEX_TYPE
	FROM information_schema.STATISTICS
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	ORDER BY INDEX_NAME, SEQ_IN_INDEX`

// ExtractTables extracts all tables from the connected database. MySQL uses
// the current database as the schema; config.Schema overrides it.
func (e *MySQLExtractor) ExtractTables(ctx context.Context, db *sql.DB, config ExtractConfig) ([]*nl2sql.TableInfo, error) {
	schema := config.Schema
	if schema == "" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schema); err != nil {
			return nil, e.HandleDatabaseError(err)
		}
	}

	rows, err := db.QueryContext(ctx, mysqlTablesQuery, schema)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var tables []*nl2sql.TableInfo

	for rows.Next() {
		var (
			name    string
			comment sql.NullString
		)

		if err := rows.Scan(&name, &comment); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		if !ShouldIncludeTable(name, config.IncludeTables, config.ExcludeTables) {
			continue
		}

		tables = append(tables, &nl2sql.TableInfo{
			Name:    name,
			Schema:  schema,
			Comment: comment.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	for _, table := range tables {
		if table.Columns, err = e.extractColumns(ctx, db, schema, table.Name); err != nil {
			return nil, err
		}

		if table.Constraints, err = e.extractConstraints(ctx, db, schema, table.Name); err != nil {
			return nil, err
		}

		if table.Indexes, err = e.extractIndexes(ctx, db, schema, table.Name); err != nil {
			return nil, err
		}
	}

	return tables, nil
}

func (e *MySQLExtractor) extractColumns(ctx context.Context, db *sql.DB, schema, table string) ([]*nl2sql.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, mysqlColumnsQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var columns []*nl2sql.ColumnInfo

	for rows.Next() {
		var (
			name, columnType, isNullable, columnKey string
			columnDefault, extra, comment           sql.NullString
			maxLength, precision, scale             sql.NullInt64
		)

		err := rows.Scan(&name, &columnType, &isNullable, &columnKey,
			&columnDefault, &extra, &maxLength, &precision, &scale, &comment)
		if err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		col := &nl2sql.ColumnInfo{
			Name:         name,
			Type:         columnType,
			Nullable:     isNullable == "YES",
			IsPrimaryKey: columnKey == "PRI",
			Comment:      comment.String,
		}

		if strings.Contains(extra.String, "auto_increment") {
			col.DefaultValue = autoIncrementDefault
		} else if columnDefault.Valid {
			col.DefaultValue = e.ParseDefaultValue(columnDefault.String)
		}

		if maxLength.Valid {
			v := int(maxLength.Int64)
			col.MaxLength = &v
		}

		if precision.Valid {
			v := int(precision.Int64)
			col.Precision = &v
		}

		if scale.Valid {
			v := int(scale.Int64)
			col.Scale = &v
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return columns, nil
}

func (e *MySQLExtractor) extractConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]nl2sql.ConstraintInfo, error) {
	rows, err := db.QueryContext(ctx, mysqlConstraintsQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var order []string

	byName := map[string]*nl2sql.ConstraintInfo{}

	for rows.Next() {
		var (
			name, constraintType            string
			columnName, refTable, refColumn sql.NullString
		)

		if err := rows.Scan(&name, &constraintType, &columnName, &refTable, &refColumn); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		constraint, ok := byName[name]
		if !ok {
			constraint = &nl2sql.ConstraintInfo{
				Name: name,
				Type: nl2sql.ParseConstraintType(constraintType),
			}
			byName[name] = constraint
			order = append(order, name)
		}

		if columnName.Valid {
			constraint.Columns = append(constraint.Columns, columnName.String)
		}

		if refTable.Valid {
			constraint.ReferencedTable = refTable.String
		}

		if refColumn.Valid {
			constraint.ReferencedColumns = append(constraint.ReferencedColumns, refColumn.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	constraints := make([]nl2sql.ConstraintInfo, 0, len(order))
	for _, name := range order {
		constraints = append(constraints, *byName[name])
	}

	return constraints, nil
}

func (e *MySQLExtractor) extractIndexes(ctx context.Context, db *sql.DB, schema, table string) ([]nl2sql.IndexInfo, error) {
	rows, err := db.QueryContext(ctx, mysqlIndexesQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var order []string

	byName := map[string]*nl2sql.IndexInfo{}

	for rows.Next() {
		var (
			name, columnName, indexType string
			nonUnique, seqInIndex       int
		)

		if err := rows.Scan(&name, &nonUnique, &seqInIndex, &columnName, &indexType); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		// The primary key index is reported as a constraint
		if name == "PRIMARY" {
			continue
		}

		index, ok := byName[name]
		if !ok {
			index = &nl2sql.IndexInfo{
				Name:     name,
				IsUnique: nonUnique == 0,
				Type:     strings.ToLower(indexType),
			}
			byName[name] = index
			order = append(order, name)
		}

		// Rows arrive ordered by SEQ_IN_INDEX
		index.Columns = append(index.Columns, columnName)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	indexes := make([]nl2sql.IndexInfo, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}

	return indexes, nil
}

// GetDatabaseInfo extracts database information
func (e *MySQLExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (nl2sql.DatabaseInfo, error) {
	var version, dbName, charset string

	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return nl2sql.DatabaseInfo{}, e.HandleDatabaseError(err)
	}

	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return nl2sql.DatabaseInfo{}, e.HandleDatabaseError(err)
	}

	if err := db.QueryRowContext(ctx, "SELECT @@character_set_database").Scan(&charset); err != nil {
		// If charset query fails, use default
		charset = "utf8mb4"
	}

	return nl2sql.DatabaseInfo{
		Type:    "mysql",
		Version: version,
		Name:    dbName,
		Charset: charset,
	}, nil
}

// ParseDefaultValue parses MySQL default values
func (e *MySQLExtractor) ParseDefaultValue(defaultValue string) string {
	switch strings.ToUpper(defaultValue) {
	// MariaDB reports current_timestamp() with parentheses
	case "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP()", "NOW()":
		return "CURRENT_TIMESTAMP"
	case "NULL":
		return ""
	default:
		// Remove quotes if present
		if strings.HasPrefix(defaultValue, "'") && strings.HasSuffix(defaultValue, "'") {
			return strings.Trim(defaultValue, "'")
		}
		return defaultValue
	}
}

// HandleDatabaseError converts MySQL-specific errors to standard errors
func (e *MySQLExtractor) HandleDatabaseError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection"):
		return fmt.Errorf("connection error: %w", err)
	case strings.Contains(errStr, "doesn't exist"):
		return fmt.Errorf("schema not found: %w", err)
	case strings.Contains(errStr, "Access denied"):
		return fmt.Errorf("permission denied: %w", err)
	default:
		return fmt.Errorf("query execution failed: %w", err)
	}
}
