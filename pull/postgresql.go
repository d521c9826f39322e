package pull

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/caresuite/nl2sql"
)

// PostgreSQLExtractor reads table metadata from information_schema and the
// pg_catalog comment functions.
type PostgreSQLExtractor struct{}

const postgresDefaultSchema = "public"

const postgresTablesQuery = `
	SELECT t.table_name, obj_description(c.oid, 'pg_class') AS comment
	FROM information_schema.tables t
	JOIN pg_class c ON c.relname = t.table_name
	JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = t.table_schema
	WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
	ORDER BY t.table_name`

const postgresColumnsQuery = `
	SELECT col.column_name, col.data_type, col.is_nullable, col.column_default,
	       col.character_maximum_length, col.numeric_precision, col.numeric_scale,
	       col_description(c.oid, col.ordinal_position) AS comment
	FROM information_schema.columns col
	JOIN pg_class c ON c.relname = col.table_name
	JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = col.table_schema
	WHERE col.table_schema = $1 AND col.table_name = $2
	ORDER BY col.ordinal_position`

const postgresConstraintsQuery = `
	SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.table_schema = tc.table_schema
	WHERE tc.table_schema = $1 AND tc.table_name = $2
	  AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
	ORDER BY tc.constraint_name, kcu.ordinal_position`

const postgresReferencesQuery = `
	SELECT tc.constraint_name, ccu.table_name, ccu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.constraint_column_usage ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.table_schema = $1 AND tc.table_name = $2
	  AND tc.constraint_type = 'FOREIGN KEY'
	ORDER BY tc.constraint_name`

const postgresIndexesQuery = `
	SELECT i.relname AS index_name,
	       string_agg(a.attname, ',' ORDER BY a.attnum) AS columns,
	       ix.indisunique AS is_unique,
	       am.amname AS index_type
	FROM pg_class t
	JOIN pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_index ix ON t.oid = ix.indrelid
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN pg_am am ON i.relam = am.oid
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
	WHERE n.nspname = $1 AND t.relname = $2 AND NOT ix.indisprimary
	GROUP BY i.relname, ix.indisunique, am.amname
	ORDER BY i.relname`

// ExtractTables extracts all tables from one PostgreSQL schema.
func (e *PostgreSQLExtractor) ExtractTables(ctx context.Context, db *sql.DB, config ExtractConfig) ([]*nl2sql.TableInfo, error) {
	schema := config.Schema
	if schema == "" {
		schema = postgresDefaultSchema
	}

	rows, err := db.QueryContext(ctx, postgresTablesQuery, schema)
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

		// information_schema.columns carries no primary key flag, so mark
		// the columns named by the PRIMARY KEY constraint.
		for _, constraint := range table.Constraints {
			if constraint.Type != nl2sql.ConstraintPrimaryKey {
				continue
			}
			for _, name := range constraint.Columns {
				if col := table.Column(name); col != nil {
					col.IsPrimaryKey = true
				}
			}
		}
	}

	return tables, nil
}

func (e *PostgreSQLExtractor) extractColumns(ctx context.Context, db *sql.DB, schema, table string) ([]*nl2sql.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, postgresColumnsQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var columns []*nl2sql.ColumnInfo

	for rows.Next() {
		var (
			name, dataType, isNullable  string
			columnDefault, comment      sql.NullString
			maxLength, precision, scale sql.NullInt64
		)

		err := rows.Scan(&name, &dataType, &isNullable, &columnDefault,
			&maxLength, &precision, &scale, &comment)
		if err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		col := &nl2sql.ColumnInfo{
			Name:     name,
			Type:     composePostgresType(dataType, maxLength, precision, scale),
			Nullable: isNullable == "YES",
			Comment:  comment.String,
		}

		if columnDefault.Valid {
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

func (e *PostgreSQLExtractor) extractConstraints(ctx context.Context, db *sql.DB, schema, table string) ([]nl2sql.ConstraintInfo, error) {
	rows, err := db.QueryContext(ctx, postgresConstraintsQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var order []string

	byName := map[string]*nl2sql.ConstraintInfo{}

	for rows.Next() {
		var name, constraintType, columnName string

		if err := rows.Scan(&name, &constraintType, &columnName); err != nil {
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

		constraint.Columns = append(constraint.Columns, columnName)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	// Foreign key targets come from constraint_column_usage in a second
	// pass; joining it onto the column query multiplies rows.
	refRows, err := db.QueryContext(ctx, postgresReferencesQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer refRows.Close()

	for refRows.Next() {
		var name, refTable, refColumn string

		if err := refRows.Scan(&name, &refTable, &refColumn); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		if constraint, ok := byName[name]; ok {
			constraint.ReferencedTable = refTable
			constraint.ReferencedColumns = append(constraint.ReferencedColumns, refColumn)
		}
	}

	if err := refRows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	constraints := make([]nl2sql.ConstraintInfo, 0, len(order))
	for _, name := range order {
		constraints = append(constraints, *byName[name])
	}

	return constraints, nil
}

func (e *PostgreSQLExtractor) extractIndexes(ctx context.Context, db *sql.DB, schema, table string) ([]nl2sql.IndexInfo, error) {
	rows, err := db.QueryContext(ctx, postgresIndexesQuery, schema, table)
	if err != nil {
		return nil, e.HandleDatabaseError(err)
	}
	defer rows.Close()

	var indexes []nl2sql.IndexInfo

	for rows.Next() {
		var (
			name, columnsStr, indexType string
			isUnique                    bool
		)

		if err := rows.Scan(&name, &columnsStr, &isUnique, &indexType); err != nil {
			return nil, e.HandleDatabaseError(err)
		}

		index := nl2sql.IndexInfo{
			Name:     name,
			IsUnique: isUnique,
			Type:     strings.ToLower(indexType),
		}
		for _, col := range strings.Split(columnsStr, ",") {
			index.Columns = append(index.Columns, strings.TrimSpace(col))
		}

		indexes = append(indexes, index)
	}

	if err := rows.Err(); err != nil {
		return nil, e.HandleDatabaseError(err)
	}

	return indexes, nil
}

// GetDatabaseInfo extracts database information
func (e *PostgreSQLExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (nl2sql.DatabaseInfo, error) {
	var version, dbName, charset string

	err := db.QueryRowContext(ctx, "SELECT version(), current_database()").Scan(&version, &dbName)
	if err != nil {
		return nl2sql.DatabaseInfo{}, e.HandleDatabaseError(err)
	}

	encodingQuery := "SELECT pg_encoding_to_char(encoding) FROM pg_database WHERE datname = current_database()"
	if err := db.QueryRowContext(ctx, encodingQuery).Scan(&charset); err != nil {
		charset = "UTF8"
	}

	return nl2sql.DatabaseInfo{
		Type:    "postgres",
		Version: version,
		Name:    dbName,
		Charset: charset,
	}, nil
}

// composePostgresType folds length, precision and scale back into the
// declared type so rendered DDL reads like the original definition.
func composePostgresType(dataType string, maxLength, precision, scale sql.NullInt64) string {
	switch dataType {
	case "character varying":
		if maxLength.Valid {
			return fmt.Sprintf("varchar(%d)", maxLength.Int64)
		}
		return "varchar"
	case "character":
		if maxLength.Valid {
			return fmt.Sprintf("char(%d)", maxLength.Int64)
		}
		return "char"
	case "numeric", "decimal":
		if precision.Valid && scale.Valid && scale.Int64 > 0 {
			return fmt.Sprintf("numeric(%d,%d)", precision.Int64, scale.Int64)
		}
		if precision.Valid {
			return fmt.Sprintf("numeric(%d)", precision.Int64)
		}
		return "numeric"
	case "timestamp without time zone":
		return "timestamp"
	case "timestamp with time zone":
		return "timestamptz"
	case "time without time zone":
		return "time"
	case "time with time zone":
		return "timetz"
	default:
		return dataType
	}
}

// ParseDefaultValue parses PostgreSQL default values
func (e *PostgreSQLExtractor) ParseDefaultValue(defaultValue string) string {
	value := strings.TrimSpace(defaultValue)
	if value == "" {
		return ""
	}

	// Sequence-backed columns render as AUTO_INCREMENT
	if strings.HasPrefix(value, "nextval(") {
		return autoIncrementDefault
	}

	// Strip type casts like 'active'::character varying
	if strings.Contains(value, "::") {
		value = strings.TrimSpace(strings.SplitN(value, "::", 2)[0])
	}

	if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && len(value) >= 2 {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}

	switch strings.ToLower(value) {
	case "true", "false":
		return strings.ToLower(value)
	}

	if strings.ToUpper(value) == "NULL" {
		return ""
	}

	return value
}

// HandleDatabaseError converts PostgreSQL-specific errors to standard errors
func (e *PostgreSQLExtractor) HandleDatabaseError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("connection error: %w", err)
	case strings.Contains(errStr, "authentication failed"):
		return fmt.Errorf("permission denied: %w", err)
	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("schema not found: %w", err)
	default:
		return fmt.Errorf("query execution failed: %w", err)
	}
}
