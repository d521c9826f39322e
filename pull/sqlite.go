package pull

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/caresuite/nl2sql"
)

// SQLiteExtractor reads table metadata from sqlite_master and the table
// introspection PRAGMAs.
type SQLiteExtractor struct{}

const sqliteTablesQuery = `
	SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`

// ExtractTables extracts all tables from the database. SQLite has no
// schemas, so config.Schema is ignored.
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, db *sql.DB, config ExtractConfig) ([]*nl2sql.TableInfo, error) {
	rows, err := db.QueryContext(ctx, sqliteTablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		if ShouldIncludeTable(name, config.IncludeTables, config.ExcludeTables) {
			names = append(names, name)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tables []*nl2sql.TableInfo

	for _, name := range names {
		table := &nl2sql.TableInfo{Name: name}

		columns, pkConstraint, err := e.extractColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		table.Columns = columns

		if pkConstraint != nil {
			table.Constraints = append(table.Constraints, *pkConstraint)
		}

		foreignKeys, err := e.extractForeignKeys(ctx, db, name)
		if err != nil {
			return nil, err
		}
		table.Constraints = append(table.Constraints, foreignKeys...)

		indexes, err := e.extractIndexes(ctx, db, name)
		if err != nil {
			return nil, err
		}
		table.Indexes = indexes

		tables = append(tables, table)
	}

	return tables, nil
}

func (e *SQLiteExtractor) extractColumns(ctx context.Context, db *sql.DB, table string) ([]*nl2sql.ColumnInfo, *nl2sql.ConstraintInfo, error) {
	query := "PRAGMA table_info(" + nl2sql.DialectSQLite.QuoteIdentifier(table) + ")"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		ordinal int
		name    string
	}

	var (
		columns   []*nl2sql.ColumnInfo
		pkColumns []pkColumn
	)

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, columnType string
			defaultValue     sql.NullString
		)

		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := &nl2sql.ColumnInfo{
			Name:         name,
			Type:         columnType,
			Nullable:     notNull == 0,
			IsPrimaryKey: pk > 0,
		}

		if defaultValue.Valid {
			col.DefaultValue = parseSQLiteDefault(defaultValue.String)
		}

		// pk holds the 1-based position inside a composite primary key
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{ordinal: pk, name: name})
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(pkColumns) == 0 {
		return columns, nil, nil
	}

	sort.Slice(pkColumns, func(a, b int) bool { return pkColumns[a].ordinal < pkColumns[b].ordinal })

	constraint := &nl2sql.ConstraintInfo{
		Name: table + "_pkey",
		Type: nl2sql.ConstraintPrimaryKey,
	}
	for _, pk := range pkColumns {
		constraint.Columns = append(constraint.Columns, pk.name)
	}

	return columns, constraint, nil
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, db *sql.DB, table string) ([]nl2sql.ConstraintInfo, error) {
	query := "PRAGMA foreign_key_list(" + nl2sql.DialectSQLite.QuoteIdentifier(table) + ")"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var order []int

	byID := map[int]*nl2sql.ConstraintInfo{}

	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		constraint, ok := byID[id]
		if !ok {
			constraint = &nl2sql.ConstraintInfo{
				Name:            fmt.Sprintf("%s_fk_%d", table, id),
				Type:            nl2sql.ConstraintForeignKey,
				ReferencedTable: refTable,
			}
			byID[id] = constraint
			order = append(order, id)
		}

		constraint.Columns = append(constraint.Columns, from)
		// "to" is NULL when the reference targets the implicit rowid key
		if to.Valid {
			constraint.ReferencedColumns = append(constraint.ReferencedColumns, to.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	constraints := make([]nl2sql.ConstraintInfo, 0, len(order))
	for _, id := range order {
		constraints = append(constraints, *byID[id])
	}

	return constraints, nil
}

func (e *SQLiteExtractor) extractIndexes(ctx context.Context, db *sql.DB, table string) ([]nl2sql.IndexInfo, error) {
	query := "PRAGMA index_list(" + nl2sql.DialectSQLite.QuoteIdentifier(table) + ")"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type indexEntry struct {
		name     string
		isUnique bool
	}

	var entries []indexEntry

	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}

		// Implicit indexes backing PRIMARY KEY and UNIQUE clauses
		if strings.HasPrefix(name, "sqlite_autoindex_") {
			continue
		}

		entries = append(entries, indexEntry{name: name, isUnique: unique == 1})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []nl2sql.IndexInfo

	for _, entry := range entries {
		columns, err := e.indexColumns(ctx, db, entry.name)
		if err != nil {
			return nil, err
		}

		indexes = append(indexes, nl2sql.IndexInfo{
			Name:     entry.name,
			Columns:  columns,
			IsUnique: entry.isUnique,
			Type:     "btree",
		})
	}

	return indexes, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	query := "PRAGMA index_info(" + nl2sql.DialectSQLite.QuoteIdentifier(index) + ")"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)

		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}

		// Expression index entries have no column name
		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}

// GetDatabaseInfo extracts database information
func (e *SQLiteExtractor) GetDatabaseInfo(ctx context.Context, db *sql.DB) (nl2sql.DatabaseInfo, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return nl2sql.DatabaseInfo{}, err
	}

	return nl2sql.DatabaseInfo{
		Type:    "sqlite",
		Version: version,
		Name:    "main",
	}, nil
}

// parseSQLiteDefault strips the literal quoting sqlite keeps in table_info.
func parseSQLiteDefault(defaultValue string) string {
	value := strings.TrimSpace(defaultValue)

	if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && len(value) >= 2 {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}

	if strings.ToUpper(value) == "NULL" {
		return ""
	}

	return value
}
