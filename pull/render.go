package pull

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/caresuite/nl2sql"
)

// autoIncrementDefault is the sentinel DefaultValue extractors store for
// auto increment and serial columns.
const autoIncrementDefault = "AUTO_INCREMENT"

// Render synthesizes CREATE TABLE statements from extracted table metadata.
// Output is MySQL flavored regardless of the source dialect: backtick
// quoting, inline COMMENT clauses, KEY lines for secondary indexes. The
// result parses cleanly with the schemadoc loader, so a pulled schema can
// serve as the service's schema file unchanged.
func Render(tables []*nl2sql.TableInfo) string {
	var b strings.Builder

	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		renderTable(&b, table)
	}

	return b.String()
}

// MarshalSchemaYAML dumps the extracted schema as YAML for --format yaml.
func MarshalSchemaYAML(schema *nl2sql.DatabaseSchema) ([]byte, error) {
	out, err := yaml.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return out, nil
}

func renderTable(b *strings.Builder, table *nl2sql.TableInfo) {
	quote := nl2sql.DialectMySQL.QuoteIdentifier

	var lines []string

	for _, col := range table.Columns {
		lines = append(lines, renderColumn(col))
	}

	if pk := primaryKeyColumns(table); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(pk)))
	}

	// UNIQUE constraints surface again in the index list under the same
	// name; track them so they render once.
	rendered := map[string]bool{}

	for _, constraint := range table.Constraints {
		switch constraint.Type {
		case nl2sql.ConstraintUnique:
			rendered[constraint.Name] = true

			lines = append(lines, fmt.Sprintf("UNIQUE KEY %s (%s)",
				quote(constraint.Name), quoteList(constraint.Columns)))
		case nl2sql.ConstraintForeignKey:
			rendered[constraint.Name] = true

			lines = append(lines, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
				quote(constraint.Name), quoteList(constraint.Columns),
				quote(constraint.ReferencedTable), quoteList(constraint.ReferencedColumns)))
		}
	}

	for _, index := range table.Indexes {
		if rendered[index.Name] {
			continue
		}

		keyword := "KEY"
		if index.IsUnique {
			keyword = "UNIQUE KEY"
		}

		lines = append(lines, fmt.Sprintf("%s %s (%s)", keyword, quote(index.Name), quoteList(index.Columns)))
	}

	fmt.Fprintf(b, "CREATE TABLE %s (\n  %s\n)", quote(table.Name), strings.Join(lines, ",\n  "))
	if table.Comment != "" {
		fmt.Fprintf(b, " COMMENT=%s", quoteSQLString(table.Comment))
	}
	b.WriteString(";\n")
}

func renderColumn(col *nl2sql.ColumnInfo) string {
	parts := []string{nl2sql.DialectMySQL.QuoteIdentifier(col.Name), col.Type}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	switch {
	case col.DefaultValue == autoIncrementDefault:
		parts = append(parts, "AUTO_INCREMENT")
	case col.DefaultValue != "":
		parts = append(parts, "DEFAULT "+renderDefault(col.DefaultValue))
	}

	if col.Comment != "" {
		parts = append(parts, "COMMENT "+quoteSQLString(col.Comment))
	}

	return strings.Join(parts, " ")
}

func renderDefault(value string) string {
	switch strings.ToUpper(value) {
	case "CURRENT_TIMESTAMP", "NULL", "TRUE", "FALSE":
		return strings.ToUpper(value)
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}

	return quoteSQLString(value)
}

// primaryKeyColumns prefers the explicit PRIMARY KEY constraint; the column
// flags are the fallback for extractors that only report per-column keys.
func primaryKeyColumns(table *nl2sql.TableInfo) []string {
	for _, constraint := range table.Constraints {
		if constraint.Type == nl2sql.ConstraintPrimaryKey {
			return constraint.Columns
		}
	}

	var columns []string
	for _, col := range table.Columns {
		if col.IsPrimaryKey {
			columns = append(columns, col.Name)
		}
	}

	return columns
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = nl2sql.DialectMySQL.QuoteIdentifier(name)
	}

	return strings.Join(quoted, ", ")
}

func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
