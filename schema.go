package nl2sql

import "strings"

// SchemaChunk is one table's compacted DDL document, the unit that gets
// embedded and retrieved. ID doubles as the vector ID in the index.
type SchemaChunk struct {
	ID    string `json:"id" yaml:"id"`
	Table string `json:"table" yaml:"table"`
	Text  string `json:"text" yaml:"text"`
}

// ScoredChunk is a SchemaChunk with its retrieval similarity score.
type ScoredChunk struct {
	SchemaChunk `yaml:",inline"`

	Score float64 `json:"score" yaml:"score"`
}

// ColumnInfo is a unified column definition shared by the live-database
// extractors and the tbls importer.
type ColumnInfo struct {
	Name         string `json:"name" yaml:"name"`                 // Column name
	Type         string `json:"type" yaml:"type"`                 // SQL type as declared, e.g. varchar(255)
	Nullable     bool   `json:"nullable" yaml:"nullable"`         // Is nullable
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"` // Default value (optional)
	Comment      string `json:"comment" yaml:"comment"`           // Comment (optional)
	IsPrimaryKey bool   `json:"isPrimaryKey" yaml:"isPrimaryKey"` // Is primary key (optional)
	MaxLength    *int   `json:"maxLength" yaml:"maxLength"`       // For string types (optional)
	Precision    *int   `json:"precision" yaml:"precision"`       // For numeric types (optional)
	Scale        *int   `json:"scale" yaml:"scale"`               // For numeric types (optional)
}

// TableInfo is a unified table definition. Columns keep their ordinal
// order so rendered DDL is stable.
type TableInfo struct {
	Name        string           `json:"name" yaml:"name"`
	Schema      string           `json:"schema" yaml:"schema"` // Schema name (optional)
	Columns     []*ColumnInfo    `json:"columns" yaml:"columns"`
	Constraints []ConstraintInfo `json:"constraints" yaml:"constraints"` // Constraints (optional)
	Indexes     []IndexInfo      `json:"indexes" yaml:"indexes"`         // Indexes (optional)
	Comment     string           `json:"comment" yaml:"comment"`         // Table comment (optional)
}

// Column looks up a column by name. Returns nil if absent.
func (t *TableInfo) Column(name string) *ColumnInfo {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// DatabaseSchema is a unified database schema definition used by the
// pull command's structured output.
type DatabaseSchema struct {
	Name         string       `json:"name" yaml:"name"`
	Tables       []*TableInfo `json:"tables" yaml:"tables"`
	DatabaseInfo DatabaseInfo `json:"databaseInfo" yaml:"databaseInfo"`
}

// Constraint types stored in ConstraintInfo.Type.
const (
	ConstraintPrimaryKey = "PRIMARY_KEY"
	ConstraintForeignKey = "FOREIGN_KEY"
	ConstraintUnique     = "UNIQUE"
	ConstraintCheck      = "CHECK"
)

// ParseConstraintType normalizes the constraint type names databases and
// schema documents report ("PRIMARY KEY") to the canonical constants.
func ParseConstraintType(constraintType string) string {
	switch strings.ToUpper(strings.TrimSpace(constraintType)) {
	case "PRIMARY KEY", ConstraintPrimaryKey:
		return ConstraintPrimaryKey
	case "FOREIGN KEY", ConstraintForeignKey:
		return ConstraintForeignKey
	case "UNIQUE":
		return ConstraintUnique
	case "CHECK":
		return ConstraintCheck
	default:
		return strings.ToUpper(strings.TrimSpace(constraintType))
	}
}

type ConstraintInfo struct {
	Name              string   `json:"name" yaml:"name"`
	Type              string   `json:"type" yaml:"type"` // PRIMARY_KEY, FOREIGN_KEY, UNIQUE, CHECK
	Columns           []string `json:"columns" yaml:"columns"`
	ReferencedTable   string   `json:"referencedTable" yaml:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns" yaml:"referencedColumns"`
	Definition        string   `json:"definition" yaml:"definition"`
}

type IndexInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Columns  []string `json:"columns" yaml:"columns"`
	IsUnique bool     `json:"isUnique" yaml:"isUnique"`
	Type     string   `json:"type" yaml:"type"`
}

type DatabaseInfo struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
	Name    string `json:"name" yaml:"name"`
	Charset string `json:"charset" yaml:"charset"`
}
