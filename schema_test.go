package nl2sql

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseConstraintType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PRIMARY KEY", ConstraintPrimaryKey},
		{"primary key", ConstraintPrimaryKey},
		{"PRIMARY_KEY", ConstraintPrimaryKey},
		{"FOREIGN KEY", ConstraintForeignKey},
		{"FOREIGN_KEY", ConstraintForeignKey},
		{"UNIQUE", ConstraintUnique},
		{"unique", ConstraintUnique},
		{"CHECK", ConstraintCheck},
		{" check ", ConstraintCheck},
		{"EXCLUSION", "EXCLUSION"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseConstraintType(tt.input), "input: %q", tt.input)
	}
}

func TestTableInfo_Column(t *testing.T) {
	table := &TableInfo{
		Name: "patient",
		Columns: []*ColumnInfo{
			{Name: "id", Type: "int"},
			{Name: "full_name", Type: "varchar(255)"},
		},
	}

	col := table.Column("full_name")
	assert.NotZero(t, col)
	assert.Equal(t, "varchar(255)", col.Type)

	assert.Zero(t, table.Column("missing"))
}
