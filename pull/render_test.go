package pull

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/schemadoc"
)

func renderFixtureTables() []*nl2sql.TableInfo {
	return []*nl2sql.TableInfo{
		{
			Name:    "patient",
			Schema:  "care",
			Comment: "patient registry",
			Columns: []*nl2sql.ColumnInfo{
				{Name: "id", Type: "int", IsPrimaryKey: true, DefaultValue: autoIncrementDefault},
				{Name: "client_id", Type: "int"},
				{Name: "full_name", Type: "varchar(255)", Comment: "display name"},
				{Name: "status", Type: "varchar(20)", DefaultValue: "active"},
				{Name: "created_at", Type: "timestamp", Nullable: true, DefaultValue: "CURRENT_TIMESTAMP"},
			},
			Constraints: []nl2sql.ConstraintInfo{
				{Name: "PRIMARY", Type: nl2sql.ConstraintPrimaryKey, Columns: []string{"id"}},
				{Name: "uq_patient_client_name", Type: nl2sql.ConstraintUnique, Columns: []string{"client_id", "full_name"}},
			},
			Indexes: []nl2sql.IndexInfo{
				// Same name as the UNIQUE constraint; must render once
				{Name: "uq_patient_client_name", Columns: []string{"client_id", "full_name"}, IsUnique: true, Type: "btree"},
				{Name: "idx_patient_status", Columns: []string{"status"}, Type: "btree"},
			},
		},
		{
			Name:   "roster_patient",
			Schema: "care",
			Columns: []*nl2sql.ColumnInfo{
				{Name: "roster_id", Type: "int", IsPrimaryKey: true},
				{Name: "patient_id", Type: "int", IsPrimaryKey: true},
				{Name: "is_active", Type: "tinyint(1)", DefaultValue: "1"},
			},
			Constraints: []nl2sql.ConstraintInfo{
				{Name: "PRIMARY", Type: nl2sql.ConstraintPrimaryKey, Columns: []string{"roster_id", "patient_id"}},
				{
					Name:              "fk_roster_patient_patient",
					Type:              nl2sql.ConstraintForeignKey,
					Columns:           []string{"patient_id"},
					ReferencedTable:   "patient",
					ReferencedColumns: []string{"id"},
				},
			},
		},
	}
}

func TestRender(t *testing.T) {
	expected := "CREATE TABLE `patient` (\n" +
		"  `id` int NOT NULL AUTO_INCREMENT,\n" +
		"  `client_id` int NOT NULL,\n" +
		"  `full_name` varchar(255) NOT NULL COMMENT 'display name',\n" +
		"  `status` varchar(20) NOT NULL DEFAULT 'active',\n" +
		"  `created_at` timestamp DEFAULT CURRENT_TIMESTAMP,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  UNIQUE KEY `uq_patient_client_name` (`client_id`, `full_name`),\n" +
		"  KEY `idx_patient_status` (`status`)\n" +
		") COMMENT='patient registry';\n" +
		"\n" +
		"CREATE TABLE `roster_patient` (\n" +
		"  `roster_id` int NOT NULL,\n" +
		"  `patient_id` int NOT NULL,\n" +
		"  `is_active` tinyint(1) NOT NULL DEFAULT 1,\n" +
		"  PRIMARY KEY (`roster_id`, `patient_id`),\n" +
		"  CONSTRAINT `fk_roster_patient_patient` FOREIGN KEY (`patient_id`) REFERENCES `patient` (`id`)\n" +
		");\n"

	assert.Equal(t, expected, Render(renderFixtureTables()))
}

func TestRender_PrimaryKeyFromColumnFlags(t *testing.T) {
	// No PRIMARY KEY constraint; the column flags are the fallback
	tables := []*nl2sql.TableInfo{
		{
			Name: "client",
			Columns: []*nl2sql.ColumnInfo{
				{Name: "id", Type: "INTEGER", IsPrimaryKey: true},
				{Name: "name", Type: "TEXT", Nullable: true},
			},
		},
	}

	ddl := Render(tables)
	assert.Contains(t, ddl, "PRIMARY KEY (`id`)")
}

func TestRender_EscapesQuotes(t *testing.T) {
	tables := []*nl2sql.TableInfo{
		{
			Name:    "note",
			Comment: "the user's notes",
			Columns: []*nl2sql.ColumnInfo{
				{Name: "body", Type: "text", Nullable: true, DefaultValue: "it's fine"},
			},
		},
	}

	ddl := Render(tables)
	assert.Contains(t, ddl, "DEFAULT 'it''s fine'")
	assert.Contains(t, ddl, "COMMENT='the user''s notes'")
}

func TestRender_SchemaDocRoundTrip(t *testing.T) {
	ddl := Render(renderFixtureTables())

	chunks, err := schemadoc.Build(ddl, schemadoc.DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(chunks))
	assert.Equal(t, "patient", chunks[0].Table)
	assert.Equal(t, "roster_patient", chunks[1].Table)

	assert.Contains(t, chunks[0].Text, "`full_name` varchar(255) NOT NULL COMMENT 'display name'")
	assert.Contains(t, chunks[1].Text, "FOREIGN KEY (`patient_id`) REFERENCES `patient` (`id`)")
}

func TestMarshalSchemaYAML(t *testing.T) {
	result := &PullResult{
		Tables: renderFixtureTables(),
		DatabaseInfo: nl2sql.DatabaseInfo{
			Type:    "mysql",
			Version: "8.4.0",
			Name:    "care",
			Charset: "utf8mb4",
		},
		ExtractedAt: time.Now(),
	}

	out, err := MarshalSchemaYAML(result.Schema())
	assert.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "name: patient")
	assert.Contains(t, text, "name: roster_patient")
	assert.Contains(t, text, "type: mysql")
	assert.Contains(t, text, "charset: utf8mb4")
}
