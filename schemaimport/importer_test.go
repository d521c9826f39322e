package schemaimport

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tblsconfig "github.com/k1LoW/tbls/config"
	tblsschema "github.com/k1LoW/tbls/schema"

	"github.com/caresuite/nl2sql"
)

func TestNewConfigCopiesFilters(t *testing.T) {
	opts := Options{
		TblsConfigPath: "./db/.tbls.yml",
		SchemaJSONPath: "./db/schema.json",
		Include:        []string{"patient*"},
		Exclude:        []string{"temp_*"},
	}

	cfg := NewConfig(opts)

	if cfg.TblsConfigPath != opts.TblsConfigPath {
		t.Fatalf("expected TblsConfigPath %q, got %q", opts.TblsConfigPath, cfg.TblsConfigPath)
	}

	if cfg.SchemaJSONPath != opts.SchemaJSONPath {
		t.Fatalf("expected SchemaJSONPath %q, got %q", opts.SchemaJSONPath, cfg.SchemaJSONPath)
	}

	opts.Include[0] = "mutated"
	opts.Exclude[0] = "mutated"

	if cfg.Include[0] != "patient*" || cfg.Exclude[0] != "temp_*" {
		t.Fatalf("filter slices should be copied, not aliased: %v %v", cfg.Include, cfg.Exclude)
	}
}

func TestNewImporterInitialState(t *testing.T) {
	cfg := NewConfig(Options{TblsConfigPath: "./.tbls.yml", SchemaJSONPath: "./schema.json"})

	importer := NewImporter(cfg)
	if importer == nil {
		t.Fatalf("expected importer instance")
	}

	if importer.Config().TblsConfigPath != cfg.TblsConfigPath {
		t.Fatalf("importer config mismatch")
	}

	if importer.hasLoadedSchema() {
		t.Fatalf("schema should not be loaded initially")
	}
}

func TestLoadSchemaJSONAndConvert(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	json := `{"driver":{"name":"postgres","database_version":"16.4"},"tables":[` +
		`{"name":"public.patient","type":"TABLE","comment":"patient registry","columns":[` +
		`{"name":"id","type":"integer","nullable":false,"default":null},` +
		`{"name":"client_id","type":"integer","nullable":false},` +
		`{"name":"full_name","type":"varchar(255)","nullable":false,"comment":"display name"},` +
		`{"name":"created_at","type":"timestamp without time zone","nullable":true}],` +
		`"constraints":[` +
		`{"name":"patient_pkey","type":"PRIMARY KEY","def":"PRIMARY KEY (id)","columns":["id"]},` +
		`{"name":"fk_patient_client","type":"FOREIGN KEY","def":"FOREIGN KEY (client_id) REFERENCES client(id)","referenced_table":"public.client","columns":["client_id"],"referenced_columns":["id"]}],` +
		`"indexes":[` +
		`{"name":"patient_pkey","def":"CREATE UNIQUE INDEX patient_pkey ON public.patient USING btree (id)","columns":["id"]},` +
		`{"name":"idx_patient_client","def":"CREATE INDEX idx_patient_client ON public.patient USING btree (client_id)","columns":["client_id"]}]},` +
		`{"name":"public.client","type":"TABLE","columns":[{"name":"id","type":"integer","nullable":false}],` +
		`"constraints":[{"name":"client_pkey","type":"PRIMARY KEY","columns":["id"]}]},` +
		`{"name":"public.patient_summary","type":"VIEW","def":"SELECT 1","columns":[{"name":"id","type":"integer","nullable":true}]}]}`
	if err := os.WriteFile(schemaPath, []byte(json), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := NewConfig(Options{WorkingDir: tmp, SchemaJSONPath: schemaPath})
	importer := NewImporter(cfg)
	importer.cfg.TblsConfig = &tblsconfig.Config{
		DSN: tblsconfig.DSN{URL: "postgres://localhost:5432/care"},
	}

	if err := importer.LoadSchemaJSON(context.Background()); err != nil {
		t.Fatalf("LoadSchemaJSON returned error: %v", err)
	}

	if !importer.hasLoadedSchema() {
		t.Fatalf("expected schema to be marked as loaded")
	}

	schema, err := importer.Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	if schema.Name != "care" {
		t.Fatalf("expected database name care, got %q", schema.Name)
	}

	if schema.DatabaseInfo.Type != "postgres" || schema.DatabaseInfo.Version != "16.4" {
		t.Fatalf("unexpected database info: %+v", schema.DatabaseInfo)
	}

	if len(schema.Tables) != 2 {
		t.Fatalf("expected two tables (view skipped), got %d", len(schema.Tables))
	}

	if schema.Tables[0].Name != "client" || schema.Tables[1].Name != "patient" {
		t.Fatalf("expected tables sorted by name, got %s, %s", schema.Tables[0].Name, schema.Tables[1].Name)
	}

	patient := schema.Tables[1]
	if patient.Schema != "public" || patient.Comment != "patient registry" {
		t.Fatalf("unexpected patient table metadata: %+v", patient)
	}

	if len(patient.Columns) != 4 || patient.Columns[0].Name != "id" || patient.Columns[3].Name != "created_at" {
		t.Fatalf("unexpected column order: %+v", patient.Columns)
	}

	fullName := patient.Column("full_name")
	if fullName == nil || fullName.Type != "varchar(255)" || fullName.Comment != "display name" {
		t.Fatalf("declared type should survive conversion: %+v", fullName)
	}

	if got := patient.Column("created_at").Type; got != "timestamp without time zone" {
		t.Fatalf("expected raw timestamp type, got %q", got)
	}

	if !patient.Column("id").IsPrimaryKey {
		t.Fatalf("expected id to be marked primary key from constraint")
	}

	if len(patient.Constraints) != 2 {
		t.Fatalf("expected two constraints, got %+v", patient.Constraints)
	}

	if patient.Constraints[0].Type != nl2sql.ConstraintPrimaryKey {
		t.Fatalf("expected normalized primary key type, got %q", patient.Constraints[0].Type)
	}

	fk := patient.Constraints[1]
	if fk.Type != nl2sql.ConstraintForeignKey || fk.ReferencedTable != "client" {
		t.Fatalf("expected schema prefix stripped from referenced table: %+v", fk)
	}

	if len(fk.ReferencedColumns) != 1 || fk.ReferencedColumns[0] != "id" {
		t.Fatalf("unexpected referenced columns: %v", fk.ReferencedColumns)
	}

	if len(patient.Indexes) != 1 {
		t.Fatalf("primary key index should be dropped, got %+v", patient.Indexes)
	}

	idx := patient.Indexes[0]
	if idx.Name != "idx_patient_client" || idx.IsUnique || idx.Type != "btree" {
		t.Fatalf("unexpected index: %+v", idx)
	}
}

func TestConvertKeepsDeclaredTypes(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	json := `{"driver":{"name":"mysql","database_version":"8.4.0"},"tables":[` +
		`{"name":"patient","type":"BASE TABLE","columns":[` +
		`{"name":"id","type":"bigint","nullable":false},` +
		`{"name":"full_name","type":"varchar(255)","nullable":false},` +
		`{"name":"is_active","type":"tinyint(1)","nullable":false},` +
		`{"name":"created_at","type":"datetime","nullable":true}],` +
		`"constraints":[{"name":"PRIMARY","type":"PRIMARY KEY","def":"PRIMARY KEY (id)","columns":["id"]}],` +
		`"indexes":[` +
		`{"name":"PRIMARY","def":"PRIMARY KEY (id) USING BTREE","columns":["id"]},` +
		`{"name":"idx_patient_name","def":"KEY idx_patient_name (full_name) USING BTREE","columns":["full_name"]}]}]}`
	if err := os.WriteFile(schemaPath, []byte(json), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	importer := NewImporter(NewConfig(Options{SchemaJSONPath: schemaPath}))

	if err := importer.LoadSchemaJSON(context.Background()); err != nil {
		t.Fatalf("LoadSchemaJSON returned error: %v", err)
	}

	schema, err := importer.Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	if len(schema.Tables) != 1 {
		t.Fatalf("expected one table, got %d", len(schema.Tables))
	}

	patient := schema.Tables[0]
	for name, want := range map[string]string{
		"id":         "bigint",
		"full_name":  "varchar(255)",
		"is_active":  "tinyint(1)",
		"created_at": "datetime",
	} {
		col := patient.Column(name)
		if col == nil || col.Type != want {
			t.Fatalf("expected %s type %q preserved, got %+v", name, want, col)
		}
	}

	if !patient.Column("id").IsPrimaryKey {
		t.Fatalf("expected id marked primary key from PRIMARY constraint")
	}

	if len(patient.Indexes) != 1 || patient.Indexes[0].Name != "idx_patient_name" {
		t.Fatalf("PRIMARY index should be dropped, got %+v", patient.Indexes)
	}

	if patient.Indexes[0].Type != "btree" {
		t.Fatalf("expected index method btree, got %q", patient.Indexes[0].Type)
	}
}

func TestConvertAppliesFilters(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	schemaPath := filepath.Join(tmp, "schema.json")

	json := `{"driver":{"name":"mysql"},"tables":[` +
		`{"name":"patient","type":"BASE TABLE","columns":[{"name":"id","type":"int","nullable":false}]},` +
		`{"name":"roster_patient","type":"BASE TABLE","columns":[{"name":"roster_id","type":"int","nullable":false}]},` +
		`{"name":"temp_export","type":"BASE TABLE","columns":[{"name":"id","type":"int","nullable":false}]}]}`
	if err := os.WriteFile(schemaPath, []byte(json), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	load := func(include, exclude []string) *Importer {
		importer := NewImporter(NewConfig(Options{SchemaJSONPath: schemaPath, Include: include, Exclude: exclude}))
		if err := importer.LoadSchemaJSON(context.Background()); err != nil {
			t.Fatalf("LoadSchemaJSON returned error: %v", err)
		}

		return importer
	}

	schema, err := load(nil, []string{"temp_*"}).Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert with exclude returned error: %v", err)
	}

	if len(schema.Tables) != 2 {
		t.Fatalf("expected temp_export excluded, got %d tables", len(schema.Tables))
	}

	schema, err = load([]string{"patient"}, nil).Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert with include returned error: %v", err)
	}

	if len(schema.Tables) != 1 || schema.Tables[0].Name != "patient" {
		t.Fatalf("expected only patient included, got %+v", schema.Tables)
	}

	_, err = load([]string{"nosuch"}, nil).Convert(context.Background())
	if !errors.Is(err, nl2sql.ErrEmptySchema) {
		t.Fatalf("expected ErrEmptySchema when filters drop every table, got %v", err)
	}
}

func TestConvertBeforeLoad(t *testing.T) {
	t.Parallel()

	importer := NewImporter(NewConfig(Options{SchemaJSONPath: "./schema.json"}))

	if _, err := importer.Convert(context.Background()); !errors.Is(err, ErrSchemaNotLoaded) {
		t.Fatalf("expected ErrSchemaNotLoaded, got %v", err)
	}
}

func TestLoadSchemaJSONMissingFile(t *testing.T) {
	t.Parallel()

	importer := NewImporter(NewConfig(Options{WorkingDir: t.TempDir(), SchemaJSONPath: "./missing.json"}))

	if err := importer.LoadSchemaJSON(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadSchemaJSONValidationFailures(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()

	cases := []struct {
		name    string
		json    string
		wantErr error
	}{
		{"no_driver", `{"tables":[{"name":"patient"}]}`, ErrDriverMetadataMissing},
		{"blank_driver_name", `{"driver":{"name":"  "},"tables":[{"name":"patient"}]}`, ErrDriverNameEmpty},
		{"no_tables", `{"driver":{"name":"mysql"},"tables":[]}`, ErrSchemaTablesEmpty},
	}

	for _, tc := range cases {
		schemaPath := filepath.Join(tmp, tc.name+".json")
		if err := os.WriteFile(schemaPath, []byte(tc.json), 0o644); err != nil {
			t.Fatalf("write schema: %v", err)
		}

		importer := NewImporter(NewConfig(Options{SchemaJSONPath: schemaPath}))
		if err := importer.LoadSchemaJSON(context.Background()); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}

	importer := NewImporter(NewConfig(Options{}))
	if err := importer.LoadSchemaJSON(context.Background()); !errors.Is(err, ErrSchemaJSONPathMissing) {
		t.Fatalf("expected ErrSchemaJSONPathMissing, got %v", err)
	}
}

func TestSplitSchemaAndName(t *testing.T) {
	t.Parallel()

	if s, n := splitSchemaAndName("public.patient", nil); s != "public" || n != "patient" {
		t.Fatalf("expected public.patient split, got %q %q", s, n)
	}

	if s, n := splitSchemaAndName("patient", nil); s != "" || n != "patient" {
		t.Fatalf("expected bare name untouched, got %q %q", s, n)
	}

	driver := &tblsschema.Driver{Meta: &tblsschema.DriverMeta{CurrentSchema: "care"}}
	if s, n := splitSchemaAndName("patient", driver); s != "care" || n != "patient" {
		t.Fatalf("expected current schema fallback, got %q %q", s, n)
	}
}

func TestIndexMethod(t *testing.T) {
	t.Parallel()

	if got := indexMethod(&tblsschema.Index{Def: "CREATE UNIQUE INDEX x ON t USING btree (id)"}); got != "btree" {
		t.Fatalf("expected btree, got %q", got)
	}

	if got := indexMethod(&tblsschema.Index{Def: "PRIMARY KEY (id) USING BTREE"}); got != "btree" {
		t.Fatalf("expected lowercased btree, got %q", got)
	}

	if got := indexMethod(&tblsschema.Index{Def: "CREATE INDEX x ON t USING gin (payload)"}); got != "gin" {
		t.Fatalf("expected gin, got %q", got)
	}

	if got := indexMethod(&tblsschema.Index{Def: "KEY idx (col)"}); got != "" {
		t.Fatalf("expected empty method, got %q", got)
	}

	if isUniqueIndex(&tblsschema.Index{Def: "KEY idx (col)"}) {
		t.Fatalf("plain KEY should not be unique")
	}

	if !isUniqueIndex(&tblsschema.Index{Def: "UNIQUE KEY uq (col)"}) {
		t.Fatalf("UNIQUE KEY should be unique")
	}
}

func TestNormalizeDriverName(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"postgresql", "postgres"},
		{"postgres", "postgres"},
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"sqlite3", "sqlite"},
		{"Oracle", "oracle"},
	}

	for _, tc := range cases {
		if got := normalizeDriverName(tc.in); got != tc.want {
			t.Fatalf("normalizeDriverName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNullStringValue(t *testing.T) {
	t.Parallel()

	if got := nullStringValue(sql.NullString{String: "CURRENT_TIMESTAMP", Valid: true}); got != "CURRENT_TIMESTAMP" {
		t.Fatalf("expected valid value, got %q", got)
	}

	if got := nullStringValue(sql.NullString{String: "ignored", Valid: false}); got != "" {
		t.Fatalf("expected empty for invalid, got %q", got)
	}
}
