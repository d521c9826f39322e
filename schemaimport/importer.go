package schemaimport

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tblsschema "github.com/k1LoW/tbls/schema"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/pull"
)

// Importer decodes a tbls schema.json artefact and converts it into the
// unified schema types the rest of the service consumes.
type Importer struct {
	cfg          *Config
	schema       *tblsschema.Schema
	schemaLoaded bool
}

// NewImporter constructs an Importer from a resolved Config.
func NewImporter(cfg Config) *Importer {
	copyCfg := cfg
	return &Importer{cfg: &copyCfg}
}

// Config returns the resolved configuration backing the importer.
func (i *Importer) Config() *Config {
	return i.cfg
}

// LoadSchemaJSON reads the tbls JSON artefact into memory ready for conversion.
func (i *Importer) LoadSchemaJSON(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := i.cfg.SchemaJSONPath
	if strings.TrimSpace(path) == "" {
		return ErrSchemaJSONPathMissing
	}

	if !filepath.IsAbs(path) {
		base := i.cfg.WorkingDir
		if base == "" {
			base = "."
		}

		path = filepath.Join(base, path)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("schemaimport: open schema JSON %q: %w", path, err)
	}
	defer file.Close()

	schema, err := decodeSchemaJSON(file)
	if err != nil {
		return fmt.Errorf("schemaimport: decode schema JSON %q: %w", path, err)
	}

	if err := validateSchema(schema); err != nil {
		return fmt.Errorf("schemaimport: invalid schema JSON %q: %w", path, err)
	}

	i.logf("Loaded schema JSON (%s) tables=%d", schema.Driver.Name, len(schema.Tables))

	i.schema = schema
	i.schemaLoaded = true

	return nil
}

// Convert transforms the loaded tbls schema into the unified schema types.
// Views are skipped; the generation pipeline only prompts with base tables.
// Column types stay exactly as declared so the rendered DDL reads like the
// source database. Include and exclude filters use the same wildcard
// semantics as the pull command, and tables come back sorted by name.
func (i *Importer) Convert(ctx context.Context) (*nl2sql.DatabaseSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !i.schemaLoaded || i.schema == nil {
		return nil, ErrSchemaNotLoaded
	}

	driverName := normalizeDriverName(i.schema.Driver.Name)
	databaseName := inferDatabaseName(i.cfg, i.schema)

	result := &nl2sql.DatabaseSchema{
		Name:   databaseName,
		Tables: []*nl2sql.TableInfo{},
		DatabaseInfo: nl2sql.DatabaseInfo{
			Type:    driverName,
			Version: i.schema.Driver.DatabaseVersion,
			Name:    databaseName,
		},
	}

	i.logf("Converting schema for driver=%s tables=%d", driverName, len(i.schema.Tables))

	for _, tbl := range i.schema.Tables {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if tbl == nil {
			continue
		}

		if strings.Contains(strings.ToUpper(tbl.Type), "VIEW") {
			continue
		}

		schemaName, tableName := splitSchemaAndName(tbl.Name, i.schema.Driver)
		if !pull.ShouldIncludeTable(tableName, i.cfg.Include, i.cfg.Exclude) {
			continue
		}

		result.Tables = append(result.Tables, convertTable(tbl, schemaName, tableName))
	}

	if len(result.Tables) == 0 {
		return nil, fmt.Errorf("%w after include/exclude filters", nl2sql.ErrEmptySchema)
	}

	sort.Slice(result.Tables, func(a, b int) bool {
		return result.Tables[a].Name < result.Tables[b].Name
	})

	i.logf("Converted schema JSON -> %d table(s)", len(result.Tables))

	return result, nil
}

// hasLoadedSchema reports whether a schema JSON payload has been loaded.
func (i *Importer) hasLoadedSchema() bool {
	return i.schemaLoaded
}

func (i *Importer) logf(format string, args ...any) {
	i.cfg.logf(format, args...)
}

func decodeSchemaJSON(r io.Reader) (*tblsschema.Schema, error) {
	dec := json.NewDecoder(r)

	var schema tblsschema.Schema
	if err := dec.Decode(&schema); err != nil {
		return nil, err
	}

	return &schema, nil
}

func validateSchema(s *tblsschema.Schema) error {
	if s == nil {
		return ErrSchemaPayloadNil
	}

	if s.Driver == nil {
		return ErrDriverMetadataMissing
	}

	if strings.TrimSpace(s.Driver.Name) == "" {
		return ErrDriverNameEmpty
	}

	if len(s.Tables) == 0 {
		return ErrSchemaTablesEmpty
	}

	return nil
}

func convertTable(tbl *tblsschema.Table, schemaName, tableName string) *nl2sql.TableInfo {
	columns := make([]*nl2sql.ColumnInfo, 0, len(tbl.Columns))

	for _, col := range tbl.Columns {
		if col == nil {
			continue
		}

		columns = append(columns, &nl2sql.ColumnInfo{
			Name:         col.Name,
			Type:         strings.TrimSpace(col.Type),
			Nullable:     col.Nullable,
			DefaultValue: nullStringValue(col.Default),
			Comment:      col.Comment,
			IsPrimaryKey: col.PK,
		})
	}

	constraints := convertConstraints(tbl)

	table := &nl2sql.TableInfo{
		Name:        tableName,
		Schema:      schemaName,
		Columns:     columns,
		Constraints: constraints,
		Indexes:     convertIndexes(tbl, primaryConstraintNames(constraints)),
		Comment:     tbl.Comment,
	}

	markPrimaryKeys(table)

	return table
}

func convertConstraints(tbl *tblsschema.Table) []nl2sql.ConstraintInfo {
	constraints := make([]nl2sql.ConstraintInfo, 0, len(tbl.Constraints))

	for _, c := range tbl.Constraints {
		if c == nil {
			continue
		}

		info := nl2sql.ConstraintInfo{
			Name:              c.Name,
			Type:              nl2sql.ParseConstraintType(c.Type),
			Columns:           append([]string(nil), c.Columns...),
			ReferencedColumns: append([]string(nil), c.ReferencedColumns...),
			Definition:        c.Def,
		}

		if c.ReferencedTable != nil {
			info.ReferencedTable = stripSchemaPrefix(*c.ReferencedTable)
		}

		constraints = append(constraints, info)
	}

	return constraints
}

// convertIndexes drops the index that backs the primary key. The primary
// key renders from its constraint, so keeping the index would duplicate it.
// MySQL names that index PRIMARY; PostgreSQL reuses the constraint name.
func convertIndexes(tbl *tblsschema.Table, primaryNames map[string]bool) []nl2sql.IndexInfo {
	indexes := make([]nl2sql.IndexInfo, 0, len(tbl.Indexes))

	for _, idx := range tbl.Indexes {
		if idx == nil {
			continue
		}

		if idx.Name == "PRIMARY" || primaryNames[idx.Name] {
			continue
		}

		indexes = append(indexes, nl2sql.IndexInfo{
			Name:     idx.Name,
			Columns:  append([]string(nil), idx.Columns...),
			IsUnique: isUniqueIndex(idx),
			Type:     indexMethod(idx),
		})
	}

	return indexes
}

func primaryConstraintNames(constraints []nl2sql.ConstraintInfo) map[string]bool {
	names := make(map[string]bool, 1)

	for _, c := range constraints {
		if c.Type == nl2sql.ConstraintPrimaryKey {
			names[c.Name] = true
		}
	}

	return names
}

func markPrimaryKeys(table *nl2sql.TableInfo) {
	for _, constraint := range table.Constraints {
		if constraint.Type != nl2sql.ConstraintPrimaryKey {
			continue
		}

		for _, name := range constraint.Columns {
			if col := table.Column(name); col != nil {
				col.IsPrimaryKey = true
				continue
			}

			// Some dumps report constraint columns in a different case
			// than the column list.
			for _, col := range table.Columns {
				if strings.EqualFold(col.Name, name) {
					col.IsPrimaryKey = true
					break
				}
			}
		}
	}
}

func normalizeDriverName(driver string) string {
	if dialect, err := nl2sql.ParseDialect(driver); err == nil {
		return string(dialect)
	}

	return strings.ToLower(strings.TrimSpace(driver))
}

func splitSchemaAndName(fullName string, driver *tblsschema.Driver) (string, string) {
	schemaName := ""
	tableName := fullName

	if idx := strings.Index(fullName, "."); idx >= 0 {
		schemaName = fullName[:idx]
		tableName = fullName[idx+1:]
	} else if driver != nil && driver.Meta != nil && driver.Meta.CurrentSchema != "" {
		schemaName = driver.Meta.CurrentSchema
	}

	return schemaName, tableName
}

func stripSchemaPrefix(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}

	return name
}

func nullStringValue(v sql.NullString) string {
	if v.Valid {
		return v.String
	}

	return ""
}

func isUniqueIndex(idx *tblsschema.Index) bool {
	if idx == nil {
		return false
	}

	return strings.Contains(strings.ToUpper(idx.Def), "UNIQUE")
}

// indexMethod pulls the access method out of the index definition, e.g.
// "USING btree" -> "btree". Empty when the definition does not name one.
func indexMethod(idx *tblsschema.Index) string {
	if idx == nil {
		return ""
	}

	def := strings.ToUpper(idx.Def)

	pos := strings.Index(def, "USING ")
	if pos < 0 {
		return ""
	}

	method := def[pos+len("USING "):]
	if end := strings.IndexAny(method, " ("); end >= 0 {
		method = method[:end]
	}

	return strings.ToLower(method)
}

func inferDatabaseName(cfg *Config, schema *tblsschema.Schema) string {
	if cfg != nil && cfg.TblsConfig != nil {
		if dsn := strings.TrimSpace(cfg.TblsConfig.DSN.URL); dsn != "" {
			if name := extractDatabaseNameFromDSN(dsn); name != "" {
				return name
			}
		}

		if cfg.TblsConfig.Name != "" {
			return cfg.TblsConfig.Name
		}
	}

	if schema != nil && schema.Name != "" {
		return schema.Name
	}

	return ""
}

func extractDatabaseNameFromDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "sqlite://") {
		trimmed := strings.TrimPrefix(dsn, "sqlite://")
		trimmed = strings.TrimSuffix(trimmed, "/")

		base := filepath.Base(trimmed)
		if base != "." && base != "" {
			if ext := filepath.Ext(base); ext != "" {
				base = strings.TrimSuffix(base, ext)
			}

			return base
		}

		return "sqlite"
	}

	if u, err := url.Parse(dsn); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			return name
		}
	}

	return ""
}
