package schemaimport

import (
	"context"

	"github.com/caresuite/nl2sql"
)

// Import resolves configuration, loads the schema JSON, and converts it in
// one call. This is the entry point the import command drives.
func Import(ctx context.Context, opts Options) (*nl2sql.DatabaseSchema, error) {
	cfg, err := ResolveConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	importer := NewImporter(cfg)
	if err := importer.LoadSchemaJSON(ctx); err != nil {
		return nil, err
	}

	schema, err := importer.Convert(ctx)
	if err != nil {
		return nil, err
	}

	cfg.logf("Import complete: database=%s tables=%d", schema.Name, len(schema.Tables))

	return schema, nil
}
