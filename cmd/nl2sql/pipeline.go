package main

import (
	"fmt"
	"time"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/llm"
	"github.com/caresuite/nl2sql/schemadoc"
	"github.com/caresuite/nl2sql/sqlcheck"
	"github.com/caresuite/nl2sql/vectorstore"
)

// explainTimeout bounds EXPLAIN validation so a slow database cannot stall
// request handling.
const explainTimeout = 5 * time.Second

// loadChunks parses the configured schema file into per-table chunks.
func loadChunks(config *nl2sql.Config) ([]nl2sql.SchemaChunk, error) {
	return schemadoc.Load(config.Schema.Path, schemadoc.Options{
		MaxColumnLines:     config.Schema.MaxColumnLines,
		MaxConstraintLines: config.Schema.MaxConstraintLines,
		MaxChunkChars:      config.Schema.MaxChunkChars,
	})
}

// newLLMClient builds the OpenAI client from configuration.
func newLLMClient(config *nl2sql.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:      config.OpenAI.APIKey,
		Model:       config.OpenAI.Model,
		EmbedModel:  config.OpenAI.EmbedModel,
		BaseURL:     config.OpenAI.BaseURL,
		Temperature: config.Generation.Temperature,
	})
}

// newStore selects the vector store backend.
func newStore(config *nl2sql.Config) (vectorstore.Store, error) {
	switch config.Store.Backend {
	case nl2sql.StoreBackendMemory:
		return vectorstore.NewMemoryStore(), nil
	case nl2sql.StoreBackendPinecone:
		return vectorstore.NewPineconeStore(vectorstore.PineconeConfig{
			APIKey:    config.Pinecone.APIKey,
			Index:     config.Pinecone.Index,
			Cloud:     config.Pinecone.Cloud,
			Region:    config.Pinecone.Region,
			Namespace: config.Pinecone.Namespace,
			Dimension: config.Pinecone.Dimension,
			Metric:    config.Pinecone.Metric,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreBackend, config.Store.Backend)
	}
}

// newIndexer wires the configured store and the embedding client together.
// Callers attach a Logf when they want progress output.
func newIndexer(config *nl2sql.Config, client *llm.Client) (*vectorstore.Indexer, error) {
	store, err := newStore(config)
	if err != nil {
		return nil, err
	}

	return vectorstore.NewIndexer(store, client), nil
}

// newGuard builds the SQL validation guard from generation settings.
func newGuard(config *nl2sql.Config) (*sqlcheck.Guard, error) {
	databaseURL := ""
	if config.Generation.Database != "" {
		if db, ok := config.Databases[config.Generation.Database]; ok {
			databaseURL = db.Connection
		}
	}

	return sqlcheck.NewGuard(config.Generation.Validation, databaseURL, explainTimeout)
}
