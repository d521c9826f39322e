package sqlcheck

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// setupValidationDB creates a file backed sqlite database with the tables
// explain validation should know about. :memory: would give every pooled
// connection its own empty database.
func setupValidationDB(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "validation.db")

	db, err := sql.Open("sqlite3", dbPath)
	assert.NoError(t, err)
	defer db.Close()

	statements := []string{
		`CREATE TABLE patient (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			full_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE roster_patient (
			roster_id INTEGER NOT NULL,
			patient_id INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (roster_id, patient_id)
		)`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		assert.NoError(t, err)
	}
	return dbPath
}

func TestExplainerAcceptsPlannableQuery(t *testing.T) {
	dbPath := setupValidationDB(t)

	explainer := NewExplainer("sqlite://"+dbPath, time.Second)
	defer explainer.Close()

	err := explainer.Explain(t.Context(),
		"SELECT p.id FROM patient p JOIN roster_patient rp ON rp.patient_id = p.id AND rp.roster_id = 42")
	assert.NoError(t, err)
}

func TestExplainerRejectsUnknownTable(t *testing.T) {
	dbPath := setupValidationDB(t)

	explainer := NewExplainer("sqlite://"+dbPath, time.Second)
	defer explainer.Close()

	err := explainer.Explain(t.Context(), "SELECT id FROM nosuch_table")
	assert.IsError(t, err, ErrExplainFailed)
}

func TestExplainerRejectsUnknownColumn(t *testing.T) {
	dbPath := setupValidationDB(t)

	explainer := NewExplainer("sqlite://"+dbPath, time.Second)
	defer explainer.Close()

	err := explainer.Explain(t.Context(), "SELECT nosuch_column FROM patient")
	assert.IsError(t, err, ErrExplainFailed)
}

func TestExplainerConnectError(t *testing.T) {
	explainer := NewExplainer("not-a-url", time.Second)
	defer explainer.Close()

	err := explainer.Explain(t.Context(), "SELECT 1")
	assert.IsError(t, err, ErrExplainFailed)
}

func TestExplainStatementByDialect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "EXPLAIN SELECT 1", explainStatement("mysql", "SELECT 1"))
	assert.Equal(t, "EXPLAIN SELECT 1", explainStatement("postgres", "SELECT 1"))
	assert.Equal(t, "EXPLAIN QUERY PLAN SELECT 1", explainStatement("sqlite", "SELECT 1"))
}
