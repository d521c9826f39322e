package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/pull"
)

// Explainer verifies statements by running EXPLAIN against a configured
// database. The connection pool opens lazily on first use and is reused
// across requests.
type Explainer struct {
	connector *pull.DatabaseConnector
	url       string
	timeout   time.Duration

	mu      sync.Mutex
	db      *sql.DB
	dialect nl2sql.Dialect
}

// NewExplainer binds an explainer to a database URL. A zero timeout means
// each EXPLAIN runs with the caller's context only.
func NewExplainer(databaseURL string, timeout time.Duration) *Explainer {
	return &Explainer{
		connector: pull.NewDatabaseConnector(),
		url:       databaseURL,
		timeout:   timeout,
	}
}

// Explain plans the statement without executing it. Any database error,
// including unknown tables or columns, fails validation.
func (e *Explainer) Explain(ctx context.Context, sqlText string) error {
	db, dialect, err := e.database()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExplainFailed, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := db.QueryContext(ctx, explainStatement(dialect, sqlText))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExplainFailed, err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrExplainFailed, err)
	}
	return nil
}

// Close releases the pooled connection if one was opened.
func (e *Explainer) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.connector.Close(e.db)
	e.db = nil
	return err
}

func (e *Explainer) database() (*sql.DB, nl2sql.Dialect, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db != nil {
		return e.db, e.dialect, nil
	}
	db, dialect, err := e.connector.Connect(e.url)
	if err != nil {
		return nil, "", err
	}
	e.db, e.dialect = db, dialect
	return db, dialect, nil
}

func explainStatement(dialect nl2sql.Dialect, sqlText string) string {
	if dialect == nl2sql.DialectSQLite {
		return "EXPLAIN QUERY PLAN " + sqlText
	}
	return "EXPLAIN " + sqlText
}
