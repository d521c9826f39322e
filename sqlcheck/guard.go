package sqlcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/caresuite/nl2sql"
)

// Guard validates generated SQL according to the configured mode: none
// passes everything through, static runs the token checks, explain runs
// the token checks and then plans the statement against a database.
type Guard struct {
	mode      string
	explainer *Explainer
}

// NewGuard builds a guard for the validation mode. databaseURL and timeout
// only matter in explain mode.
func NewGuard(mode, databaseURL string, timeout time.Duration) (*Guard, error) {
	switch mode {
	case "", nl2sql.ValidationNone:
		return &Guard{mode: nl2sql.ValidationNone}, nil
	case nl2sql.ValidationStatic:
		return &Guard{mode: nl2sql.ValidationStatic}, nil
	case nl2sql.ValidationExplain:
		if databaseURL == "" {
			return nil, ErrMissingDatabase
		}
		return &Guard{
			mode:      nl2sql.ValidationExplain,
			explainer: NewExplainer(databaseURL, timeout),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Mode reports the active validation mode.
func (g *Guard) Mode() string {
	return g.mode
}

// Check validates one statement.
func (g *Guard) Check(ctx context.Context, sqlText string) error {
	switch g.mode {
	case nl2sql.ValidationNone:
		return nil
	case nl2sql.ValidationStatic:
		return StaticCheck(sqlText)
	default:
		if err := StaticCheck(sqlText); err != nil {
			return err
		}
		return g.explainer.Explain(ctx, sqlText)
	}
}

// Close releases the explain connection if one was opened.
func (g *Guard) Close() error {
	if g.explainer == nil {
		return nil
	}
	return g.explainer.Close()
}
