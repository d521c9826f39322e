// Package sqlgen turns a natural language question plus retrieved schema
// chunks into a single MySQL SELECT via a chat model. Patient-centric
// scoping and any configured prompt rules are applied through compiled CEL
// conditions over the request parameters.
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/llm"
)

// Request is one generation request. RosterID and ClientID are optional;
// when present they drive the built-in scoping rules. Chunks are the
// retrieved schema excerpts, best match first.
type Request struct {
	Question string
	RosterID *int
	ClientID *int
	Chunks   []nl2sql.ScoredChunk
}

// Generator assembles prompts and asks the chat model for SQL.
type Generator struct {
	chat  llm.ChatModel
	rules []rule
}

// NewGenerator compiles the configured scope rules once and returns a
// generator bound to the chat model.
func NewGenerator(chat llm.ChatModel, configured []nl2sql.ScopeRule) (*Generator, error) {
	rules, err := compileRules(configured)
	if err != nil {
		return nil, err
	}
	return &Generator{chat: chat, rules: rules}, nil
}

// Generate returns the cleaned SQL for the request.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", ErrEmptyQuestion
	}

	params := requestParams(req)
	ruleLines, err := evaluate(g.rules, params)
	if err != nil {
		return "", err
	}
	scopeLines := append(append([]string(nil), baseScopeLines...), ruleLines...)

	raw, err := g.chat.Complete(ctx, systemPrompt(scopeLines), userPrompt(req.Question, req.Chunks))
	if err != nil {
		return "", fmt.Errorf("sqlgen: generate: %w", err)
	}

	sql := CleanSQL(raw)
	if sql == "" {
		return "", ErrEmptySQL
	}
	return sql, nil
}

// requestParams builds the CEL params map. Optional IDs only appear when
// set, so rule conditions can test presence with has().
func requestParams(req Request) map[string]any {
	params := map[string]any{"question": req.Question}
	if req.RosterID != nil {
		params["roster_id"] = *req.RosterID
	}
	if req.ClientID != nil {
		params["client_id"] = *req.ClientID
	}
	return params
}
