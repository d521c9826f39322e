// Package schemadoc extracts CREATE TABLE statements from a SQL schema dump
// and compacts each table into a retrieval-sized text chunk. Large schemas
// (100+ tables) are handled by clipping wide tables and capping chunk length.
package schemadoc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/tokenizer"
)

// Sentinel errors
var ErrSchemaFileNotFound = errors.New("schema SQL file not found")

// Markers appended when a table definition is clipped.
const (
	columnsTruncatedMarker     = "-- (columns truncated for brevity)"
	constraintsTruncatedMarker = "-- (constraints truncated for brevity)"
	embeddingTruncatedMarker   = "\n-- (truncated for embedding)\n"
)

// Options control how aggressively table definitions are compacted.
type Options struct {
	MaxColumnLines     int
	MaxConstraintLines int
	MaxChunkChars      int
}

// DefaultOptions returns the caps used by the service: 40 column lines,
// 15 constraint lines, and 4000 characters per chunk (roughly 1000 tokens,
// safe for embeddings).
func DefaultOptions() Options {
	return Options{
		MaxColumnLines:     40,
		MaxConstraintLines: 15,
		MaxChunkChars:      4000,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()

	if o.MaxColumnLines <= 0 {
		o.MaxColumnLines = defaults.MaxColumnLines
	}

	if o.MaxConstraintLines <= 0 {
		o.MaxConstraintLines = defaults.MaxConstraintLines
	}

	if o.MaxChunkChars <= 0 {
		o.MaxChunkChars = defaults.MaxChunkChars
	}

	return o
}

// Load reads a schema file and returns one chunk per CREATE TABLE statement.
// A schema that yields no tables is an error: the service cannot answer
// questions about an empty schema.
func Load(path string, opts Options) ([]nl2sql.SchemaChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s: set SCHEMA_SQL_PATH or place maindata.sql in the project root", ErrSchemaFileNotFound, path)
		}

		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	chunks, err := Build(string(data), opts)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no CREATE TABLE statements in %s (check SCHEMA_SQL_PATH or the SQL format)", nl2sql.ErrEmptySchema, path)
	}

	return chunks, nil
}

type span struct {
	start int
	end   int
}

// Build parses DDL text and returns one chunk per CREATE TABLE statement.
// Comments are stripped, table bodies are located by parenthesis matching,
// and anything between the closing parenthesis and the terminating semicolon
// (engine and charset options) is ignored.
func Build(src string, opts Options) ([]nl2sql.SchemaChunk, error) {
	opts = opts.withDefaults()

	all, err := tokenizer.NewSqlTokenizer(src, tokenizer.TokenizerOptions{
		SkipWhitespace: true,
		PreserveCase:   true,
	}).AllTokens()
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize schema: %w", err)
	}

	// Comment spans are cut out of table bodies below
	var comments []span

	tokens := make([]tokenizer.Token, 0, len(all))

	for _, tok := range all {
		if tok.Type == tokenizer.LINE_COMMENT || tok.Type == tokenizer.BLOCK_COMMENT {
			comments = append(comments, span{start: tok.Position.Offset, end: tok.End()})
			continue
		}

		tokens = append(tokens, tok)
	}

	var chunks []nl2sql.SchemaChunk

	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type != tokenizer.CREATE || tokens[i+1].Type != tokenizer.TABLE {
			continue
		}

		j := i + 2

		// Optional IF NOT EXISTS
		if j+2 < len(tokens) && tokens[j].Type == tokenizer.IF && tokens[j+1].Type == tokenizer.NOT && tokens[j+2].Type == tokenizer.EXISTS {
			j += 3
		}

		name, next, ok := tableName(tokens, j)
		if !ok {
			continue
		}

		if next >= len(tokens) || tokens[next].Type != tokenizer.OPENED_PARENS {
			// CREATE TABLE ... AS SELECT and friends carry no column list
			continue
		}

		closing, ok := matchParen(tokens, next)
		if !ok {
			break
		}

		body := sliceWithout(src, tokens[next].End(), tokens[closing].Position.Offset, comments)
		chunks = append(chunks, buildChunk(name, body, opts))

		i = closing
	}

	return chunks, nil
}

// tableName reads an optionally quoted, optionally schema-qualified table
// name starting at index j. It returns the bare table name and the index of
// the token that follows it.
func tableName(tokens []tokenizer.Token, j int) (string, int, bool) {
	if j >= len(tokens) {
		return "", 0, false
	}

	name, ok := identValue(tokens[j])
	if !ok {
		return "", 0, false
	}

	// Names that begin with digits tokenize as NUMBER+WORD; stitch them back
	if tokens[j].Type == tokenizer.NUMBER && j+1 < len(tokens) &&
		tokens[j+1].Type == tokenizer.WORD && tokens[j].End() == tokens[j+1].Position.Offset {
		name += tokens[j+1].Value
		j++
	}

	// Schema-qualified names: keep the last segment
	for j+2 < len(tokens) && tokens[j+1].Type == tokenizer.DOT {
		segment, ok := identValue(tokens[j+2])
		if !ok {
			break
		}

		name = segment
		j += 2
	}

	return name, j + 1, true
}

// identValue unwraps an identifier-ish token to its bare name.
func identValue(tok tokenizer.Token) (string, bool) {
	switch tok.Type {
	case tokenizer.WORD, tokenizer.NUMBER:
		return tok.Value, true
	case tokenizer.QUOTED_IDENT:
		inner := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "`"), "`")
		return strings.ReplaceAll(inner, "``", "`"), true
	case tokenizer.QUOTE:
		if len(tok.Value) < 2 {
			return "", false
		}

		delim := tok.Value[:1]
		inner := strings.TrimSuffix(strings.TrimPrefix(tok.Value, delim), delim)

		return strings.ReplaceAll(inner, delim+delim, delim), true
	default:
		return "", false
	}
}

// matchParen returns the index of the parenthesis closing the one at open.
func matchParen(tokens []tokenizer.Token, open int) (int, bool) {
	depth := 0

	for k := open; k < len(tokens); k++ {
		switch tokens[k].Type {
		case tokenizer.OPENED_PARENS:
			depth++
		case tokenizer.CLOSED_PARENS:
			depth--
			if depth == 0 {
				return k, true
			}
		}
	}

	return 0, false
}

// sliceWithout returns src[start:end] with the given spans cut out.
func sliceWithout(src string, start, end int, cuts []span) string {
	var builder strings.Builder

	pos := start

	for _, c := range cuts {
		if c.end <= start || c.start >= end {
			continue
		}

		if c.start > pos {
			builder.WriteString(src[pos:c.start])
		}

		if c.end < end {
			pos = c.end
		} else {
			pos = end
		}
	}

	if pos < end {
		builder.WriteString(src[pos:end])
	}

	return builder.String()
}

// buildChunk compacts one table body into its chunk text.
func buildChunk(name, body string, opts Options) nl2sql.SchemaChunk {
	var columns, constraints []string

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		line = strings.TrimRight(line, ",")

		if strings.Contains(lower, "primary key") ||
			strings.Contains(lower, "foreign key") ||
			strings.HasPrefix(lower, "constraint") ||
			strings.HasPrefix(lower, "unique") ||
			strings.HasPrefix(lower, "index") ||
			strings.HasPrefix(lower, "key ") {
			constraints = append(constraints, line)
		} else {
			columns = append(columns, line)
		}
	}

	if len(columns) > opts.MaxColumnLines {
		columns = append(columns[:opts.MaxColumnLines], columnsTruncatedMarker)
	}

	if len(constraints) > opts.MaxConstraintLines {
		constraints = append(constraints[:opts.MaxConstraintLines], constraintsTruncatedMarker)
	}

	lines := make([]string, 0, len(columns)+len(constraints))
	lines = append(lines, columns...)
	lines = append(lines, constraints...)

	text := "Table: " + name + "\n" +
		"Columns and constraints (simplified):\n" +
		"CREATE TABLE " + name + " (\n" +
		"  " + strings.Join(lines, ",\n  ") + "\n" +
		");"

	if runes := []rune(text); len(runes) > opts.MaxChunkChars {
		text = string(runes[:opts.MaxChunkChars]) + embeddingTruncatedMarker
	}

	return nl2sql.SchemaChunk{ID: name, Table: name, Text: text}
}
