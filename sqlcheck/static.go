// Package sqlcheck guards generated SQL before it leaves the service:
// a token-level static check that only lets single read statements
// through, and an optional EXPLAIN round-trip against a real database.
package sqlcheck

import (
	"fmt"
	"strings"

	"github.com/caresuite/nl2sql/tokenizer"
)

// forbiddenWords are keywords the tokenizer does not classify but that
// never appear at the top level of a plain SELECT. INTO also covers
// MySQL's SELECT ... INTO OUTFILE and variable assignment forms.
var forbiddenWords = map[string]bool{
	"DROP":     true,
	"ALTER":    true,
	"TRUNCATE": true,
	"GRANT":    true,
	"REVOKE":   true,
	"MERGE":    true,
	"INTO":     true,
}

// StaticCheck verifies that sqlText is a single statement headed by SELECT
// (or WITH introducing one) and carries no data-modifying or DDL keywords
// at parenthesis depth zero. String literals and quoted identifiers never
// trip the check because they tokenize as literals.
func StaticCheck(sqlText string) error {
	all, err := tokenizer.NewSqlTokenizer(sqlText, tokenizer.TokenizerOptions{
		SkipWhitespace: true,
		SkipComments:   true,
	}).AllTokens()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsableSQL, err)
	}

	tokens := all[:0]
	for _, tok := range all {
		if tok.Type != tokenizer.EOF {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return ErrEmptyStatement
	}

	if head := tokens[0]; head.Type != tokenizer.SELECT && head.Type != tokenizer.WITH {
		return fmt.Errorf("%w, got %q", ErrNotSelect, head.Value)
	}

	depth := 0
	ended := false
	var prev tokenizer.Token
	for _, tok := range tokens {
		if ended {
			return fmt.Errorf("%w: %q follows the statement terminator", ErrMultipleStatements, tok.Value)
		}
		switch tok.Type {
		case tokenizer.OPENED_PARENS:
			depth++
		case tokenizer.CLOSED_PARENS:
			if depth > 0 {
				depth--
			}
		case tokenizer.SEMICOLON:
			ended = true
		case tokenizer.INSERT, tokenizer.DELETE, tokenizer.CREATE:
			if depth == 0 {
				return forbidden(tok.Value)
			}
		case tokenizer.UPDATE:
			// SELECT ... FOR UPDATE is a read with row locks, not a write.
			if depth == 0 && !strings.EqualFold(prev.Value, "for") {
				return forbidden(tok.Value)
			}
		case tokenizer.WORD:
			if depth == 0 && forbiddenWords[strings.ToUpper(tok.Value)] {
				return forbidden(tok.Value)
			}
		}
		prev = tok
	}
	return nil
}

func forbidden(keyword string) error {
	return fmt.Errorf("%w: %s", ErrForbiddenKeyword, strings.ToUpper(keyword))
}
