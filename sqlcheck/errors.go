package sqlcheck

import "errors"

var (
	// ErrEmptyStatement is returned when there is nothing to validate.
	ErrEmptyStatement = errors.New("sqlcheck: statement is empty")
	// ErrNotSelect is returned when the statement head is not SELECT or a
	// CTE introducing one.
	ErrNotSelect = errors.New("sqlcheck: statement must start with SELECT or WITH")
	// ErrMultipleStatements is returned when content follows a statement
	// terminator.
	ErrMultipleStatements = errors.New("sqlcheck: multiple statements are not allowed")
	// ErrForbiddenKeyword is returned when a data-modifying or DDL keyword
	// appears at the top level of the statement.
	ErrForbiddenKeyword = errors.New("sqlcheck: forbidden keyword")
	// ErrUnparsableSQL wraps tokenizer failures.
	ErrUnparsableSQL = errors.New("sqlcheck: SQL could not be tokenized")
	// ErrExplainFailed wraps database errors from explain validation.
	ErrExplainFailed = errors.New("sqlcheck: explain validation failed")
	// ErrMissingDatabase is returned when explain mode is selected without
	// a database URL.
	ErrMissingDatabase = errors.New("sqlcheck: explain validation requires a database URL")
	// ErrUnknownMode is returned for validation modes the guard does not know.
	ErrUnknownMode = errors.New("sqlcheck: unknown validation mode")
)
