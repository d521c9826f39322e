package tokenizer

import "errors"

// Sentinel errors
var (
	ErrUnterminatedString     = errors.New("unterminated string literal")
	ErrUnterminatedIdentifier = errors.New("unterminated quoted identifier")
	ErrUnterminatedComment    = errors.New("unterminated block comment")
	ErrInvalidNumber          = errors.New("invalid number format")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE
	WORD         // identifiers, unclassified keywords
	QUOTED_IDENT // `name` identifiers
	QUOTE        // string literals ('text', "text")
	NUMBER       // numeric literals
	OPENED_PARENS
	CLOSED_PARENS
	COMMA
	SEMICOLON
	DOT

	// DDL keywords
	CREATE
	TABLE
	IF
	EXISTS
	PRIMARY
	FOREIGN
	KEY
	CONSTRAINT
	UNIQUE
	INDEX
	REFERENCES
	DEFAULT
	NOT
	NULL

	// Statement and clause keywords
	SELECT
	INSERT
	UPDATE
	DELETE
	WITH
	AS
	FROM
	WHERE
	ON
	AND
	OR

	// Comments
	LINE_COMMENT  // -- or # line comment
	BLOCK_COMMENT // /* block comment */

	// Others
	OTHER // operators, database-specific syntax
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case WORD:
		return "WORD"
	case QUOTED_IDENT:
		return "QUOTED_IDENT"
	case QUOTE:
		return "QUOTE"
	case NUMBER:
		return "NUMBER"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case DOT:
		return "DOT"
	case CREATE:
		return "CREATE"
	case TABLE:
		return "TABLE"
	case IF:
		return "IF"
	case EXISTS:
		return "EXISTS"
	case PRIMARY:
		return "PRIMARY"
	case FOREIGN:
		return "FOREIGN"
	case KEY:
		return "KEY"
	case CONSTRAINT:
		return "CONSTRAINT"
	case UNIQUE:
		return "UNIQUE"
	case INDEX:
		return "INDEX"
	case REFERENCES:
		return "REFERENCES"
	case DEFAULT:
		return "DEFAULT"
	case NOT:
		return "NOT"
	case NULL:
		return "NULL"
	case SELECT:
		return "SELECT"
	case INSERT:
		return "INSERT"
	case UPDATE:
		return "UPDATE"
	case DELETE:
		return "DELETE"
	case WITH:
		return "WITH"
	case AS:
		return "AS"
	case FROM:
		return "FROM"
	case WHERE:
		return "WHERE"
	case ON:
		return "ON"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	case OTHER:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// End returns the byte offset just past the token. Token values are read
// byte-wise, so the length of Value is the consumed span.
func (t Token) End() int {
	return t.Position.Offset + len(t.Value)
}
