package tokenizer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// SqlTokenizer is a tokenizer that returns an iterator
type SqlTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
	PreserveCase   bool
}

// NewSqlTokenizer creates a new SqlTokenizer
func NewSqlTokenizer(input string, options ...TokenizerOptions) *SqlTokenizer {
	opts := TokenizerOptions{
		SkipWhitespace: false,
		SkipComments:   false,
		PreserveCase:   false,
	}
	if len(options) > 0 {
		opts = options[0]
	}

	return &SqlTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens
func (t *SqlTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input:    t.input,
			position: 0,
			line:     1,
			column:   1,
			options:  t.options,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				if !yield(Token{}, err) {
					return
				}

				continue
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			// Filtering based on options
			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if t.options.SkipComments && (token.Type == LINE_COMMENT || token.Type == BLOCK_COMMENT) {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice
func (t *SqlTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	var lastError error

	for token, err := range t.Tokens() {
		if err != nil {
			lastError = err
			continue
		}

		tokens = append(tokens, token)

		if token.Type == EOF {
			break
		}
	}

	return tokens, lastError
}

// Internal tokenizer implementation
type tokenizer struct {
	input    string
	position int
	line     int
	column   int
	current  rune
	options  TokenizerOptions
}

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	switch t.current {
	case 0:
		return t.newToken(EOF, ""), nil
	case ' ', '\t', '\r', '\n':
		return t.readWhitespace(), nil
	case '(':
		token := t.newToken(OPENED_PARENS, string(t.current))
		t.readChar()

		return token, nil
	case ')':
		token := t.newToken(CLOSED_PARENS, string(t.current))
		t.readChar()

		return token, nil
	case ',':
		token := t.newToken(COMMA, string(t.current))
		t.readChar()

		return token, nil
	case ';':
		token := t.newToken(SEMICOLON, string(t.current))
		t.readChar()

		return token, nil
	case '.':
		token := t.newToken(DOT, string(t.current))
		t.readChar()

		return token, nil
	case '\'', '"':
		return t.readString(t.current)
	case '`':
		return t.readQuotedIdentifier()
	case '#':
		return t.readLineComment()
	case '-':
		if t.peekChar() == '-' {
			return t.readLineComment()
		}

		return t.readOther()
	case '/':
		if t.peekChar() == '*' {
			return t.readBlockComment()
		}

		return t.readOther()
	default:
		if unicode.IsLetter(t.current) || t.current == '_' {
			return t.readWord()
		} else if unicode.IsDigit(t.current) {
			return t.readNumber()
		}

		// Other characters (operators and vendor syntax) are passed through
		return t.readOther()
	}
}

// readChar reads the next character
func (t *tokenizer) readChar() {
	if t.position >= len(t.input) {
		t.current = 0
		t.position++

		return
	}

	t.current = rune(t.input[t.position])
	t.position++

	if t.current == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

// peekChar looks ahead at the next character
func (t *tokenizer) peekChar() rune {
	if t.position >= len(t.input) {
		return 0
	}

	return rune(t.input[t.position])
}

// readWhitespace reads whitespace characters
func (t *tokenizer) readWhitespace() Token {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	for unicode.IsSpace(t.current) {
		builder.WriteRune(t.current)
		t.readChar()
	}

	return Token{
		Type:  WHITESPACE,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}
}

// readWord reads words (identifiers and keywords)
func (t *tokenizer) readWord() (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	for unicode.IsLetter(t.current) || unicode.IsDigit(t.current) || t.current == '_' || t.current == '$' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	word := builder.String()
	if !t.options.PreserveCase {
		word = strings.ToUpper(word)
	}

	return Token{
		Type:  getKeywordTokenType(word),
		Value: word,
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readString reads string literals. Both backslash escapes and doubled
// delimiters ('it''s') are honored.
func (t *tokenizer) readString(delimiter rune) (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	builder.WriteRune(delimiter) // include opening quote
	t.readChar()

	for t.current != 0 {
		if t.current == '\\' {
			builder.WriteRune(t.current)
			t.readChar()

			if t.current != 0 {
				builder.WriteRune(t.current)
				t.readChar()
			}

			continue
		}

		if t.current == delimiter {
			if t.peekChar() == delimiter {
				builder.WriteRune(t.current)
				t.readChar()
				builder.WriteRune(t.current)
				t.readChar()

				continue
			}

			break
		}

		builder.WriteRune(t.current)
		t.readChar()
	}

	if t.current == 0 {
		return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, startLine, startColumn)
	}

	builder.WriteRune(delimiter) // include closing quote
	t.readChar()

	return Token{
		Type:  QUOTE,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readQuotedIdentifier reads `name` identifiers. A doubled backtick inside
// is an escaped backtick.
func (t *tokenizer) readQuotedIdentifier() (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	builder.WriteRune(t.current) // include opening backtick
	t.readChar()

	for t.current != 0 {
		if t.current == '`' {
			if t.peekChar() == '`' {
				builder.WriteRune(t.current)
				t.readChar()
				builder.WriteRune(t.current)
				t.readChar()

				continue
			}

			break
		}

		builder.WriteRune(t.current)
		t.readChar()
	}

	if t.current == 0 {
		return Token{}, fmt.Errorf("%w at line %d, column %d", ErrUnterminatedIdentifier, startLine, startColumn)
	}

	builder.WriteRune(t.current) // include closing backtick
	t.readChar()

	return Token{
		Type:  QUOTED_IDENT,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readNumber reads numeric literals
func (t *tokenizer) readNumber() (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	// Integer part
	for unicode.IsDigit(t.current) {
		builder.WriteRune(t.current)
		t.readChar()
	}

	// Decimal point
	if t.current == '.' && unicode.IsDigit(t.peekChar()) {
		builder.WriteRune(t.current)
		t.readChar()

		for unicode.IsDigit(t.current) {
			builder.WriteRune(t.current)
			t.readChar()
		}
	}

	// Exponential part
	if t.current == 'e' || t.current == 'E' {
		builder.WriteRune(t.current)
		t.readChar()

		if t.current == '+' || t.current == '-' {
			builder.WriteRune(t.current)
			t.readChar()
		}

		if !unicode.IsDigit(t.current) {
			return Token{}, fmt.Errorf("%w: invalid exponent at line %d, column %d", ErrInvalidNumber, startLine, startColumn)
		}

		for unicode.IsDigit(t.current) {
			builder.WriteRune(t.current)
			t.readChar()
		}
	}

	return Token{
		Type:  NUMBER,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readLineComment reads -- and # comments up to the end of the line
func (t *tokenizer) readLineComment() (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	if t.current == '-' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	builder.WriteRune(t.current)
	t.readChar()

	for t.current != 0 && t.current != '\n' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	return Token{
		Type:  LINE_COMMENT,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readBlockComment reads block comments
func (t *tokenizer) readBlockComment() (Token, error) {
	var builder strings.Builder

	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1

	builder.WriteRune(t.current)
	t.readChar()
	builder.WriteRune(t.current)
	t.readChar()

	for t.current != 0 {
		if t.current == '*' && t.peekChar() == '/' {
			builder.WriteRune(t.current)
			t.readChar()
			builder.WriteRune(t.current)
			t.readChar()

			break
		}

		builder.WriteRune(t.current)
		t.readChar()
	}

	if !strings.HasSuffix(builder.String(), "*/") || builder.Len() < 4 {
		return Token{}, fmt.Errorf("%w at line %d, column %d", ErrUnterminatedComment, startLine, startColumn)
	}

	return Token{
		Type:  BLOCK_COMMENT,
		Value: builder.String(),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// readOther reads other characters
func (t *tokenizer) readOther() (Token, error) {
	startLine := t.line
	startColumn := t.column - 1
	startOffset := t.position - 1
	char := t.current

	t.readChar()

	return Token{
		Type:  OTHER,
		Value: string(char),
		Position: Position{
			Line:   startLine,
			Column: startColumn,
			Offset: startOffset,
		},
	}, nil
}

// newToken creates a new token
func (t *tokenizer) newToken(tokenType TokenType, value string) Token {
	return Token{
		Type:  tokenType,
		Value: value,
		Position: Position{
			Line:   t.line,
			Column: t.column - len([]rune(value)),
			Offset: t.position - len(value),
		},
	}
}

// getKeywordTokenType returns the TokenType corresponding to a keyword
func getKeywordTokenType(word string) TokenType {
	switch strings.ToUpper(word) {
	case "CREATE":
		return CREATE
	case "TABLE":
		return TABLE
	case "IF":
		return IF
	case "EXISTS":
		return EXISTS
	case "PRIMARY":
		return PRIMARY
	case "FOREIGN":
		return FOREIGN
	case "KEY":
		return KEY
	case "CONSTRAINT":
		return CONSTRAINT
	case "UNIQUE":
		return UNIQUE
	case "INDEX":
		return INDEX
	case "REFERENCES":
		return REFERENCES
	case "DEFAULT":
		return DEFAULT
	case "NOT":
		return NOT
	case "NULL":
		return NULL
	case "SELECT":
		return SELECT
	case "INSERT":
		return INSERT
	case "UPDATE":
		return UPDATE
	case "DELETE":
		return DELETE
	case "WITH":
		return WITH
	case "AS":
		return AS
	case "FROM":
		return FROM
	case "WHERE":
		return WHERE
	case "ON":
		return ON
	case "AND":
		return AND
	case "OR":
		return OR
	default:
		return WORD
	}
}
