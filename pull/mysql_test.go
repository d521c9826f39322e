package pull

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMySQLParseDefaultValue(t *testing.T) {
	extractor := &MySQLExtractor{}

	testCases := []struct {
		input    string
		expected string
	}{
		{"CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"current_timestamp()", "CURRENT_TIMESTAMP"},
		{"NOW()", "CURRENT_TIMESTAMP"},
		{"NULL", ""},
		{"'active'", "active"},
		{"'quoted string'", "quoted string"},
		{"42", "42"},
		{"0", "0"},
	}

	for _, tc := range testCases {
		result := extractor.ParseDefaultValue(tc.input)
		assert.Equal(t, tc.expected, result, "Failed for input: %s", tc.input)
	}
}

func TestMySQLHandleDatabaseError(t *testing.T) {
	extractor := &MySQLExtractor{}

	t.Run("ConnectionError", func(t *testing.T) {
		mockErr := errors.New("connection refused")
		err := extractor.HandleDatabaseError(mockErr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection error")
		assert.IsError(t, err, mockErr)
	})

	t.Run("SchemaNotFound", func(t *testing.T) {
		mockErr := errors.New("database 'care' doesn't exist")
		err := extractor.HandleDatabaseError(mockErr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "schema not found")
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		mockErr := errors.New("Access denied for user 'app'@'%'")
		err := extractor.HandleDatabaseError(mockErr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("QueryFailure", func(t *testing.T) {
		mockErr := errors.New("syntax error near SELECT")
		err := extractor.HandleDatabaseError(mockErr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "query execution failed")
		assert.IsError(t, err, mockErr)
	})
}
