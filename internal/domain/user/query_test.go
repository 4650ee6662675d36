package user

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "user-data-service/pkg/errors"
)

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name        string
		query       Query
		expectError bool
		errorMsg    string
	}{
		{
			name:  "zero query",
			query: Query{},
		},
		{
			name: "name contains, id ascending",
			query: Query{
				Where:   []Predicate{Contains(FieldName, "P")},
				OrderBy: []Order{Ascending(FieldID)},
			},
		},
		{
			name:  "id equals",
			query: Query{Where: []Predicate{Equals(FieldID, "42")}, Limit: 1},
		},
		{
			name:        "unknown field",
			query:       Query{Where: []Predicate{Equals("password", "x")}},
			expectError: true,
			errorMsg:    `unknown field "password"`,
		},
		{
			name:        "unknown operator",
			query:       Query{Where: []Predicate{{Field: FieldName, Op: "startsWith", Value: "a"}}},
			expectError: true,
			errorMsg:    `unknown operator "startsWith"`,
		},
		{
			name:        "non numeric id",
			query:       Query{Where: []Predicate{Equals(FieldID, "abc")}},
			expectError: true,
			errorMsg:    "id must be an integer",
		},
		{
			name:        "contains on id",
			query:       Query{Where: []Predicate{Contains(FieldID, "1")}},
			expectError: true,
			errorMsg:    "contains is not supported on id",
		},
		{
			name:        "unknown direction",
			query:       Query{OrderBy: []Order{{Field: FieldID, Direction: "up"}}},
			expectError: true,
			errorMsg:    `unknown direction "up"`,
		},
		{
			name:        "unknown sort field",
			query:       Query{OrderBy: []Order{Descending("created_at")}},
			expectError: true,
			errorMsg:    `unknown field "created_at"`,
		},
		{
			name:        "negative offset",
			query:       Query{Offset: -1},
			expectError: true,
			errorMsg:    "offset",
		},
		{
			name:        "negative limit",
			query:       Query{Limit: -5},
			expectError: true,
			errorMsg:    "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPatch_IsEmpty(t *testing.T) {
	name := "new"
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Name: &name}.IsEmpty())
}
