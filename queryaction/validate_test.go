package queryaction

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/sqlverify/variable"
)

func TestCompareValues_NullSymmetry(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		expected string
		mismatch *ValidationMismatchError
	}{
		{name: "absent matches empty", actual: NullLiteral, expected: ""},
		{name: "absent matches NULL", actual: NullLiteral, expected: "NULL"},
		{name: "absent matches null", actual: NullLiteral, expected: "null"},
		{name: "absent matches Null", actual: NullLiteral, expected: "Null"},
		{
			name: "absent vs value", actual: NullLiteral, expected: "Alice",
			mismatch: &ValidationMismatchError{Column: "C", Actual: "NULL", Expected: "Alice"},
		},
		{
			name: "value vs empty", actual: "Alice", expected: "",
			mismatch: &ValidationMismatchError{Column: "C", Actual: "Alice", Expected: "NULL"},
		},
		{
			name: "value vs null", actual: "Alice", expected: "null",
			mismatch: &ValidationMismatchError{Column: "C", Actual: "Alice", Expected: "NULL"},
		},
		{
			name: "empty string vs empty", actual: "", expected: "",
			mismatch: &ValidationMismatchError{Column: "C", Actual: "", Expected: "NULL"},
		},
		{name: "equal", actual: "Alice", expected: "Alice"},
		{
			name: "case matters", actual: "Alice", expected: "alice",
			mismatch: &ValidationMismatchError{Column: "C", Actual: "Alice", Expected: "alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compareValues("C", tt.actual, tt.expected)
			if tt.mismatch == nil {
				assert.NoError(t, err)
				return
			}

			var mismatch *ValidationMismatchError
			assert.True(t, errors.As(err, &mismatch))
			assert.Equal(t, *tt.mismatch, *mismatch)
		})
	}
}

func TestClassifyToken(t *testing.T) {
	vars := variable.NewContext(nil)

	assert.Equal(t, tokenVariable, classifyToken("${name}", vars).kind)
	assert.Equal(t, tokenFunction, classifyToken("core:upperCase('a')", vars).kind)
	assert.Equal(t, tokenLiteral, classifyToken("core:unknown('a')", vars).kind)
	assert.Equal(t, tokenLiteral, classifyToken("plain value", vars).kind)
	assert.Equal(t, tokenLiteral, classifyToken("", vars).kind)
}

func TestValidate(t *testing.T) {
	vars := variable.NewContext(nil)
	vars.SetVariable("empty", "")
	vars.SetVariable("name", "Alice")

	merged := map[string]any{"NAME": "Alice", "NOTE": NullLiteral, "COUNT": int64(3)}

	tests := []struct {
		name     string
		expected map[string]string
		kind     Kind
		target   error
	}{
		{name: "all match", expected: map[string]string{"name": "${name}", "note": "", "count": "3"}},
		{name: "null via empty variable", expected: map[string]string{"NOTE": "${empty}"}},
		{name: "function", expected: map[string]string{"COUNT": "core:stringLength('abc')"}},
		{name: "missing column", expected: map[string]string{"OTHER": "x"}, kind: KindValidation, target: ErrColumnNotFound},
		{name: "mismatch", expected: map[string]string{"COUNT": "4"}, kind: KindValidation, target: ErrValidationMismatch},
		{name: "present vs empty variable", expected: map[string]string{"NAME": "${empty}"}, kind: KindValidation, target: ErrValidationMismatch},
		{name: "unknown variable", expected: map[string]string{"NAME": "${nope}"}, kind: KindContentResolution, target: variable.ErrUnknownVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := validate(tt.expected, merged, vars)
			if tt.target == nil {
				assert.Zero(t, failure)
				return
			}

			assert.NotZero(t, failure)
			assert.Equal(t, tt.kind, failure.Kind())
			assert.IsError(t, failure, tt.target)
		})
	}
}

func TestValidate_StopsAtFirstFailureInColumnOrder(t *testing.T) {
	vars := variable.NewContext(nil)
	merged := map[string]any{"A": "1", "B": "2"}

	failure := validate(map[string]string{"B": "x", "A": "y"}, merged, vars)

	var mismatch *ValidationMismatchError
	assert.True(t, errors.As(failure, &mismatch))
	assert.Equal(t, "A", mismatch.Column)
}
