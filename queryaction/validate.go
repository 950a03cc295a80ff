package queryaction

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenVariable
	tokenFunction
)

// expectedToken is an expected value classified once before resolution.
type expectedToken struct {
	kind tokenKind
	raw  string
}

func classifyToken(raw string, resolver ValueResolver) expectedToken {
	switch {
	case resolver.IsVariable(raw):
		return expectedToken{kind: tokenVariable, raw: raw}
	case resolver.IsFunction(raw):
		return expectedToken{kind: tokenFunction, raw: raw}
	default:
		return expectedToken{kind: tokenLiteral, raw: raw}
	}
}

func resolveToken(token expectedToken, resolver ValueResolver) (string, error) {
	switch token.kind {
	case tokenVariable:
		return resolver.GetVariable(token.raw)
	case tokenFunction:
		return resolver.EvaluateFunction(token.raw)
	default:
		return token.raw, nil
	}
}

// validate compares every expected column with the merged result and stops at the
// first failure.
func validate(expected map[string]string, merged map[string]any, resolver ValueResolver) *Failure {
	normalized := normalizeColumns(expected)

	for _, column := range slices.Sorted(maps.Keys(normalized)) {
		value, ok := merged[column]
		if !ok {
			return newFailure(KindValidation, &ColumnNotFoundError{Column: column, Phase: PhaseValidation}, nil)
		}

		want, err := resolveToken(classifyToken(normalized[column], resolver), resolver)
		if err != nil {
			return wrapFailure(KindContentResolution, err, map[string]string{"column": column},
				"failed to resolve expected value of column %s", column)
		}

		if err := compareValues(column, stringify(value), want); err != nil {
			return newFailure(KindValidation, err, nil)
		}
	}

	return nil
}

func compareValues(column, actual, expected string) error {
	actualAbsent := actual == NullLiteral
	expectedAbsent := isAbsentExpectation(expected)

	switch {
	case actualAbsent && expectedAbsent:
		return nil
	case actualAbsent:
		return &ValidationMismatchError{Column: column, Actual: NullLiteral, Expected: expected}
	case expectedAbsent:
		return &ValidationMismatchError{Column: column, Actual: actual, Expected: NullLiteral}
	case actual != expected:
		return &ValidationMismatchError{Column: column, Actual: actual, Expected: expected}
	}

	return nil
}

func isAbsentExpectation(expected string) bool {
	return expected == "" || strings.EqualFold(expected, NullLiteral)
}

// checkColumnKeys rejects keys that only differ by case, since they name the same column.
func checkColumnKeys(section string, columns map[string]string) error {
	seen := make(map[string]string, len(columns))

	for _, key := range slices.Sorted(maps.Keys(columns)) {
		column := normalizeColumn(key)
		if other, ok := seen[column]; ok {
			return fmt.Errorf("%w: %s keys '%s' and '%s' both refer to column %s", ErrDuplicateColumn, section, other, key, column)
		}

		seen[column] = key
	}

	return nil
}
