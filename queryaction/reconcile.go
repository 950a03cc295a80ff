package queryaction

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NullLiteral replaces SQL NULL in the merged result.
const NullLiteral = "NULL"

// reconciler merges the first row of every statement of one attempt.
type reconciler struct {
	logger *zap.Logger
	result map[string]any
}

func newReconciler(logger *zap.Logger) *reconciler {
	return &reconciler{
		logger: logger,
		result: make(map[string]any),
	}
}

func (r *reconciler) add(stmt string, rows []map[string]any) error {
	if len(rows) == 0 {
		return &EmptyResultError{Statement: stmt}
	}

	if len(rows) > 1 {
		r.logger.Warn("statement returned more than one row, only the first row is used",
			zap.String("statement", stmt),
			zap.Int("rows", len(rows)))

		if ce := r.logger.Check(zap.DebugLevel, "ignored rows"); ce != nil {
			ce.Write(zap.String("statement", stmt), zap.String("rows", dumpRows(rows[1:])))
		}
	}

	maps.Copy(r.result, normalizeColumns(rows[0]))

	return nil
}

// merged returns the result with upper-case column names and NULL as NullLiteral.
func (r *reconciler) merged() map[string]any {
	out := maps.Clone(r.result)

	for column, value := range out {
		if value == nil {
			out[column] = NullLiteral
		}
	}

	return out
}

// normalizeColumns upper-cases the keys of m into a new map.
func normalizeColumns[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))

	for key, value := range m {
		out[normalizeColumn(key)] = value
	}

	return out
}

func normalizeColumn(name string) string {
	return cases.Upper(language.Und).String(name)
}

func dumpRows(rows []map[string]any) string {
	var b strings.Builder

	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}

		for _, key := range slices.Sorted(maps.Keys(row)) {
			fmt.Fprintf(&b, "%s = %s; ", key, stringify(row[key]))
		}
	}

	return b.String()
}
