package queryaction

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// export writes the extracted columns and, when enabled, every merged column as ${COLUMN}.
func (e *Engine) export(action *Action, merged map[string]any, store VariableStore) *Failure {
	for _, column := range slices.Sorted(maps.Keys(action.Extract)) {
		target := action.Extract[column]
		key := normalizeColumn(column)

		value, ok := merged[key]
		if !ok {
			return newFailure(KindExport, &ColumnNotFoundError{Column: key, Phase: PhaseExport}, nil)
		}

		store.SetVariable(target, stringify(value))
		e.logger.Debug("exported column", zap.String("column", key), zap.String("variable", target))
	}

	if action.LegacyExport {
		values := make(map[string]string, len(merged))
		for column, value := range merged {
			values["${"+column+"}"] = stringify(value)
		}

		store.SetVariables(values)
	}

	return nil
}

// stringify renders a column value the way it is compared and exported.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return NullLiteral
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return strconv.FormatFloat(float64(v), 'g', -1, 32)
		}

		return decimal.NewFromFloat32(v).String()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}

		return decimal.NewFromFloat(v).String()
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
