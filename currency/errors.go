package currency

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DuplicateKeyError reports two raw keys that collapse onto the same
// canonical key when no aggregator was supplied. Silently overwriting one of
// the values would corrupt the financial data, so the conflict surfaces with
// the canonical key named.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("multiple values found for normalized key %q, but no aggregation is provided", e.Key)
}

// ErrUnsupportedOperand reports a payload scalar whose type has no defined
// numeric interpretation.
var ErrUnsupportedOperand = errors.New("unsupported operand type")

// ToFloat coerces a raw payload scalar to a float64 amount. Providers quote
// numerics inconsistently: some as JSON numbers, some as strings.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: non-numeric json.Number %q", ErrUnsupportedOperand, v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: non-numeric string %q", ErrUnsupportedOperand, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedOperand, value)
	}
}
