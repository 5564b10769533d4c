package fees

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount is the single ingestion boundary for loosely-typed upstream
// numerics. Order pipelines and legacy settlement documents deliver amounts
// as JSON numbers, quoted strings, or not at all; anything that does not
// parse cleanly becomes zero so one garbled field cannot fail a whole
// projection.
func ParseAmount(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case string:
		return parseString(v)
	case json.Number:
		return parseString(v.String())
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.RawMessage:
		return parseString(strings.Trim(string(v), `"`))
	default:
		return decimal.Zero
	}
}

func parseString(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
