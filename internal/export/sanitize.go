package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// statusPrefix is the conventional prefix stored on raw order statuses,
// stripped for display.
const statusPrefix = "wc-"

// exportTimeLayout is the normalized representation for date-like fields.
const exportTimeLayout = "2006-01-02 15:04:05"

// dateFields are normalized to exportTimeLayout.
var dateFields = map[string]struct{}{
	"order_date":      {},
	"last_order_date": {},
}

// currencyFields are formatted to exactly two decimal places, plain.
var currencyFields = map[string]struct{}{
	"total_spent": {},
	"order_total": {},
	"item_total":  {},
}

// SanitizeBatch applies SanitizeRow to every row of a batch.
func SanitizeBatch(rows []Row) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = SanitizeRow(r)
	}
	return out
}

// SanitizeRow is the pure per-row transform applied before CSV writing:
// nil values become empty strings, raw order statuses lose their storage
// prefix, date-like fields are normalized, currency-like fields are formatted
// to two decimals, and all strings are trimmed.
func SanitizeRow(row Row) Record {
	rec := make(Record, len(row))
	for key, raw := range row {
		val := Stringify(raw)

		if key == "order_status" {
			val = strings.TrimPrefix(val, statusPrefix)
		}
		if _, ok := dateFields[key]; ok && val != "" {
			if t, err := parseAnyTime(val); err == nil {
				val = t.Format(exportTimeLayout)
			}
		}
		if _, ok := currencyFields[key]; ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				val = strconv.FormatFloat(f, 'f', 2, 64)
			}
		}

		rec[key] = strings.TrimSpace(val)
	}
	return rec
}

// Stringify coerces a raw source value into its display string. Nil becomes
// the empty string.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(exportTimeLayout)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// timeLayouts are the source formats accepted for date-like fields.
var timeLayouts = []string{
	exportTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseAnyTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
