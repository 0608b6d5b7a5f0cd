package datatable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CellOption is one flattened relationship value with its display label.
type CellOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

const (
	defaultDateLayout     = "2006-01-02"
	defaultDatetimeLayout = "2006-01-02 15:04"
)

// Transform maps raw rows into flat value maps keyed by column key with
// per-type formatting applied. It touches only data the query already
// loaded; it never executes statements of its own.
func Transform(t *Table, rows []map[string]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]interface{}, len(t.columns)+1)
		item["_id"] = row["_id"]
		for _, c := range t.columns {
			item[c.key] = transformValue(t, c, row[c.key])
		}
		out = append(out, item)
	}
	return out
}

func transformValue(t *Table, c *Column, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if c.relation != "" && t.relations[c.relation].Multi {
		return flattenList(v)
	}
	switch c.colType {
	case TypeDate:
		return formatTime(v, c.options[OptFormat], defaultDateLayout)
	case TypeDatetime:
		return formatTime(v, c.options[OptFormat], defaultDatetimeLayout)
	case TypeCurrency:
		return formatDecimal(v, c.options, true)
	case TypeNumber:
		return formatDecimal(v, c.options, false)
	case TypeBoolean:
		return toBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// flattenList splits an aggregated relationship value into option pairs.
func flattenList(v interface{}) []CellOption {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	var opts []CellOption
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		opts = append(opts, CellOption{Value: part, Label: part})
	}
	return opts
}

func formatTime(v interface{}, layout, fallback string) string {
	if layout == "" {
		layout = fallback
	}
	switch tv := v.(type) {
	case time.Time:
		return tv.Format(layout)
	case string:
		for _, in := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(in, tv); err == nil {
				return parsed.Format(layout)
			}
		}
		return tv
	default:
		return fmt.Sprint(v)
	}
}

// formatDecimal renders a numeric cell with configurable decimals and
// separators, prefixing the currency symbol when asked.
func formatDecimal(v interface{}, opts map[string]string, currency bool) string {
	d, err := toDecimal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	decimals := 2
	if !currency {
		decimals = 0
	}
	if raw, ok := opts[OptDecimals]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			decimals = n
		}
	}
	decSep := opts[OptDecimalSeparator]
	if decSep == "" {
		decSep = "."
	}
	thouSep, hasThou := opts[OptThousandSeparator]
	if !hasThou {
		thouSep = ","
	}

	fixed := d.StringFixed(int32(decimals))
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if currency {
		symbol := opts[OptCurrencySymbol]
		if symbol == "" {
			symbol = "$"
		}
		b.WriteString(symbol)
	}
	b.WriteString(groupThousands(intPart, thouSep))
	if fracPart != "" {
		b.WriteString(decSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, sep)
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch tv := v.(type) {
	case int64:
		return decimal.NewFromInt(tv), nil
	case int:
		return decimal.NewFromInt(int64(tv)), nil
	case float64:
		return decimal.NewFromFloat(tv), nil
	case string:
		return decimal.NewFromString(tv)
	case []byte:
		return decimal.NewFromString(string(tv))
	default:
		return decimal.NewFromString(fmt.Sprint(v))
	}
}

func toBool(v interface{}) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		return tv == "true" || tv == "t" || tv == "1"
	case int64:
		return tv != 0
	default:
		return false
	}
}
