package product

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"stock-lookup/internal/broker"
)

// Record is a read-only view of one products row.
type Record struct {
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Description *string `json:"description"`
	Quantity    int64   `json:"quantity"`
}

// FromRow maps a broker row onto a Record. Column lookup ignores case since
// HANA reports unquoted identifiers upper-cased.
func FromRow(row broker.Row) (Record, error) {
	cols := make(map[string]any, len(row))
	for k, v := range row {
		cols[strings.ToLower(k)] = v
	}

	var rec Record
	var err error
	if rec.Name, err = asString(cols["name"], "name"); err != nil {
		return Record{}, err
	}
	if rec.SKU, err = asString(cols["sku"], "sku"); err != nil {
		return Record{}, err
	}
	if d := cols["description"]; d != nil {
		s, err := asString(d, "description")
		if err != nil {
			return Record{}, err
		}
		rec.Description = &s
	}
	if rec.Quantity, err = asInt(cols["quantity"]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func FromRows(rows []broker.Row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func asString(v any, col string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("unexpected type %T for column %s", v, col)
	}
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case float64:
		return int64(math.Round(x)), nil
	case float32:
		return int64(math.Round(float64(x))), nil
	case *big.Rat:
		f, _ := x.Float64()
		return int64(math.Round(f)), nil
	case string:
		return parseNumeric(x)
	case []byte:
		return parseNumeric(string(x))
	case fmt.Stringer:
		return parseNumeric(x.String())
	default:
		return 0, fmt.Errorf("unexpected type %T for column quantity", v)
	}
}

func parseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return int64(math.Round(f)), nil
}
